package autowire

import (
	"context"
	"reflect"
	"sync"
)

// constructorInfo caches the reflection facts of a constructor function.
type constructorInfo struct {
	params     []reflect.Type
	result     reflect.Type
	hasError   bool
	variadic   bool
	resultName TypeName
}

var (
	// map[reflect.Type]*constructorInfo
	constructorCache sync.Map
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
	contextType      = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// getConstructorInfo returns the cached analysis of a constructor type, computing it if necessary.
// ok is false if the function does not have the shape of a constructor: exactly one non-error result,
// optionally followed by an error.
func getConstructorInfo(t reflect.Type) (*constructorInfo, bool) {
	if cached, ok := constructorCache.Load(t); ok {
		info := cached.(*constructorInfo)
		return info, info.result != nil
	}

	info := &constructorInfo{
		variadic: t.IsVariadic(),
	}
	info.params = make([]reflect.Type, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		info.params[i] = t.In(i)
	}

	switch t.NumOut() {
	case 1:
		if t.Out(0) != errorType {
			info.result = t.Out(0)
		}
	case 2:
		if t.Out(1) == errorType && t.Out(0) != errorType {
			info.result = t.Out(0)
			info.hasError = true
		}
	}
	if info.result != nil {
		info.resultName = TypeNameOf(info.result)
	}

	actual, _ := constructorCache.LoadOrStore(t, info)
	info = actual.(*constructorInfo)
	return info, info.result != nil
}

// isBuiltinKind reports whether values of t are plain data rather than dependencies that can be
// constructed.
func isBuiltinKind(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return false
	case reflect.Interface:
		return t.NumMethod() == 0
	}
	return true
}

// isNilable reports whether nil is a valid value of t.
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// assignable checks a value against a declared parameter type. A nil declared type accepts anything.
func assignable(value any, declared reflect.Type) bool {
	if declared == nil {
		return true
	}
	if value == nil {
		return isNilable(declared)
	}
	return reflect.TypeOf(value).AssignableTo(declared)
}
