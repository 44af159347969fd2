package autowire

import (
	"reflect"
)

// TypeName identifies a constructible type or an alias. Aliases and concrete type names share one
// namespace.
type TypeName string

func (t TypeName) String() string {
	return string(t)
}

// TypeNameOf derives the TypeName for a Go type. Pointers are stripped so that a constructor
// returning *Foo registers the name of Foo. Named types use their package path and name; unnamed
// types fall back to their Go spelling.
func TypeNameOf(t reflect.Type) TypeName {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return TypeName(t.String())
	}
	if t.PkgPath() == "" {
		return TypeName(t.Name())
	}
	return TypeName(t.PkgPath() + "." + t.Name())
}

// TypeOf returns the TypeName of T.
//
//	name := autowire.TypeOf[*Database]()
func TypeOf[T any]() TypeName {
	return TypeNameOf(reflect.TypeOf((*T)(nil)).Elem())
}
