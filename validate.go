package autowire

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Validate checks the current configuration against the registered definitions without
// constructing anything. It reports every alias that does not lead to an instantiable class and
// every preference or forced type that nothing can supply. All problems are returned joined.
func (i *Injector) Validate() error {
	snapshot := i.config.Snapshot()
	var errs []error

	supplied := func(name TypeName) bool {
		if i.canCreate(snapshot, name) {
			return true
		}
		return i.container != nil && i.container.Has(name)
	}

	for _, name := range snapshot.ConfiguredTypes() {
		entry := snapshot.types[name]
		if entry.TypeOf != "" {
			if _, _, err := i.lookupClass(snapshot, name); err != nil {
				errs = append(errs, &DependencyError{
					Kind:        KindInvalidConfiguration,
					Message:     fmt.Sprintf("alias does not lead to an instantiable class (typeOf %v)", entry.TypeOf),
					TypeName:    name,
					SourceError: err,
				})
			}
		}
		for declared, preferred := range entry.Preferences {
			if !supplied(preferred) {
				errs = append(errs, invalidConfig(name,
					fmt.Sprintf("preference %v -> %v cannot be supplied", declared, preferred)))
			}
		}
		for key, value := range entry.Parameters {
			if ref, ok := value.(TypeRef); ok && !supplied(ref.Name) {
				errs = append(errs, &DependencyError{
					Kind:      KindInvalidConfiguration,
					Message:   fmt.Sprintf("forced type %v cannot be supplied", ref.Name),
					TypeName:  name,
					Parameter: key,
				})
			}
		}
	}
	for declared, preferred := range snapshot.preferences {
		if !supplied(preferred) {
			errs = append(errs, invalidConfig(declared,
				fmt.Sprintf("global preference -> %v cannot be supplied", preferred)))
		}
	}

	return errors.Join(errs...)
}

// Invoke calls fn with every parameter created by c. A context.Context parameter receives ctx. fn
// must return exactly one value of type error, which Invoke returns.
//
//	err := autowire.Invoke(ctx, injector, func(ctx context.Context, db *Database) error {
//	    return db.Ping(ctx)
//	})
func Invoke(ctx context.Context, c Creator, fn any) error {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("invoke argument must be a function, got %v", fnType)
	}
	if fnType.NumOut() != 1 || fnType.Out(0) != errorType {
		return fmt.Errorf("invoke function must return exactly one error, got %v", fnType)
	}

	params := make([]reflect.Value, fnType.NumIn())
	for idx := 0; idx < fnType.NumIn(); idx++ {
		paramType := fnType.In(idx)
		if paramType == contextType {
			params[idx] = reflect.ValueOf(&ctx).Elem()
			continue
		}
		instance, err := c.Create(ctx, TypeNameOf(paramType), nil)
		if err != nil {
			return fmt.Errorf("dependency resolution failed for type %v: %w", paramType, err)
		}
		if !assignable(instance, paramType) {
			return contractViolation(TypeNameOf(paramType), "",
				fmt.Sprintf("created %T, not assignable to %v", instance, paramType))
		}
		if instance == nil {
			params[idx] = reflect.Zero(paramType)
		} else {
			params[idx] = reflect.ValueOf(instance)
		}
	}

	results := reflect.ValueOf(fn).Call(params)
	if !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}
