package autowire

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Parameter describes one constructor parameter.
type Parameter struct {
	// Name is the primary key used for explicit arguments and configured parameters.
	Name string
	// Position is the zero based position in the constructor's parameter list. It is the
	// secondary key for positional bindings.
	Position int
	// Type is the dependency type the parameter requires. Empty for plain data parameters that
	// cannot be constructed.
	Type TypeName
	// GoType is the Go type the constructor accepts. When set, resolved values are checked
	// against it before construction.
	GoType reflect.Type
	// Default is used when the parameter cannot otherwise be supplied and HasDefault is set.
	Default    any
	HasDefault bool
}

// IsRequired reports whether the parameter has no default.
func (p Parameter) IsRequired() bool {
	return !p.HasDefault
}

// Constructor builds an instance from arguments in declared parameter order.
type Constructor func(ctx context.Context, args []any) (any, error)

// ClassDefinition describes how to construct one type.
type ClassDefinition struct {
	Name TypeName
	// Abstract types exist but cannot be instantiated; they need an alias or preference.
	Abstract   bool
	Parameters []Parameter
	Construct  Constructor
}

// Definitions is the source of class definitions consulted by the Injector.
type Definitions interface {
	HasClass(name TypeName) bool
	ClassDefinition(name TypeName) (*ClassDefinition, bool)
	Classes() []TypeName
}

// Registry is the default Definitions implementation. Types are registered either explicitly with a
// ClassDefinition or by providing a constructor function that is analysed with reflection.
type Registry struct {
	lock    sync.RWMutex
	classes map[TypeName]*ClassDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: map[TypeName]*ClassDefinition{}}
}

// Register adds an explicit class definition. Parameter positions are normalised to their index.
func (r *Registry) Register(def *ClassDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("class definition requires a name")
	}
	if !def.Abstract && def.Construct == nil {
		return fmt.Errorf("class definition %v requires a constructor", def.Name)
	}
	seen := map[string]bool{}
	params := make([]Parameter, len(def.Parameters))
	for i, p := range def.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter %d of %v requires a name", i, def.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q in %v", p.Name, def.Name)
		}
		seen[p.Name] = true
		p.Position = i
		params[i] = p
	}
	stored := *def
	stored.Parameters = params

	r.lock.Lock()
	defer r.lock.Unlock()
	r.classes[def.Name] = &stored
	return nil
}

// Abstract registers a type that exists but cannot be instantiated, such as an interface.
func (r *Registry) Abstract(name TypeName) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.classes[name] = &ClassDefinition{Name: name, Abstract: true}
}

// HasClass reports whether name is registered, abstract or not.
func (r *Registry) HasClass(name TypeName) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.classes[name]
	return ok
}

// ClassDefinition returns the definition registered under name.
func (r *Registry) ClassDefinition(name TypeName) (*ClassDefinition, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	def, ok := r.classes[name]
	return def, ok
}

// Classes returns the registered names in sorted order.
func (r *Registry) Classes() []TypeName {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]TypeName, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ProvideOption adjusts how Provide describes a constructor.
type ProvideOption func(*provideSettings)

type provideSettings struct {
	names    []string
	defaults map[string]any
	hints    map[string]TypeName
	optional map[string]bool
	as       TypeName
}

// Named sets the parameter names in order. context.Context parameters are not counted. Parameters
// without a name are called arg0, arg1, ...
func Named(names ...string) ProvideOption {
	return func(s *provideSettings) {
		s.names = names
	}
}

// Default gives the named parameter a default value. A parameter with a default is optional.
func Default(name string, value any) ProvideOption {
	return func(s *provideSettings) {
		s.defaults[name] = value
	}
}

// Hint overrides the dependency type of the named parameter. This is how an interface parameter is
// declared to require a specific type.
func Hint(name string, t TypeName) ProvideOption {
	return func(s *provideSettings) {
		s.hints[name] = t
	}
}

// As registers the constructor under name instead of the name of its result type.
func As(name TypeName) ProvideOption {
	return func(s *provideSettings) {
		s.as = name
	}
}

// Provide registers a constructor function. The function must return one value, optionally followed
// by an error. A context.Context parameter receives the construction context. Struct, pointer to
// struct and non-empty interface parameters are dependencies; all other kinds are plain data.
//
//	reg.Provide(NewReportService, autowire.Named("store", "bucket"), autowire.Default("bucket", "reports"))
func (r *Registry) Provide(ctor any, opts ...ProvideOption) error {
	def, err := describeConstructor(ctor, opts...)
	if err != nil {
		return err
	}
	return r.Register(def)
}

// MustProvide is like Provide but panics on an invalid constructor.
func (r *Registry) MustProvide(ctor any, opts ...ProvideOption) *Registry {
	if err := r.Provide(ctor, opts...); err != nil {
		panic(err)
	}
	return r
}

func describeConstructor(ctor any, opts ...ProvideOption) (*ClassDefinition, error) {
	fnType := reflect.TypeOf(ctor)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported: %v", fnType)
	}
	info, ok := getConstructorInfo(fnType)
	if !ok {
		return nil, fmt.Errorf("constructor must return one value and an optional error: %v", fnType)
	}

	settings := &provideSettings{
		defaults: map[string]any{},
		hints:    map[string]TypeName{},
		optional: map[string]bool{},
	}
	for _, opt := range opts {
		opt(settings)
	}

	def := &ClassDefinition{Name: info.resultName}
	if settings.as != "" {
		def.Name = settings.as
	}

	used := map[string]bool{}
	for _, in := range info.params {
		if in == contextType {
			continue
		}
		pos := len(def.Parameters)
		name := fmt.Sprintf("arg%d", pos)
		if pos < len(settings.names) {
			name = settings.names[pos]
		}
		p := Parameter{
			Name:     name,
			Position: pos,
			GoType:   in,
		}
		if !isBuiltinKind(in) {
			p.Type = TypeNameOf(in)
		}
		if hint, ok := settings.hints[name]; ok {
			p.Type = hint
			used["hint:"+name] = true
		}
		if settings.optional[name] {
			if err := checkOptional(def.Name, p); err != nil {
				return nil, err
			}
		}
		if value, ok := settings.defaults[name]; ok {
			if !assignable(value, in) {
				return nil, fmt.Errorf("default for parameter %q of %v is not assignable to %v", name, def.Name, in)
			}
			p.Default = value
			p.HasDefault = true
			used["default:"+name] = true
		}
		def.Parameters = append(def.Parameters, p)
	}
	for name := range settings.hints {
		if !used["hint:"+name] {
			return nil, fmt.Errorf("hint for unknown parameter %q of %v", name, def.Name)
		}
	}
	for name := range settings.defaults {
		if !used["default:"+name] {
			return nil, fmt.Errorf("default for unknown parameter %q of %v", name, def.Name)
		}
	}

	def.Construct = reflectConstructor(def.Name, reflect.ValueOf(ctor), info)
	return def, nil
}

// reflectConstructor adapts a constructor function to the Constructor signature.
func reflectConstructor(name TypeName, fn reflect.Value, info *constructorInfo) Constructor {
	return func(ctx context.Context, args []any) (any, error) {
		in := make([]reflect.Value, len(info.params))
		next := 0
		for i, paramType := range info.params {
			if paramType == contextType {
				in[i] = reflect.ValueOf(&ctx).Elem()
				continue
			}
			if next >= len(args) {
				return nil, contractViolation(name, "", fmt.Sprintf("constructor expects more than %d arguments", len(args)))
			}
			arg := args[next]
			next++
			if arg == nil {
				if !isNilable(paramType) {
					return nil, contractViolation(name, "", fmt.Sprintf("nil argument for %v at position %d", paramType, next-1))
				}
				in[i] = reflect.Zero(paramType)
				continue
			}
			argValue := reflect.ValueOf(arg)
			if !argValue.Type().AssignableTo(paramType) {
				return nil, contractViolation(name, "", fmt.Sprintf("argument of type %v at position %d is not assignable to %v", argValue.Type(), next-1, paramType))
			}
			in[i] = argValue
		}
		if next != len(args) {
			return nil, contractViolation(name, "", fmt.Sprintf("constructor expects %d arguments, got %d", next, len(args)))
		}

		results := fn.Call(in)
		if info.hasError && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	}
}

func contractViolation(name TypeName, param string, message string) *DependencyError {
	return &DependencyError{
		Kind:      KindContractViolation,
		Message:   message,
		TypeName:  name,
		Parameter: param,
	}
}
