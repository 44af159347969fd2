package autowire

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory builds one type without runtime signature analysis. Factories are normally produced by
// offline code generation.
type Factory interface {
	Create(ctx context.Context, c Container, params Params) (any, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, c Container, params Params) (any, error)

func (f FactoryFunc) Create(ctx context.Context, c Container, params Params) (any, error) {
	return f(ctx, c, params)
}

// FactoryRef identifies a factory that is built on first use through a FactoryRegistry.
type FactoryRef string

// FactorySource is one entry of a compiled factory table: either a factory instance or a reference
// to one.
type FactorySource struct {
	instance Factory
	ref      FactoryRef
}

// FactoryInstance makes a table entry from a ready factory.
func FactoryInstance(f Factory) FactorySource {
	return FactorySource{instance: f}
}

// FactoryReference makes a table entry that is materialised lazily.
func FactoryReference(ref FactoryRef) FactorySource {
	return FactorySource{ref: ref}
}

func (s FactorySource) String() string {
	if s.instance != nil {
		return fmt.Sprintf("instance %T", s.instance)
	}
	return fmt.Sprintf("reference %s", s.ref)
}

// FactoryLoader produces the compiled factory table. It is called once.
type FactoryLoader func() (map[TypeName]FactorySource, error)

// FactoryRegistry maps factory references to builders.
type FactoryRegistry struct {
	lock     sync.RWMutex
	builders map[FactoryRef]func() Factory
}

// NewFactoryRegistry creates an empty factory registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{builders: map[FactoryRef]func() Factory{}}
}

// Register adds a builder for ref.
func (r *FactoryRegistry) Register(ref FactoryRef, builder func() Factory) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.builders[ref] = builder
}

func (r *FactoryRegistry) builder(ref FactoryRef) (func() Factory, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	b, ok := r.builders[ref]
	return b, ok
}

var defaultFactories = NewFactoryRegistry()

// RegisterFactory adds a builder to the package default registry. Generated code calls this from
// init functions.
func RegisterFactory(ref FactoryRef, builder func() Factory) {
	defaultFactories.Register(ref, builder)
}

// GeneratedInjector decorates a Creator with a compiled factory table. Types with a factory entry are
// built by their factory and never reach the decorated creator; everything else is delegated.
type GeneratedInjector struct {
	inner     Creator
	container Container
	registry  *FactoryRegistry
	factories map[TypeName]FactorySource

	lock      sync.Mutex
	instances map[TypeName]Factory
}

// GeneratedOption configures a GeneratedInjector.
type GeneratedOption func(*GeneratedInjector)

// WithFactoryContainer sets the container handed to factories.
func WithFactoryContainer(c Container) GeneratedOption {
	return func(g *GeneratedInjector) {
		g.container = c
	}
}

// WithFactoryRegistry resolves factory references through r instead of the package default.
func WithFactoryRegistry(r *FactoryRegistry) GeneratedOption {
	return func(g *GeneratedInjector) {
		g.registry = r
	}
}

// NewGeneratedInjector loads the factory table and returns a ready decorator. Without a container
// the factories receive a DefaultContainer backed by the decorator itself.
func NewGeneratedInjector(inner Creator, load FactoryLoader, opts ...GeneratedOption) (*GeneratedInjector, error) {
	g := &GeneratedInjector{
		inner:     inner,
		registry:  defaultFactories,
		instances: map[TypeName]Factory{},
	}
	for _, opt := range opts {
		opt(g)
	}

	factories := map[TypeName]FactorySource{}
	if load != nil {
		loaded, err := load()
		if err != nil {
			return nil, &DependencyError{
				Kind:        KindInvalidConfiguration,
				Message:     "failed to load factory table",
				SourceError: err,
			}
		}
		for name, source := range loaded {
			if source.instance == nil && source.ref == "" {
				return nil, invalidConfig(name, "empty factory table entry")
			}
			factories[name] = source
		}
	}
	g.factories = factories

	if g.container == nil {
		g.container = NewDefaultContainer(g)
	}
	return g, nil
}

// Inner returns the decorated creator.
func (g *GeneratedInjector) Inner() Creator {
	return g.inner
}

// Container returns the container handed to factories.
func (g *GeneratedInjector) Container() Container {
	return g.container
}

// CanCreate is true for every type with a factory entry and otherwise asks the decorated creator.
func (g *GeneratedInjector) CanCreate(name TypeName) bool {
	if _, ok := g.factories[name]; ok {
		return true
	}
	return g.inner.CanCreate(name)
}

// Create builds name with its factory if there is one, otherwise the decorated creator does.
func (g *GeneratedInjector) Create(ctx context.Context, name TypeName, params Params) (any, error) {
	if _, ok := g.factories[name]; !ok {
		return g.inner.Create(ctx, name, params)
	}
	factory, err := g.factory(name)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if params == nil {
		params = Params{}
	}
	return factory.Create(ctx, g.container, params)
}

// factory returns the factory for name, materialising a reference at most once.
func (g *GeneratedInjector) factory(name TypeName) (Factory, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if f, ok := g.instances[name]; ok {
		return f, nil
	}
	source := g.factories[name]
	f := source.instance
	if f == nil {
		builder, ok := g.registry.builder(source.ref)
		if !ok {
			return nil, invalidConfig(name, fmt.Sprintf("unknown factory reference %s", source.ref))
		}
		f = builder()
		if f == nil {
			return nil, invalidConfig(name, fmt.Sprintf("factory reference %s produced no factory", source.ref))
		}
	}
	g.instances[name] = f
	return f, nil
}

// CompiledTypes returns the sorted names that have a factory entry.
func (g *GeneratedInjector) CompiledTypes() []TypeName {
	names := make([]TypeName, 0, len(g.factories))
	for name := range g.factories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
