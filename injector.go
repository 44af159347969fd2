package autowire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gburgyan/go-timing"
)

// Params are explicit constructor arguments keyed by parameter name, or by decimal position.
// They take precedence over everything the resolver would supply and are passed through verbatim.
type Params map[string]any

func (p Params) lookup(param Parameter) (any, bool) {
	if p == nil {
		return nil, false
	}
	if value, ok := p[param.Name]; ok {
		return value, true
	}
	value, ok := p[strconv.Itoa(param.Position)]
	return value, ok
}

// Creator is implemented by everything that can build instances by type name.
type Creator interface {
	CanCreate(name TypeName) bool
	Create(ctx context.Context, name TypeName, params Params) (any, error)
}

// Injector is the construction engine. It resolves a type name through the configured aliases,
// classifies the constructor parameters with a Resolver, obtains every dependency from the hosting
// container or by constructing it recursively, and finally calls the constructor.
//
// Each constructor parameter is supplied by the first of:
//
//   - an explicit argument passed to Create, by name or decimal position
//   - a literal or forced type configured for the requested type (an alias entry first, then the
//     entries of the types it stands for)
//   - for a dependency parameter, the declared type after the requested type's preference, then
//     the global preference. The hosting container is asked first if it already holds an instance,
//     the type is constructed otherwise, and an optional parameter falls back to its default.
//     When nothing else can supply it, the container is asked as a last resort.
//   - the declared default
//
// Anything else fails with ErrMissingProperty.
//
// Configuration may be changed at any time: a construction reads the snapshot that was current
// when its top-level Create call started.
type Injector struct {
	definitions Definitions
	config      *Config
	resolver    Resolver
	container   Container
	logger      *slog.Logger
	timing      TimingMode
}

// New creates an Injector over the given definitions.
func New(definitions Definitions, opts ...Option) *Injector {
	i := &Injector{
		definitions: definitions,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	if i.config == nil {
		i.config = NewConfig(WithConfigLogger(i.logger))
	}
	if i.resolver == nil {
		i.resolver = DependencyResolver{}
	}
	return i
}

// Config returns the type preference model used by the injector.
func (i *Injector) Config() *Config {
	return i.config
}

// Definitions returns the class definitions used by the injector.
func (i *Injector) Definitions() Definitions {
	return i.definitions
}

// Container returns the hosting container, which may be nil.
func (i *Injector) Container() Container {
	return i.container
}

// SetContainer replaces the hosting container. Like configuration changes, this must not be done
// while constructions are running.
func (i *Injector) SetContainer(c Container) {
	i.container = c
}

// CanCreate reports whether name resolves to a registered type that can be instantiated. It never
// constructs anything.
func (i *Injector) CanCreate(name TypeName) bool {
	return i.canCreate(i.config.Snapshot(), name)
}

func (i *Injector) canCreate(prefs Preferences, name TypeName) bool {
	_, _, err := i.lookupClass(prefs, name)
	return err == nil
}

// lookupClass resolves name to a concrete, instantiable class definition.
func (i *Injector) lookupClass(prefs Preferences, name TypeName) (TypeName, *ClassDefinition, error) {
	class, err := prefs.ResolveAlias(name)
	if err != nil {
		return "", nil, &DependencyError{
			Kind:        KindClassNotFound,
			Message:     "invalid alias",
			TypeName:    name,
			SourceError: err,
		}
	}
	def, ok := i.definitions.ClassDefinition(class)
	if !ok {
		return "", nil, &DependencyError{
			Kind:     KindClassNotFound,
			Message:  "class not found",
			TypeName: name,
		}
	}
	if def.Abstract || def.Construct == nil {
		return "", nil, &DependencyError{
			Kind:     KindClassNotFound,
			Message:  fmt.Sprintf("class %v is not instantiable", class),
			TypeName: name,
		}
	}
	return class, def, nil
}

// Create builds an instance of name. Every dependency is resolved recursively. Explicit params are
// used as given for the parameters they name.
//
// A top-level call starts a new construction chain. Calls made with a context handed out during a
// construction, for instance from a hosting container that falls back to this injector, continue
// that chain, so a cycle through the container is still detected.
func (i *Injector) Create(ctx context.Context, name TypeName, params Params) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, state := i.enterCallTree(ctx)
	return i.create(ctx, state, name, params)
}

func (i *Injector) create(ctx context.Context, state *constructionState, name TypeName, params Params) (any, error) {
	class, def, err := i.lookupClass(state.prefs, name)
	if err != nil {
		return nil, err
	}

	ctx, state, err = i.push(ctx, state, class)
	if err != nil {
		return nil, err
	}

	if i.timing == TimingConstruction {
		timingCtx, complete := timing.Start(ctx, string(class))
		defer complete()
		ctx = timingCtx
	}

	i.logger.Debug("constructing", "type", name, "class", class, "depth", state.depth)

	args, err := i.resolveArguments(ctx, state, name, def, params)
	if err != nil {
		return nil, err
	}

	instance, err := def.Construct(ctx, args)
	if err != nil {
		if _, ok := err.(*DependencyError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to construct %v: %w", class, err)
	}
	return instance, nil
}

// resolveArguments merges explicit params with the resolver's plans into the constructor arguments.
func (i *Injector) resolveArguments(ctx context.Context, state *constructionState, owner TypeName, def *ClassDefinition, params Params) ([]any, error) {
	args := make([]any, len(def.Parameters))
	if len(def.Parameters) == 0 {
		return args, nil
	}

	plans, err := i.resolver.Resolve(owner, def.Parameters, state.prefs)
	if err != nil {
		return nil, err
	}
	if len(plans) != len(def.Parameters) {
		return nil, contractViolation(owner, "",
			fmt.Sprintf("resolver returned %d plans for %d parameters", len(plans), len(def.Parameters)))
	}

	for idx, param := range def.Parameters {
		if value, ok := params.lookup(param); ok {
			args[idx] = value
			continue
		}

		value, err := i.planValue(ctx, state, owner, param, plans[idx])
		if err != nil {
			return nil, err
		}
		if !assignable(value, param.GoType) {
			return nil, contractViolation(owner, param.Name,
				fmt.Sprintf("resolved value of type %T is not assignable to %v", value, param.GoType))
		}
		args[idx] = value
	}
	return args, nil
}

// planValue produces the value for one parameter from its plan.
func (i *Injector) planValue(ctx context.Context, state *constructionState, owner TypeName, param Parameter, plan Plan) (any, error) {
	switch plan.Kind {
	case PlanLiteral:
		switch plan.Value.(type) {
		case Plan, *Plan, TypeRef, *TypeRef:
			return nil, contractViolation(owner, param.Name,
				fmt.Sprintf("literal plan carries an injection marker %T", plan.Value))
		}
		return plan.Value, nil
	case PlanNeedsType:
		return i.injectType(ctx, state, owner, param, plan)
	case PlanUnresolvable:
		return nil, missingProperty(owner, param)
	}
	return nil, contractViolation(owner, param.Name, fmt.Sprintf("unexpected plan kind %v", plan.Kind))
}

// injectType supplies an instance of plan.Type. The hosting container is asked first so that the
// instances it manages are shared; otherwise the type is constructed by this injector.
func (i *Injector) injectType(ctx context.Context, state *constructionState, owner TypeName, param Parameter, plan Plan) (any, error) {
	target := plan.Type
	c := i.container

	if c != nil {
		if c.Has(target) {
			value, err := c.Get(ctx, target)
			if err != nil {
				return nil, undefinedReference(owner, param, target, err)
			}
			return value, nil
		}
		if target == ContainerType {
			return c, nil
		}
	}

	if i.canCreate(state.prefs, target) {
		return i.create(ctx, state, target, nil)
	}

	if plan.Optional {
		i.logger.Debug("optional dependency unavailable, using default",
			"type", owner, "parameter", param.Name, "dependency", target)
		return param.Default, nil
	}

	if c != nil {
		i.logger.Debug("delegating dependency to container",
			"type", owner, "parameter", param.Name, "dependency", target)
		value, err := c.Get(ctx, target)
		if err != nil {
			return nil, undefinedReference(owner, param, target, err)
		}
		return value, nil
	}

	return nil, missingProperty(owner, param)
}

func missingProperty(owner TypeName, param Parameter) *DependencyError {
	message := "could not resolve value for parameter"
	if param.Type != "" {
		message = fmt.Sprintf("could not resolve value for parameter of type %v", param.Type)
	}
	return &DependencyError{
		Kind:      KindMissingProperty,
		Message:   message,
		TypeName:  owner,
		Parameter: param.Name,
	}
}

// undefinedReference wraps a container failure. A cycle detected behind the container is reported
// as the cycle it is.
func undefinedReference(owner TypeName, param Parameter, target TypeName, err error) error {
	if errors.Is(err, ErrCircularDependency) {
		return err
	}
	return &DependencyError{
		Kind:        KindUndefinedReference,
		Message:     fmt.Sprintf("container failed to supply %v", target),
		TypeName:    owner,
		Parameter:   param.Name,
		SourceError: err,
	}
}
