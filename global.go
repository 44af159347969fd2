package autowire

import (
	"context"
	"fmt"
	"log/slog"
)

type TimingMode int

const (
	// TimingDisable turns construction timing off.
	TimingDisable TimingMode = iota

	// TimingConstruction starts a timing context for every type that is constructed. The caller's
	// context must carry a timing root (timing.Root) for the results to be collected. This shows
	// the exact construction tree along with where the time is spent.
	TimingConstruction
)

// Option is a functional option for configuring an Injector.
type Option func(*Injector)

// WithConfig sets the type preference model.
func WithConfig(config *Config) Option {
	return func(i *Injector) {
		i.config = config
	}
}

// WithContainer sets the hosting container that is asked for dependencies before they are
// constructed.
func WithContainer(c Container) Option {
	return func(i *Injector) {
		i.container = c
	}
}

// WithResolver replaces the default DependencyResolver.
func WithResolver(r Resolver) Option {
	return func(i *Injector) {
		i.resolver = r
	}
}

// WithLogger sets the logger for construction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Injector) {
		i.logger = logger
	}
}

// WithTiming enables construction timing.
func WithTiming(mode TimingMode) Option {
	return func(i *Injector) {
		i.timing = mode
	}
}

// Create builds an instance for the type name of T and returns it as T.
//
//	svc, err := autowire.Create[*ReportService](ctx, injector, nil)
func Create[T any](ctx context.Context, c Creator, params Params) (T, error) {
	var target T
	instance, err := c.Create(ctx, TypeOf[T](), params)
	if err != nil {
		return target, err
	}
	typed, ok := instance.(T)
	if !ok {
		return target, &DependencyError{
			Kind:     KindContractViolation,
			Message:  fmt.Sprintf("created %T, expected %T", instance, target),
			TypeName: TypeOf[T](),
		}
	}
	return typed, nil
}

// MustCreate behaves like Create except it panics if the instance cannot be created.
func MustCreate[T any](ctx context.Context, c Creator, params Params) T {
	result, err := Create[T](ctx, c, params)
	if err != nil {
		panic(err)
	}
	return result
}

// CreateNamed builds an instance of name and returns it as T. Use it for aliases and for types
// registered under a custom name.
func CreateNamed[T any](ctx context.Context, c Creator, name TypeName, params Params) (T, error) {
	var target T
	instance, err := c.Create(ctx, name, params)
	if err != nil {
		return target, err
	}
	typed, ok := instance.(T)
	if !ok {
		return target, &DependencyError{
			Kind:     KindContractViolation,
			Message:  fmt.Sprintf("created %T, expected %T", instance, target),
			TypeName: name,
		}
	}
	return typed, nil
}
