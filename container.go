package autowire

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is wrapped by containers that cannot supply a requested name.
var ErrNotFound = errors.New("not found in container")

// Container is the hosting service container consulted for dependencies. Has reports whether the
// container can supply an instance without further work; Get returns it. The injector always asks
// Has before treating the container as the source of a dependency and never modifies it.
type Container interface {
	Has(name TypeName) bool
	Get(ctx context.Context, name TypeName) (any, error)
}

// ContainerType is the type name under which a dependency on the container itself is requested.
// When the container does not hold an instance for it, the container is injected.
var ContainerType = TypeOf[Container]()

// DefaultContainer keeps an instance cache in front of a Creator. A cache miss creates the instance
// and caches it, so every Get for a name returns the same instance. Set as the hosting container of
// an Injector, it makes every dependency the injector builds a shared instance.
//
//	injector := autowire.New(registry)
//	container := autowire.NewDefaultContainer(injector)
//	injector.SetContainer(container)
type DefaultContainer struct {
	creator   Creator
	lock      sync.Mutex
	instances map[TypeName]any
}

// NewDefaultContainer creates an empty container that builds missing instances with creator.
func NewDefaultContainer(creator Creator) *DefaultContainer {
	return &DefaultContainer{
		creator:   creator,
		instances: map[TypeName]any{},
	}
}

// SetInstance stores a pre-built instance under name.
func (c *DefaultContainer) SetInstance(name TypeName, instance any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.instances[name] = instance
}

// Has reports whether an instance for name is cached or can be created. The container itself is
// always available under ContainerType.
func (c *DefaultContainer) Has(name TypeName) bool {
	if c.Cached(name) {
		return true
	}
	return c.creator != nil && c.creator.CanCreate(name)
}

// Cached reports whether an instance for name is already held.
func (c *DefaultContainer) Cached(name TypeName) bool {
	if name == ContainerType {
		return true
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.instances[name]
	return ok
}

// Get returns the cached instance for name, creating and caching it on a miss. The creator runs
// outside the lock because it may call back into the container.
func (c *DefaultContainer) Get(ctx context.Context, name TypeName) (any, error) {
	if name == ContainerType {
		return c, nil
	}
	c.lock.Lock()
	instance, ok := c.instances[name]
	c.lock.Unlock()
	if ok {
		return instance, nil
	}

	if c.creator == nil || !c.creator.CanCreate(name) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, name)
	}
	instance, err := c.creator.Create(ctx, name, nil)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if existing, ok := c.instances[name]; ok {
		return existing, nil
	}
	c.instances[name] = instance
	return instance, nil
}
