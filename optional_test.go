package autowire

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTracer interface {
	trace(string)
}

type testService struct {
	A      *testA
	Tracer testTracer
	U      *testUnregistered
}

func TestOptional_MissingDependencyIsNil(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustProvide(func(a *testA, tracer testTracer, u *testUnregistered) *testService {
		return &testService{A: a, Tracer: tracer, U: u}
	}, Named("a", "tracer", "u"), Optional("tracer"), Optional("u"))
	injector := New(reg)

	svc, err := Create[*testService](context.Background(), injector, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc.A)
	assert.Nil(t, svc.Tracer)
	assert.Nil(t, svc.U)
}

func TestOptional_ContainerNotUsedAsLastResort(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustProvide(func(u *testUnregistered) *testService {
		return &testService{U: u}
	}, Named("u"), Optional("u"))
	container := &mapContainer{instances: map[TypeName]any{}}
	injector := New(reg, WithContainer(container))

	svc, err := Create[*testService](context.Background(), injector, nil)
	require.NoError(t, err)
	assert.Nil(t, svc.U)
	assert.Empty(t, container.gets)
}

func TestOptional_ContainerInstanceStillUsed(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustProvide(func(u *testUnregistered) *testService {
		return &testService{U: u}
	}, Named("u"), Optional("u"))
	held := &testUnregistered{val: 4}
	container := &mapContainer{instances: map[TypeName]any{TypeOf[testUnregistered](): held}}
	injector := New(reg, WithContainer(container))

	svc, err := Create[*testService](context.Background(), injector, nil)
	require.NoError(t, err)
	assert.Same(t, held, svc.U)
}

func TestOptional_ConstructibleDependencyIsBuilt(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustProvide(func(a *testA) *testService {
		return &testService{A: a}
	}, Named("a"), Optional("a"))
	injector := New(reg)

	svc, err := Create[*testService](context.Background(), injector, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc.A)
}

func TestOptional_SelfReferenceIsStillACycle(t *testing.T) {
	reg := newTestRegistry(t)
	reg.MustProvide(func(self *testSelf) *testSelf {
		return &testSelf{Self: self}
	}, Named("self"), Optional("self"))
	injector := New(reg)

	_, err := Create[*testSelf](context.Background(), injector, nil)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestOptional_DefaultValueUsed(t *testing.T) {
	fallback := &testUnregistered{val: 11}
	reg := newTestRegistry(t)
	reg.MustProvide(func(u *testUnregistered) *testService {
		return &testService{U: u}
	}, Named("u"), Default("u", fallback))
	injector := New(reg)

	svc, err := Create[*testService](context.Background(), injector, nil)
	require.NoError(t, err)
	assert.Same(t, fallback, svc.U)
}
