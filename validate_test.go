package autowire

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CleanConfiguration(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetAlias("Greeter.Alias", TypeOf[testGreeter]()))
	require.NoError(t, cfg.SetTypePreference(TypeOf[Level2](), TypeOf[Level2Preference]()))
	require.NoError(t, cfg.SetParameter(TypeOf[Level1](), "dep", Ref(TypeOf[Level2Alternative]())))
	injector := New(newTestRegistry(t), WithConfig(cfg))

	assert.NoError(t, injector.Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetAlias("Dangling", "Nowhere"))
	require.NoError(t, cfg.SetAlias("Abstract.Alias", TypeOf[level2er]()))
	require.NoError(t, cfg.SetTypePreference(TypeOf[Level2](), "Missing.Global"))
	require.NoError(t, cfg.SetTypePreference(TypeOf[Level2](), "Missing.Local", TypeOf[Level1]()))
	require.NoError(t, cfg.SetParameter(TypeOf[Level1](), "dep", Ref("Missing.Forced")))
	injector := New(newTestRegistry(t), WithConfig(cfg))

	err := injector.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	message := err.Error()
	for _, expected := range []string{"Dangling", "Abstract.Alias", "Missing.Global", "Missing.Local", "Missing.Forced"} {
		assert.Contains(t, message, expected)
	}

	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
}

func TestValidate_ContainerSuppliedTypesAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.SetTypePreference(TypeOf[Level2](), "FromContainer"))
	container := &mapContainer{instances: map[TypeName]any{"FromContainer": &Level2{}}}

	injector := New(newTestRegistry(t), WithConfig(cfg))
	assert.Error(t, injector.Validate())

	injector.SetContainer(container)
	assert.NoError(t, injector.Validate())
}

func TestInvoke(t *testing.T) {
	injector := New(newTestRegistry(t))

	t.Run("dependencies created", func(t *testing.T) {
		var seen *testB
		err := Invoke(context.Background(), injector, func(ctx context.Context, b *testB, c *Complex) error {
			require.NotNil(t, ctx)
			require.NotNil(t, c)
			seen = b
			return nil
		})
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.NotNil(t, seen.A)
	})

	t.Run("function error returned", func(t *testing.T) {
		expected := errors.New("invalid")
		err := Invoke(context.Background(), injector, func(b *testB) error {
			return expected
		})
		assert.Equal(t, expected, err)
	})

	t.Run("dependency failure", func(t *testing.T) {
		err := Invoke(context.Background(), injector, func(g *testGreeter) error {
			return nil
		})
		assert.ErrorIs(t, err, ErrMissingProperty)
	})

	t.Run("not a validator", func(t *testing.T) {
		assert.Error(t, Invoke(context.Background(), injector, "nope"))
		assert.Error(t, Invoke(context.Background(), injector, func() {}))
		assert.Error(t, Invoke(context.Background(), injector, func() (int, error) { return 0, nil }))
	})
}
