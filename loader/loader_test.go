package loader

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/gburgyan/go-autowire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

const document = `
aliases:
  Store.Primary: S3Store
preferences:
  Store: Store.Primary
types:
  ReportService:
    preferences:
      Store: MemoryStore
    parameters:
      bucket: reports
      retries: 3
      cache: {$type: RedisCache}
      "ReportService:__construct:bucket": legacy
Store.Backup:
  typeOf: S3Store
  parameters:
    region: eu-west-1
version: 7
metadata:
  owner: platform
`

func TestLoader_Apply(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := autowire.NewConfig(autowire.WithConfigLogger(logger))

	doc, err := Parse([]byte(document))
	require.NoError(t, err)
	require.NoError(t, New(nil, WithLogger(logger)).Apply(doc, cfg))

	resolved, err := cfg.ResolveAlias("Store.Primary")
	require.NoError(t, err)
	assert.Equal(t, autowire.TypeName("S3Store"), resolved)
	resolved, err = cfg.ResolveAlias("Store.Backup")
	require.NoError(t, err)
	assert.Equal(t, autowire.TypeName("S3Store"), resolved)

	assert.Equal(t, autowire.TypeName("Store.Primary"), cfg.PreferenceFor("Other", "Store"))
	assert.Equal(t, autowire.TypeName("MemoryStore"), cfg.PreferenceFor("ReportService", "Store"))

	value, ok := cfg.LiteralParameterFor("ReportService", "bucket")
	assert.True(t, ok)
	assert.Equal(t, "reports", value)
	value, _ = cfg.LiteralParameterFor("ReportService", "retries")
	assert.Equal(t, 3, value)
	value, _ = cfg.LiteralParameterFor("Store.Backup", "region")
	assert.Equal(t, "eu-west-1", value)

	forced, ok := cfg.ForcedTypeFor("ReportService", "cache")
	assert.True(t, ok)
	assert.Equal(t, autowire.TypeName("RedisCache"), forced)

	_, ok = cfg.LiteralParameterFor("ReportService", "ReportService:__construct:bucket")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "level=WARN")

	// unrecognised keys are ignored
	assert.Contains(t, logs.String(), "key=version")
	assert.Contains(t, logs.String(), "key=metadata")
	_, ok = cfg.Snapshot().Entry("metadata")
	assert.False(t, ok)
}

func TestLoader_JSON(t *testing.T) {
	cfg := autowire.NewConfig()
	doc, err := Parse([]byte(`{"aliases": {"A": "B"}, "C": {"parameters": {"d": {"$type": "E"}, "f": {"g": 1}}}}`))
	require.NoError(t, err)
	require.NoError(t, New(nil).Apply(doc, cfg))

	assert.True(t, cfg.IsAlias("A"))
	forced, ok := cfg.ForcedTypeFor("C", "d")
	assert.True(t, ok)
	assert.Equal(t, autowire.TypeName("E"), forced)

	value, ok := cfg.LiteralParameterFor("C", "f")
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"g": 1}, value)
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	URL := "mem://localhost/autowire/case001/config.yaml"
	require.NoError(t, fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader([]byte(document))))

	cfg := autowire.NewConfig()
	require.NoError(t, New(fs).Load(ctx, URL, cfg))
	assert.True(t, cfg.IsAlias("Store.Primary"))

	err := New(fs).Load(ctx, "mem://localhost/autowire/case001/missing.yaml", autowire.NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestLoader_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name     string
		document string
		invalid  bool
	}{
		{name: "not a document", document: "- a\n- b\n"},
		{name: "aliases not a mapping", document: "aliases: [a, b]\n"},
		{name: "alias target not a name", document: "aliases:\n  A: {b: c}\n"},
		{name: "types not a mapping", document: "types: 5\n"},
		{name: "type entry not a mapping", document: "types:\n  A: 5\n"},
		{name: "typeOf not a string", document: "A:\n  typeOf: [x]\n"},
		{name: "parameters not a mapping", document: "A:\n  parameters: 5\n"},
		{name: "alias cycle", document: "aliases:\n  A: B\n  B: A\n", invalid: true},
		{name: "self alias", document: "A:\n  typeOf: A\n", invalid: true},
		{name: "preference cycle", document: "preferences:\n  X: Y\n  Y: X\n", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.document))
			if err == nil {
				err = New(nil).Apply(doc, autowire.NewConfig())
			}
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, autowire.ErrInvalidConfiguration)
			}
		})
	}
}

func TestLoader_WiresInjector(t *testing.T) {
	type engine struct{ kind string }
	type car struct{ engine *engine }

	reg := autowire.NewRegistry()
	reg.MustProvide(func(kind string) *engine { return &engine{kind: kind} }, autowire.Named("kind"))
	reg.MustProvide(func(e *engine) *car { return &car{engine: e} }, autowire.Named("engine"))

	engineName := autowire.TypeOf[engine]()
	carName := autowire.TypeOf[car]()
	doc, err := Parse([]byte("types:\n  " + string(engineName) + ":\n    parameters:\n      kind: diesel\n" +
		"aliases:\n  Car.Default: " + string(carName) + "\n"))
	require.NoError(t, err)

	cfg := autowire.NewConfig()
	require.NoError(t, New(nil).Apply(doc, cfg))
	injector := autowire.New(reg, autowire.WithConfig(cfg))
	require.NoError(t, injector.Validate())

	c, err := autowire.CreateNamed[*car](context.Background(), injector, "Car.Default", nil)
	require.NoError(t, err)
	assert.Equal(t, "diesel", c.engine.kind)
}
