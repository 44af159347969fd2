package autowire

import (
	"context"
	"testing"
)

func BenchmarkCreateSimple(b *testing.B) {
	reg := NewRegistry()
	reg.MustProvide(newTestA).MustProvide(newTestB, Named("a"))
	injector := New(reg)
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = injector.Create(ctx, TypeOf[testB](), nil)
	}
}

func BenchmarkCreateComplex(b *testing.B) {
	cfg := NewConfig()
	_ = cfg.SetTypePreference(TypeOf[Level2](), TypeOf[Level2Preference]())
	injector := New(newBenchmarkRegistry(), WithConfig(cfg))
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = injector.Create(ctx, TypeOf[Complex](), nil)
	}
}

func BenchmarkCreateCompiled(b *testing.B) {
	g, err := NewGeneratedInjector(New(NewRegistry()), func() (map[TypeName]FactorySource, error) {
		return map[TypeName]FactorySource{
			TypeOf[testB](): FactoryInstance(FactoryFunc(func(context.Context, Container, Params) (any, error) {
				return newTestB(newTestA()), nil
			})),
		}, nil
	})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		_, _ = g.Create(ctx, TypeOf[testB](), nil)
	}
}

func newBenchmarkRegistry() *Registry {
	reg := NewRegistry()
	reg.MustProvide(func() *Level2 { return &Level2{} }).
		MustProvide(func() *Level2Preference { return &Level2Preference{} }).
		MustProvide(func(dep level2er) *Level1 { return &Level1{Dep: dep} },
			Named("dep"), Hint("dep", TypeOf[Level2]())).
		MustProvide(func(dep level2er) *AdditionalLevel1 { return &AdditionalLevel1{Dep: dep} },
			Named("dep"), Hint("dep", TypeOf[Level2]())).
		MustProvide(func(dep *Level1, dep2 *AdditionalLevel1) *Complex { return &Complex{Dep: dep, Dep2: dep2} },
			Named("dep", "dep2"))
	return reg
}
