package chassis_test

import (
	"fmt"
	"testing"

	"github.com/refinery29/chassis"
	"github.com/refinery29/chassis/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func exampleConfig(t testing.TB) chassis.Config {
	t.Helper()
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(testutil.ExampleYAML), &raw))
	cfg, err := chassis.DecodeConfig(raw)
	require.NoError(t, err)
	return cfg
}

func TestResolver_Nodes(t *testing.T) {
	r := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithClass("bar", "Bar", "@foo").
		Resolver()

	nodes := r.Nodes()
	assert.Equal(t, chassis.DependencySet{}, nodes["foo"])
	assert.Equal(t, chassis.NewSet("foo"), nodes["bar"])

	// callers get a copy
	nodes["foo"].Add("bar")
	assert.Empty(t, r.Nodes()["foo"])
}

func TestResolver_NodesFromYAML(t *testing.T) {
	r := chassis.NewResolver(testutil.NewCatalog(), exampleConfig(t), nil)
	nodes := r.Nodes()

	assert.Empty(t, nodes["baz"])
	assert.Empty(t, nodes["foo"])
	assert.Equal(t, chassis.NewSet("foo"), nodes["bar"])
	assert.Equal(t, chassis.NewSet("foo", "bar", "baz"), nodes["qux"])
	assert.Equal(t, chassis.NewSet("foo", "bar", "baz", "spam"), nodes["wobble"])
}

func TestDependencies_OnlyConstructorArguments(t *testing.T) {
	d, err := chassis.DecodeDescriptor(map[string]any{
		"module":         "m",
		"class":          "A",
		"args":           []any{"@a", []any{"@b", map[string]any{"x": "@c"}}, "$s", "plain"},
		"kwargs":         map[string]any{"k": "@d", "n": map[string]any{"deep": []any{"@a"}}},
		"factory-args":   []any{"@factory"},
		"factory-kwargs": map[string]any{"f": "@factory-kw"},
		"calls":          []any{map[string]any{"method": "M", "args": []any{"@call"}}},
	})
	require.NoError(t, err)

	deps := chassis.Dependencies(d)
	assert.Equal(t, []string{"a", "b", "c", "d"}, deps.Sorted())
	assert.True(t, deps.Equal(chassis.Dependencies(d)), "scanning twice yields the same set")
}

func TestResolver_ResolveSimple(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).WithClass("foo", "Foo").Resolve()

	assert.Equal(t, 1, registry.Len())
	testutil.AssertResolved[*testutil.Foo](t, registry, "foo")
}

func TestResolver_ResolveUsesBuiltDependencies(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithClass("bar", "Bar", "@foo").
		Resolve()

	foo := testutil.AssertResolved[*testutil.Foo](t, registry, "foo")
	bar := testutil.AssertResolved[*testutil.Bar](t, registry, "bar")
	assert.Same(t, foo, bar.Foo())
	assert.Equal(t, []string{"foo", "bar"}, registry.Order())
}

func TestResolver_ResolveExampleYAML(t *testing.T) {
	registry, err := chassis.NewResolver(testutil.NewCatalog(), exampleConfig(t), nil).Resolve()
	require.NoError(t, err)

	assert.Equal(t, 6, registry.Len())
	testutil.AssertResolved[*testutil.Foo](t, registry, "foo")
	testutil.AssertResolved[*testutil.Baz](t, registry, "baz")

	qux := testutil.AssertResolved[*testutil.Qux](t, registry, "qux")
	assert.Equal(t, "foofoobarbazqux", qux.Value())

	spam := testutil.AssertResolved[*testutil.Spam](t, registry, "spam")
	assert.Equal(t, "ham!", spam.Ham)
	assert.Equal(t, "eggz", spam.Eggs)

	wobble := testutil.AssertResolved[*testutil.Wobble](t, registry, "wobble")
	assert.Same(t, registry.MustGet("foo"), wobble.Foo)
	assert.Same(t, registry.MustGet("bar"), wobble.Bar)
	assert.Same(t, registry.MustGet("baz"), wobble.Baz)
	assert.Same(t, spam, wobble.Spam)
}

func TestResolver_FactoryMethodResult(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).
		WithService("a", map[string]any{
			"module":         testutil.Module,
			"class":          "Factory",
			"args":           []any{},
			"factory-method": "GetSpam",
			"factory-args":   []any{"$n", "$n"},
		}).
		WithScalar("n", 5).
		Resolve()

	spam := testutil.AssertResolved[*testutil.Spam](t, registry, "a")
	assert.Equal(t, 5, spam.Ham)
	_, err := chassis.Resolve[*testutil.Factory](registry, "a")
	assert.ErrorIs(t, err, chassis.ErrTypeMismatch)
}

func TestResolver_Static(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).
		WithService("module", map[string]any{"module": testutil.Module, "static": true}).
		WithService("ctor", map[string]any{"module": testutil.Module, "class": "Wibble", "static": true}).
		Resolve()

	module := testutil.AssertResolved[*chassis.Module](t, registry, "module")
	assert.Contains(t, module.Classes(), "Wibble")

	ctor := testutil.AssertResolved[func() *testutil.Wibble](t, registry, "ctor")
	assert.Equal(t, "webble", ctor().Value)
}

func TestResolver_ScalarNeverBecomesServiceRef(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).
		WithClass("y", "Foo").
		WithService("spam", map[string]any{"module": testutil.Module, "class": "Spam", "args": []any{"$x"}}).
		WithScalar("x", "@y").
		Resolve()

	spam := testutil.AssertResolved[*testutil.Spam](t, registry, "spam")
	assert.Equal(t, "@y", spam.Ham)
}

func TestResolver_Empty(t *testing.T) {
	registry, err := chassis.NewResolver(testutil.NewCatalog(), chassis.Config{}, nil).Resolve()
	require.NoError(t, err)
	assert.Zero(t, registry.Len())
}

func TestResolver_EveryNameOnce(t *testing.T) {
	// A chain and a fan-in over 30 services.
	b := testutil.NewConfigBuilder(t)
	b.WithClass("s0", "Foo")
	for i := 1; i < 30; i++ {
		b.WithService(fmt.Sprintf("s%d", i), map[string]any{
			"module": testutil.Module,
			"class":  "VariadicLogger",
			"args":   []any{map[string]any{}, fmt.Sprintf("@s%d", i-1), "@s0"},
		})
	}
	registry := b.Resolve()

	assert.Equal(t, 30, registry.Len())
	order := registry.Order()
	assert.Len(t, order, 30)
	for i := 1; i < 30; i++ {
		logger := testutil.AssertResolved[*testutil.TestLogger](t, registry, fmt.Sprintf("s%d", i))
		assert.Same(t, registry.MustGet(fmt.Sprintf("s%d", i-1)), logger.Extra[0])
	}
}

func TestResolver_CycleIsUnsatisfiableWithoutValidation(t *testing.T) {
	r := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithService("a", map[string]any{"module": testutil.Module, "class": "Bar", "args": []any{"@b"}}).
		WithService("b", map[string]any{"module": testutil.Module, "class": "Bar", "args": []any{"@a"}}).
		Resolver()

	registry, err := r.Resolve()
	assert.Nil(t, registry)
	unsat := testutil.AssertUnsatisfiable(t, err, "a", "b")
	assert.Equal(t, []string{"b"}, unsat.Remaining["a"])

	_, err = r.Validate()
	testutil.AssertCircularDependency(t, err, "a", "b")
}

func TestResolver_DanglingReference(t *testing.T) {
	r := testutil.NewConfigBuilder(t).
		WithClass("bar", "Bar", "@ghost").
		Resolver()

	_, err := r.Resolve()
	testutil.AssertUnsatisfiable(t, err, "bar")

	_, err = r.Validate()
	require.Error(t, err)
	var missing chassis.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ghost", missing.Dependency)
	assert.True(t, chassis.IsInvalidConfiguration(err))
}

func TestResolver_ErrorAbortsRun(t *testing.T) {
	r := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithClass("broken", "Broken").
		Resolver()

	registry, err := r.Resolve()
	assert.Nil(t, registry)
	testutil.AssertConstructionError(t, err, "broken", chassis.StageConstructor)
}

func TestResolver_EachRunIsIndependent(t *testing.T) {
	ids := []string{"first", "second"}
	r := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		Resolver(chassis.WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}))

	first, err := r.Resolve()
	require.NoError(t, err)
	second, err := r.Resolve()
	require.NoError(t, err)

	assert.Equal(t, "first", first.ID())
	assert.Equal(t, "second", second.ID())
	assert.NotSame(t, first.MustGet("foo"), second.MustGet("foo"))
}

func TestResolver_DefaultIDIsUUID(t *testing.T) {
	registry := testutil.NewConfigBuilder(t).Resolve()
	assert.Len(t, registry.ID(), 36)
}

func TestResolver_ValidateTree(t *testing.T) {
	r := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithClass("bar", "Bar", "@foo").
		Resolver()

	tree, err := r.Validate()
	require.NoError(t, err)
	assert.Equal(t, 2, tree.HeadCount())
	assert.Equal(t, "H(bar, [(foo)]), H(foo)", tree.String())
}

func TestResolver_Plan(t *testing.T) {
	r := chassis.NewResolver(testutil.NewCatalog(), exampleConfig(t), nil)

	plan, err := r.Plan()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"baz", "foo", "spam"},
		{"bar"},
		{"qux", "wobble"},
	}, plan)
}

func TestDetectCycles_SevenHeads(t *testing.T) {
	nodes := chassis.Nodes{
		"a": chassis.NewSet("f", "c"),
		"b": chassis.NewSet(),
		"c": chassis.NewSet("b"),
		"d": chassis.NewSet(),
		"e": chassis.NewSet("d"),
		"f": chassis.NewSet(),
		"g": chassis.NewSet("a"),
	}

	tree, err := chassis.DetectCycles(nodes)
	require.NoError(t, err)
	assert.Equal(t, 7, tree.HeadCount())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, tree.HeadNames())
}

func TestResolver_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	registry := testutil.NewConfigBuilder(t).
		WithClass("foo", "Foo").
		WithClass("bar", "Bar", "@foo").
		Resolve(chassis.WithLogger(zap.New(core)), chassis.WithIDGenerator(func() string { return "run-42" }))
	require.Equal(t, 2, registry.Len())

	assert.Equal(t, 1, logs.FilterMessage("resolution started").Len())
	assert.Equal(t, 2, logs.FilterMessage("resolution round").Len())
	assert.Equal(t, 2, logs.FilterMessage("service instantiated").Len())
	assert.Equal(t, 1, logs.FilterMessage("resolution finished").Len())

	for _, entry := range logs.All() {
		assert.Equal(t, "run-42", entry.ContextMap()["run"])
	}
}
