package chassis_test

import (
	"testing"

	"github.com/refinery29/chassis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceClassifier(t *testing.T) {
	tests := []struct {
		token   any
		scalar  bool
		service bool
	}{
		{token: "$port", scalar: true},
		{token: "@db", service: true},
		{token: "$", scalar: true},
		{token: "plain"},
		{token: ""},
		{token: "a$b"},
		{token: 42},
		{token: nil},
		{token: []any{"@db"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.scalar, chassis.IsScalarRef(tt.token), "IsScalarRef(%#v)", tt.token)
		assert.Equal(t, tt.service, chassis.IsServiceRef(tt.token), "IsServiceRef(%#v)", tt.token)
	}
}

func TestParseArg(t *testing.T) {
	arg := chassis.ParseArg([]any{
		"$host",
		"@db",
		"literal",
		8080,
		map[string]any{"nested": []any{"@cache", true}},
		[]string{"@a", "b"},
		nil,
	})

	assert.Equal(t, chassis.Seq{
		chassis.ScalarRef("host"),
		chassis.ServiceRef("db"),
		chassis.Literal{Value: "literal"},
		chassis.Literal{Value: 8080},
		chassis.Map{"nested": chassis.Seq{chassis.ServiceRef("cache"), chassis.Literal{Value: true}}},
		chassis.Seq{chassis.ServiceRef("a"), chassis.Literal{Value: "b"}},
		chassis.Literal{},
	}, arg)

	assert.Equal(t, `[$host, @db, "literal", 8080, {nested: [@cache, true]}, [@a, "b"], <nil>]`, arg.String())
	assert.Equal(t, chassis.Literal{Value: []byte("raw")}, chassis.ParseArg([]byte("raw")))
	assert.Equal(t, chassis.ServiceRef("x"), chassis.ParseArg(chassis.ServiceRef("x")))
}

func TestValue_RoundTrip(t *testing.T) {
	raw := []any{"$host", "@db", map[string]any{"k": []any{1, "v"}}}
	assert.Equal(t, raw, chassis.Value(chassis.ParseArg(raw)))
}

func TestServiceRefs(t *testing.T) {
	arg := chassis.ParseArg(map[string]any{
		"a": "@one",
		"b": []any{"@two", map[string]any{"c": "@three", "d": "$four"}},
		"e": "five",
	})

	assert.ElementsMatch(t, []string{"one", "two", "three"}, chassis.ServiceRefs(arg))
	assert.Equal(t, []string{"four"}, chassis.ScalarRefs(arg))
	assert.Empty(t, chassis.ServiceRefs(chassis.Literal{Value: "@not-parsed"}))
}

func TestSubstituteScalars(t *testing.T) {
	arg := chassis.ParseArg([]any{"$host", []any{"$port"}, map[string]any{"k": "$port"}, "@db", "plain"})

	out, err := chassis.SubstituteScalars(arg, chassis.Scalars{"host": "localhost", "port": 5432})
	require.NoError(t, err)

	assert.Equal(t, chassis.Seq{
		chassis.Literal{Value: "localhost"},
		chassis.Seq{chassis.Literal{Value: 5432}},
		chassis.Map{"k": chassis.Literal{Value: 5432}},
		chassis.ServiceRef("db"),
		chassis.Literal{Value: "plain"},
	}, out)

	// the input tree is untouched
	assert.Equal(t, chassis.ScalarRef("host"), arg.(chassis.Seq)[0])
}

func TestSubstituteScalars_Unresolved(t *testing.T) {
	_, err := chassis.SubstituteScalars(chassis.ParseArg([]any{map[string]any{"k": "$missing"}}), chassis.Scalars{})
	require.Error(t, err)
	assert.ErrorIs(t, err, chassis.ErrUnresolvedReference)
	assert.True(t, chassis.IsUnresolved(err))

	var refErr chassis.UnresolvedReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "missing", refErr.Name)
}

func TestSubstituteServices(t *testing.T) {
	registry := chassis.NewRegistry("test")
	require.NoError(t, registry.Register("db", "the-db"))

	out, err := chassis.SubstituteServices(chassis.ParseArg([]any{"@db", map[string]any{"x": "@db"}, "$left"}), registry)
	require.NoError(t, err)
	assert.Equal(t, []any{"the-db", map[string]any{"x": "the-db"}, "$left"}, chassis.Value(out))

	_, err = chassis.SubstituteServices(chassis.ServiceRef("ghost"), registry)
	assert.ErrorIs(t, err, chassis.ErrUnknownService)
}

func TestSubstitution_ScalarValueIsNeverReparsed(t *testing.T) {
	registry := chassis.NewRegistry("test")
	require.NoError(t, registry.Register("y", "service-y"))

	arg := chassis.ParseArg([]any{"$x"})
	scalared, err := chassis.SubstituteScalars(arg, chassis.Scalars{"x": "@y"})
	require.NoError(t, err)

	out, err := chassis.SubstituteServices(scalared, registry)
	require.NoError(t, err)
	assert.Equal(t, []any{"@y"}, chassis.Value(out))
}
