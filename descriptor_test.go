package chassis_test

import (
	"testing"

	"github.com/refinery29/chassis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDescriptor_Defaults(t *testing.T) {
	d, err := chassis.DecodeDescriptor(map[string]any{"module": "m", "class": "Foo"})
	require.NoError(t, err)

	assert.Equal(t, "m", d.Module)
	assert.Equal(t, "Foo", d.Class)
	assert.Equal(t, chassis.Seq{}, d.Args)
	assert.Equal(t, chassis.Map{}, d.Kwargs)
	assert.Equal(t, chassis.Seq{}, d.FactoryArgs)
	assert.Equal(t, chassis.Map{}, d.FactoryKwargs)
	assert.False(t, d.Static)
	assert.Empty(t, d.Calls)
	assert.Empty(t, d.FactoryMethod)
}

func TestDecodeDescriptor_AllFields(t *testing.T) {
	d, err := chassis.DecodeDescriptor(map[string]any{
		"module":         "m",
		"class":          "A",
		"args":           []any{"@b", 1},
		"kwargs":         map[string]any{"name": "$n"},
		"factory-method": "Build",
		"factory-args":   []any{"$n"},
		"factory-kwargs": map[string]any{"x": 2},
		"static":         false,
		"calls": []any{
			map[string]any{"method": "Start"},
			map[string]any{"method": "Add", "args": []any{3}, "kwargs": map[string]any{"k": "v"}},
		},
		"description": "unknown fields are ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, chassis.Seq{chassis.ServiceRef("b"), chassis.Literal{Value: 1}}, d.Args)
	assert.Equal(t, chassis.Map{"name": chassis.ScalarRef("n")}, d.Kwargs)
	assert.Equal(t, "Build", d.FactoryMethod)
	assert.Equal(t, chassis.Seq{chassis.ScalarRef("n")}, d.FactoryArgs)
	assert.Equal(t, chassis.Map{"x": chassis.Literal{Value: 2}}, d.FactoryKwargs)
	require.Len(t, d.Calls, 2)
	assert.Equal(t, chassis.Call{Method: "Start", Args: chassis.Seq{}, Kwargs: chassis.Map{}}, d.Calls[0])
	assert.Equal(t, "Add", d.Calls[1].Method)
	assert.Equal(t, chassis.Seq{chassis.Literal{Value: 3}}, d.Calls[1].Args)
}

func TestDecodeDescriptor_NullFieldsUseDefaults(t *testing.T) {
	d, err := chassis.DecodeDescriptor(map[string]any{
		"module": "m", "class": nil, "args": nil, "kwargs": nil, "static": nil, "calls": nil,
	})
	require.NoError(t, err)
	assert.Empty(t, d.Class)
	assert.Empty(t, d.Args)
	assert.False(t, d.Static)
}

func TestDecodeDescriptor_ShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{name: "module not a string", raw: map[string]any{"module": 1}, field: "module"},
		{name: "class not a string", raw: map[string]any{"module": "m", "class": []any{}}, field: "class"},
		{name: "args not a sequence", raw: map[string]any{"module": "m", "args": "@foo"}, field: "args"},
		{name: "kwargs not a mapping", raw: map[string]any{"module": "m", "kwargs": []any{"@foo"}}, field: "kwargs"},
		{name: "factory-args not a sequence", raw: map[string]any{"module": "m", "factory-args": 1}, field: "factory-args"},
		{name: "factory-kwargs not a mapping", raw: map[string]any{"module": "m", "factory-kwargs": "x"}, field: "factory-kwargs"},
		{name: "static not a bool", raw: map[string]any{"module": "m", "static": "yes"}, field: "static"},
		{name: "calls not a sequence", raw: map[string]any{"module": "m", "calls": map[string]any{}}, field: "calls"},
		{name: "call not a mapping", raw: map[string]any{"module": "m", "calls": []any{"Start"}}, field: "calls[0]"},
		{
			name:  "call args not a sequence",
			raw:   map[string]any{"module": "m", "calls": []any{map[string]any{"method": "x"}, map[string]any{"method": "y", "args": 1}}},
			field: "calls[1].args",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chassis.DecodeDescriptor(tt.raw)
			require.Error(t, err)
			assert.True(t, chassis.IsInvalidConfiguration(err))

			var cfgErr chassis.InvalidConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestDecodeDescriptor_TypedContainers(t *testing.T) {
	d, err := chassis.DecodeDescriptor(map[string]any{
		"module": "m",
		"class":  "A",
		"args":   []string{"@a", "b"},
		"kwargs": map[string]string{"k": "$v"},
	})
	require.NoError(t, err)
	assert.Equal(t, chassis.Seq{chassis.ServiceRef("a"), chassis.Literal{Value: "b"}}, d.Args)
	assert.Equal(t, chassis.Map{"k": chassis.ScalarRef("v")}, d.Kwargs)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := chassis.DecodeConfig(map[string]any{
		"foo": map[string]any{"module": "m", "class": "Foo"},
		"bar": map[string]any{"module": "m", "class": "Bar", "args": []any{"@foo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, cfg.Names())
	assert.Equal(t, chassis.Seq{chassis.ServiceRef("foo")}, cfg["bar"].Args)
}

func TestDecodeConfig_ErrorsNameTheService(t *testing.T) {
	_, err := chassis.DecodeConfig(map[string]any{
		"ok":  map[string]any{"module": "m", "class": "Foo"},
		"bad": map[string]any{"module": "m", "args": map[string]any{}},
	})
	require.Error(t, err)

	var cfgErr chassis.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad", cfgErr.Service)
	assert.Equal(t, "args", cfgErr.Field)
	assert.Contains(t, err.Error(), `service "bad"`)

	_, err = chassis.DecodeConfig(map[string]any{"scalar": "not a descriptor"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scalar", cfgErr.Service)
}
