package testutil

import "github.com/refinery29/chassis"

// Module is the catalog module holding the example types.
const Module = "example"

// NewCatalog returns a catalog with every example type registered under Module.
func NewCatalog() *chassis.Catalog {
	c := chassis.NewCatalog()
	RegisterExamples(c)
	return c
}

// RegisterExamples registers the example types on c.
func RegisterExamples(c *chassis.Catalog) {
	c.MustRegister(Module, "Foo", NewFoo)
	c.MustRegister(Module, "Bar", NewBar, chassis.Params("foo"))
	c.MustRegister(Module, "Baz", NewBaz)
	c.MustRegister(Module, "Qux", NewQux, chassis.Params("foo", "bar", "baz"))
	c.MustRegister(Module, "Spam", NewSpam,
		chassis.Params("ham", "eggs"),
		chassis.Defaults(map[string]any{"ham": nil, "eggs": nil}),
		chassis.MethodParams("SetHam", "ham"),
		chassis.MethodParams("SetEggs", "eggs"))
	c.MustRegister(Module, "Factory", NewFactory,
		chassis.MethodParams("GetSpam", "ham", "eggs"))
	c.MustRegister(Module, "Wibble", NewWibble)
	c.MustRegister(Module, "Wobble", NewWobble,
		chassis.Params("foo", "bar", "baz", "spam"),
		chassis.Defaults(map[string]any{"foo": nil, "bar": nil, "baz": nil, "spam": nil}))
	c.MustRegister(Module, "Weeble", NewWeeble, chassis.Params("config"))
	c.MustRegister(Module, "TestLogger", NewTestLogger, chassis.Params("config"))
	c.MustRegister(Module, "VariadicLogger", NewVariadicLogger)
	c.MustRegister(Module, "Counter", NewCounter,
		chassis.Params("start"),
		chassis.Defaults(map[string]any{"start": 0}),
		chassis.MethodParams("Add", "n"))
	c.MustRegister(Module, "Broken", NewBroken)
	c.MustRegister(Module, "Panicking", NewPanicking)
}

// ExampleYAML wires every example type together. It has no parameters
// section, so the whole document is the service map.
const ExampleYAML = `
foo:
  module: example
  class: Foo
bar:
  module: example
  class: Bar
  args: ["@foo"]
baz:
  module: example
  class: Baz
qux:
  module: example
  class: Qux
  args: ["@foo", "@bar", "@baz"]
spam:
  module: example
  class: Spam
  calls:
    - method: SetHam
      args: ["ham!"]
    - method: SetEggs
      kwargs:
        eggs: eggz
wobble:
  module: example
  class: Wobble
  kwargs:
    foo: "@foo"
    bar: "@bar"
    baz: "@baz"
    spam: "@spam"
`

// ExampleServices is ExampleYAML as decoded data.
func ExampleServices() map[string]any {
	return map[string]any{
		"foo": map[string]any{"module": Module, "class": "Foo"},
		"bar": map[string]any{"module": Module, "class": "Bar", "args": []any{"@foo"}},
		"baz": map[string]any{"module": Module, "class": "Baz"},
		"qux": map[string]any{"module": Module, "class": "Qux", "args": []any{"@foo", "@bar", "@baz"}},
		"spam": map[string]any{
			"module": Module,
			"class":  "Spam",
			"calls": []any{
				map[string]any{"method": "SetHam", "args": []any{"ham!"}},
				map[string]any{"method": "SetEggs", "kwargs": map[string]any{"eggs": "eggz"}},
			},
		},
		"wobble": map[string]any{
			"module": Module,
			"class":  "Wobble",
			"kwargs": map[string]any{"foo": "@foo", "bar": "@bar", "baz": "@baz", "spam": "@spam"},
		},
	}
}
