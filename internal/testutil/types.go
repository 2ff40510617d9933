package testutil

import (
	"errors"
	"fmt"

	"github.com/refinery29/chassis"
)

// Example service types. They mirror the shapes a configuration can wire:
// plain constructors, constructors with dependencies, keyword parameters with
// defaults, factory methods, post-construction calls and catch-all arguments.

type Foo struct{}

func NewFoo() *Foo { return &Foo{} }

func (f *Foo) Value() string { return "foo" }

type Bar struct {
	foo *Foo
}

func NewBar(foo *Foo) *Bar { return &Bar{foo: foo} }

func (b *Bar) Foo() *Foo { return b.foo }

func (b *Bar) Value() string { return b.foo.Value() + "bar" }

type Baz struct{}

func NewBaz() *Baz { return &Baz{} }

func (b *Baz) Value() string { return "baz" }

type Qux struct {
	foo *Foo
	bar *Bar
	baz *Baz
}

func NewQux(foo *Foo, bar *Bar, baz *Baz) *Qux {
	return &Qux{foo: foo, bar: bar, baz: baz}
}

func (q *Qux) Value() string {
	return q.foo.Value() + q.bar.Value() + q.baz.Value() + "qux"
}

// Spam has two optional parameters and setters for both.
type Spam struct {
	Ham  any
	Eggs any
}

func NewSpam(ham, eggs any) *Spam { return &Spam{Ham: ham, Eggs: eggs} }

func (s *Spam) SetHam(ham any) { s.Ham = ham }

func (s *Spam) SetEggs(eggs any) { s.Eggs = eggs }

// Factory builds other services from its methods.
type Factory struct {
	built int
}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) GetFoo() *Foo {
	f.built++
	return NewFoo()
}

func (f *Factory) GetSpam(ham, eggs any) *Spam {
	f.built++
	return NewSpam(ham, eggs)
}

func (f *Factory) Built() int { return f.built }

type Wibble struct {
	Value string
}

func NewWibble() *Wibble { return &Wibble{Value: "webble"} }

// Wobble takes every dependency by keyword.
type Wobble struct {
	Foo  *Foo
	Bar  *Bar
	Baz  *Baz
	Spam *Spam
}

func NewWobble(foo *Foo, bar *Bar, baz *Baz, spam *Spam) *Wobble {
	return &Wobble{Foo: foo, Bar: bar, Baz: baz, Spam: spam}
}

// Weeble looks values up in its configuration.
type Weeble struct {
	config map[string]any
}

func NewWeeble(config map[string]any) *Weeble { return &Weeble{config: config} }

func (w *Weeble) Find(key string) (any, error) {
	v, ok := w.config[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	return v, nil
}

// TestLogger keeps its first positional argument as its configuration and
// collects everything else.
type TestLogger struct {
	Config map[string]any
	Extra  []any
	Named  chassis.Kwargs
}

func NewTestLogger(config map[string]any, named chassis.Kwargs) *TestLogger {
	return &TestLogger{Config: config, Named: named}
}

func NewVariadicLogger(config map[string]any, extra ...any) *TestLogger {
	return &TestLogger{Config: config, Extra: extra}
}

// Counter records the order of calls made on it.
type Counter struct {
	Calls []string
	Total int
}

func NewCounter(start int) *Counter { return &Counter{Total: start} }

func (c *Counter) Add(n int) {
	c.Calls = append(c.Calls, fmt.Sprintf("add %d", n))
	c.Total += n
}

func (c *Counter) Fail() error { return ErrBroken }

func (c *Counter) Reset() error {
	c.Calls = append(c.Calls, "reset")
	c.Total = 0
	return nil
}

// ErrBroken is returned by NewBroken and Counter.Fail.
var ErrBroken = errors.New("broken on purpose")

type Broken struct{}

func NewBroken() (*Broken, error) { return nil, ErrBroken }

func NewPanicking() *Broken { panic("constructor exploded") }

