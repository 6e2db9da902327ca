package engine

import "github.com/dop251/goja"

// Script snippets for operators goja does not expose on *goja.Object.
const (
	helperHas        = `(function (o, k) { return k in o; })`
	helperInstanceOf = `(function (o, c) { return o instanceof c; })`
	helperOwnNames   = `(function (names) { return function (o) { return names(o); }; })(Object.getOwnPropertyNames)`
)

type helpers struct {
	has        goja.Callable
	instanceOf goja.Callable
	ownNames   goja.Callable
}

// helper compiles src on first use and caches the callable in slot.
func (c *Context) helper(slot *goja.Callable, src string) (goja.Callable, ErrorCode) {
	if *slot != nil {
		return *slot, NoError
	}
	v, err := c.vm.RunString(src)
	if err != nil {
		return nil, c.fail(err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, ErrorFatal
	}
	*slot = fn
	return fn, NoError
}
