package engine

import "github.com/dop251/goja"

// PromiseContinuationCallback receives a job queued by script through
// queueMicrotask. The callback owns task and should call it later, from
// the host task queue, with CallFunction.
type PromiseContinuationCallback func(task Ref, state any)

// PromiseRejectionCallback is told when a promise is rejected without a
// handler (handled false) and when a handler is attached later (handled
// true). promise and reason are borrowed for the duration of the call.
type PromiseRejectionCallback func(promise, reason Ref, handled bool, state any)

type promiseHooks struct {
	continuation      PromiseContinuationCallback
	continuationState any
	rejection         PromiseRejectionCallback
	rejectionState    any
}

const microtaskGlobal = "queueMicrotask"

// SetPromiseContinuationCallback installs cb as the sink of queueMicrotask.
// A nil cb removes queueMicrotask from the global object.
//
// Only queueMicrotask jobs reach cb. Continuations of native promises
// (then, catch, await) are drained by goja itself before the running
// script returns and are never posted to the host.
func (c *Context) SetPromiseContinuationCallback(cb PromiseContinuationCallback, state any) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	if cb == nil {
		c.promise.continuation, c.promise.continuationState = nil, nil
		if err := c.vm.GlobalObject().Delete(microtaskGlobal); err != nil {
			return c.fail(err)
		}
		return NoError
	}

	c.promise.continuation, c.promise.continuationState = cb, state
	err := c.vm.Set(microtaskGlobal, func(call goja.FunctionCall) goja.Value {
		task := call.Argument(0)
		if _, ok := goja.AssertFunction(task); !ok {
			panic(c.vm.NewTypeError("queueMicrotask: argument must be a function"))
		}
		h := c.refs.Insert(kindValue, &valueSlot{v: task})
		if h == 0 || c.promise.continuation == nil {
			return goja.Undefined()
		}
		c.promise.continuation(Ref(h), c.promise.continuationState)
		return goja.Undefined()
	})
	if err != nil {
		return c.fail(err)
	}
	return NoError
}

// SetHostPromiseRejectionTracker installs cb for rejection tracking. A nil
// cb disables tracking.
func (c *Context) SetHostPromiseRejectionTracker(cb PromiseRejectionCallback, state any) ErrorCode {
	if code := c.enterAny(); code != NoError {
		return code
	}
	c.promise.rejection, c.promise.rejectionState = cb, state
	if cb == nil {
		c.vm.SetPromiseRejectionTracker(nil)
		return NoError
	}

	c.vm.SetPromiseRejectionTracker(func(p *goja.Promise, op goja.PromiseRejectionOperation) {
		hook, st := c.promise.rejection, c.promise.rejectionState
		if hook == nil {
			return
		}
		promise := c.refs.Insert(kindValue, &valueSlot{v: c.vm.ToValue(p)})
		result := p.Result()
		if result == nil {
			result = goja.Undefined()
		}
		reason := c.refs.Insert(kindValue, &valueSlot{v: result})
		defer func() {
			c.refs.Release(promise)
			c.refs.Release(reason)
		}()
		hook(Ref(promise), Ref(reason), op == goja.PromiseRejectionHandle, st)
	})
	return NoError
}
