package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
)

func (r *Runtime) setupNativePromiseContinuation() error {
	if !r.args.EnableNativePromiseSupport {
		return nil
	}
	if !r.assumptions.SupportsPromiseCallbacks {
		r.logger.Warn("native promise support requested but the engine has no promise callbacks")
		return nil
	}

	if code := r.ctx.SetPromiseContinuationCallback(promiseContinuation, r); code != engine.NoError {
		return r.check("SetPromiseContinuationCallback", code)
	}
	if code := r.ctx.SetHostPromiseRejectionTracker(promiseRejection, r); code != engine.NoError {
		return r.check("SetHostPromiseRejectionTracker", code)
	}
	return nil
}

// promiseContinuation posts task to the script task queue. task is owned
// and released once it ran.
func promiseContinuation(task engine.Ref, state any) {
	r := state.(*Runtime)
	r.args.Queue.RunOnQueue(func() {
		if r.closed {
			return
		}
		defer r.release(task)
		r.runJob(task)
	})
}

func (r *Runtime) runJob(task engine.Ref) {
	undef, code := r.ctx.GetUndefinedValue()
	if code != engine.NoError {
		r.logger.Error("promise job not run", zap.Error(r.check("GetUndefinedValue", code)))
		return
	}
	defer r.release(undef)

	ret, code := r.ctx.CallFunction(task, []engine.Ref{undef})
	if code != engine.NoError {
		err := r.check("CallFunction", code)
		if isJSError(err) {
			r.logger.Warn("promise job threw", zap.Error(err))
		} else {
			r.logger.Error("promise job failed", zap.Error(err))
		}
		return
	}
	r.release(ret)
}

func promiseRejection(_, reason engine.Ref, handled bool, state any) {
	r := state.(*Runtime)
	if handled {
		r.logger.Debug("late promise rejection handler attached")
		return
	}

	msg := "<unprintable>"
	if s, code := r.ctx.ConvertValueToString(reason); code == engine.NoError {
		if text, code := r.ctx.StringToUTF8(s); code == engine.NoError {
			msg = text
		}
		r.release(s)
	} else if ex, code := r.ctx.GetAndClearException(); code == engine.NoError {
		r.release(ex)
	}
	r.logger.Warn("unhandled promise rejection", zap.String("reason", msg))
}
