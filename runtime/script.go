package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// EvaluateScript runs buf as a script named sourceURL and returns its
// completion value.
//
// With a ScriptStore and a PreparedScriptStore configured, scripts with a
// known version run from cached bytecode. A nil buf loads the source from
// the ScriptStore. Cache failures fall back to running the source.
func (r *Runtime) EvaluateScript(buf jsi.Buffer, sourceURL string) (jsi.Value, error) {
	store := r.args.ScriptStore
	if store == nil {
		if buf == nil {
			return jsi.Undefined(), errors.NilPointer(errors.PhaseScript, []string{sourceURL}, "script buffer")
		}
		return r.evaluateSimple(buf, sourceURL)
	}

	var version uint64
	if buf != nil {
		version = store.ScriptVersion(sourceURL)
	} else {
		vb, err := store.VersionedScript(sourceURL)
		if err != nil {
			return jsi.Undefined(), err
		}
		buf, version = vb.Buffer, vb.Version
	}
	if buf == nil || buf.Size() == 0 {
		return jsi.Undefined(), errors.InvalidInput(errors.PhaseScript, "Script buffer is empty!")
	}

	prepared := r.args.PreparedScriptStore
	if version == 0 || prepared == nil || !r.assumptions.SupportsPreparedScripts {
		return r.evaluateSimple(buf, sourceURL)
	}

	script := jsi.ScriptSignature{URL: sourceURL, Version: version}
	sig := r.Signature()

	bytecode, hit := prepared.TryGetPreparedScript(script, sig, r.args.CacheTag)
	if !hit {
		r.logger.Debug("prepared script cache miss", zap.String("url", sourceURL), zap.Uint64("version", version))
		data, code := r.ctx.SerializeScript(string(buf.Data()), sourceURL)
		if code != engine.NoError {
			return jsi.Undefined(), r.check("SerializeScript", code)
		}
		bytecode = jsi.BytesBuffer(data)
		if err := prepared.PersistPreparedScript(bytecode, script, sig, r.args.CacheTag); err != nil {
			r.logger.Warn("persisting prepared script failed", zap.String("url", sourceURL), zap.Error(err))
		}
	}

	return r.runSerialized(bytecode.Data(), buf, sourceURL)
}

// runSerialized runs bytecode against its source. Bytecode the engine
// rejects is skipped in favor of the source.
func (r *Runtime) runSerialized(bytecode []byte, source jsi.Buffer, sourceURL string) (jsi.Value, error) {
	loader := func() (string, error) { return string(source.Data()), nil }

	ref, code := r.ctx.RunSerialized(bytecode, loader, sourceURL)
	if code == engine.ErrorBadSerializedScript {
		r.logger.Debug("prepared script rejected by engine, running source", zap.String("url", sourceURL))
		return r.evaluateSimple(source, sourceURL)
	}
	if code != engine.NoError {
		return jsi.Undefined(), r.check("RunSerialized", code)
	}
	return r.toValue(ref)
}

func (r *Runtime) evaluateSimple(buf jsi.Buffer, sourceURL string) (jsi.Value, error) {
	ref, code := r.ctx.Run(string(buf.Data()), sourceURL)
	if code != engine.NoError {
		return jsi.Undefined(), r.check("Run", code)
	}
	return r.toValue(ref)
}

// PrepareScript compiles buf into bytecode bound to this engine build.
func (r *Runtime) PrepareScript(buf jsi.Buffer, sourceURL string) (*jsi.PreparedScript, error) {
	if buf == nil || buf.Size() == 0 {
		return nil, errors.InvalidInput(errors.PhaseScript, "Script buffer is empty!")
	}
	data, code := r.ctx.SerializeScript(string(buf.Data()), sourceURL)
	if code != engine.NoError {
		return nil, r.check("SerializeScript", code)
	}

	var version uint64
	if r.args.ScriptStore != nil {
		version = r.args.ScriptStore.ScriptVersion(sourceURL)
	}
	return &jsi.PreparedScript{
		SourceURL:     sourceURL,
		Source:        buf,
		ScriptVersion: version,
		Runtime:       r.Signature(),
		Bytecode:      data,
	}, nil
}

// EvaluatePrepared runs p. Bytecode from another engine build runs from
// source instead.
func (r *Runtime) EvaluatePrepared(p *jsi.PreparedScript) (jsi.Value, error) {
	if p == nil {
		return jsi.Undefined(), errors.NilPointer(errors.PhaseScript, nil, "prepared script")
	}
	if p.Source == nil {
		return jsi.Undefined(), errors.NilPointer(errors.PhaseScript, []string{p.SourceURL}, "prepared script source")
	}
	if p.Runtime != r.Signature() {
		r.logger.Debug("prepared script from another runtime, running source",
			zap.String("url", p.SourceURL), zap.String("runtime", p.Runtime.Label))
		return r.evaluateSimple(p.Source, p.SourceURL)
	}
	return r.runSerialized(p.Bytecode, p.Source, p.SourceURL)
}
