package runtime

import (
	"testing"

	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/jsi"
	"github.com/wippyai/jsi-runtime/scriptstore"
)

func TestEvaluateScript_Simple(t *testing.T) {
	r, _ := newTestRuntime(t)
	if got := evalNumber(t, r, "1+2"); got != 3 {
		t.Errorf("1+2 = %v", got)
	}
	if _, err := r.EvaluateScript(nil, "missing.js"); err == nil {
		t.Error("nil buffer without a script store succeeded")
	}
	if _, err := r.EvaluateScript(jsi.StringBuffer("var = ;"), "bad.js"); err == nil {
		t.Error("syntax error not reported")
	}
}

// countingStore records cache traffic around a Memory store.
type countingStore struct {
	*scriptstore.Memory
	hits, misses, persisted int
}

func (c *countingStore) TryGetPreparedScript(s jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) (jsi.Buffer, bool) {
	buf, ok := c.Memory.TryGetPreparedScript(s, rt, tag)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return buf, ok
}

func (c *countingStore) PersistPreparedScript(buf jsi.Buffer, s jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) error {
	c.persisted++
	return c.Memory.PersistPreparedScript(buf, s, rt, tag)
}

func newCachedRuntime(t *testing.T, scripts map[string]scriptstore.StaticScript) (*Runtime, *scriptstore.StaticVersions, *countingStore) {
	t.Helper()
	versions := scriptstore.NewStaticVersions(scripts)
	store := &countingStore{Memory: scriptstore.NewMemory()}
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) {
		*a = a.WithScriptCache(versions, store)
		a.CacheTag = "test"
	})
	return r, versions, store
}

func TestEvaluateScript_CacheMissThenHit(t *testing.T) {
	r, _, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"app.js": {Source: "40 + 2", Version: 7},
	})

	for i, wantHits := range []int{0, 1, 2} {
		v, err := r.EvaluateScript(nil, "app.js")
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if n, _ := v.AsNumber(); n != 42 {
			t.Errorf("run %d = %v", i, n)
		}
		if store.hits != wantHits {
			t.Errorf("run %d: hits = %d, want %d", i, store.hits, wantHits)
		}
	}
	if store.misses != 1 || store.persisted != 1 {
		t.Errorf("misses = %d, persisted = %d, want 1 and 1", store.misses, store.persisted)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d entries", store.Len())
	}
}

func TestEvaluateScript_CacheMissCompileError(t *testing.T) {
	r, _, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"broken.js": {Source: "var = ;", Version: 3},
	})

	if _, err := r.EvaluateScript(nil, "broken.js"); err == nil {
		t.Fatal("syntax error on the prepared path not reported")
	}
	if store.misses != 1 || store.persisted != 0 {
		t.Errorf("misses = %d, persisted = %d, want 1 and 0", store.misses, store.persisted)
	}
	if got := evalNumber(t, r, "6*7"); got != 42 {
		t.Errorf("runtime unusable after compile error: 6*7 = %v", got)
	}
}

func TestEvaluateScript_VersionZeroSkipsCache(t *testing.T) {
	r, _, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"dev.js": {Source: "'dev'", Version: 0},
	})

	v, err := r.EvaluateScript(jsi.StringBuffer("'dev'"), "dev.js")
	if err != nil {
		t.Fatal(err)
	}
	v.Release()
	if store.hits+store.misses+store.persisted != 0 {
		t.Errorf("unversioned script touched the cache: %+v", store)
	}
}

func TestEvaluateScript_EmptyBuffer(t *testing.T) {
	r, _, _ := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"empty.js": {Source: "", Version: 1},
	})
	_, err := r.EvaluateScript(nil, "empty.js")
	if err == nil || err.Error() == "" {
		t.Fatal("empty script accepted")
	}
	if _, err := r.EvaluateScript(nil, "absent.js"); err == nil {
		t.Error("unknown script accepted")
	}
}

func TestEvaluateScript_CorruptCacheFallsBack(t *testing.T) {
	r, _, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"app.js": {Source: "'fresh'", Version: 3},
	})
	if got := evalCached(t, r, "app.js"); got != "fresh" {
		t.Fatalf("first run = %q", got)
	}

	script := jsi.ScriptSignature{URL: "app.js", Version: 3}
	store.Corrupt(script, r.Signature(), "test", func(b []byte) []byte {
		return b[:len(b)-3]
	})
	if got := evalCached(t, r, "app.js"); got != "fresh" {
		t.Errorf("run with truncated entry = %q", got)
	}
	if store.misses != 2 {
		t.Errorf("misses = %d, want 2", store.misses)
	}
}

func TestEvaluateScript_ForeignBytecodeFallsBack(t *testing.T) {
	r, _, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"app.js": {Source: "'source'", Version: 5},
	})
	script := jsi.ScriptSignature{URL: "app.js", Version: 5}
	if err := store.Memory.PersistPreparedScript(jsi.StringBuffer("not engine bytecode"), script, r.Signature(), "test"); err != nil {
		t.Fatal(err)
	}

	if got := evalCached(t, r, "app.js"); got != "source" {
		t.Errorf("result = %q", got)
	}
	if store.hits != 1 {
		t.Errorf("hits = %d, want 1", store.hits)
	}
}

func TestEvaluateScript_ChangedSourceRegenerates(t *testing.T) {
	r, versions, store := newCachedRuntime(t, map[string]scriptstore.StaticScript{
		"app.js": {Source: "'v1'", Version: 1},
	})
	if got := evalCached(t, r, "app.js"); got != "v1" {
		t.Fatalf("v1 = %q", got)
	}
	versions.Set("app.js", scriptstore.StaticScript{Source: "'v2'", Version: 2})
	if got := evalCached(t, r, "app.js"); got != "v2" {
		t.Errorf("v2 = %q", got)
	}
	if store.persisted != 2 {
		t.Errorf("persisted = %d, want 2", store.persisted)
	}
}

func evalCached(t *testing.T, r *Runtime, url string) string {
	t.Helper()
	v, err := r.EvaluateScript(nil, url)
	if err != nil {
		t.Fatalf("EvaluateScript(%s): %v", url, err)
	}
	defer v.Release()
	s, err := r.ToString(v)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestPrepareScript(t *testing.T) {
	r, _ := newTestRuntime(t)

	p, err := r.PrepareScript(jsi.StringBuffer("var prepared = 5; prepared * 2"), "prep.js")
	if err != nil {
		t.Fatal(err)
	}
	if p.Runtime != r.Signature() || len(p.Bytecode) == 0 {
		t.Fatalf("prepared = %+v", p)
	}

	v, err := r.EvaluatePrepared(p)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.AsNumber(); n != 10 {
		t.Errorf("EvaluatePrepared = %v", n)
	}

	p.Bytecode = p.Bytecode[:4]
	v, err = r.EvaluatePrepared(p)
	if err != nil {
		t.Fatalf("damaged bytecode: %v", err)
	}
	if n, _ := v.AsNumber(); n != 10 {
		t.Errorf("fallback = %v", n)
	}

	p.Runtime.Version++
	if v, err = r.EvaluatePrepared(p); err != nil {
		t.Fatalf("foreign runtime: %v", err)
	}
	if n, _ := v.AsNumber(); n != 10 {
		t.Errorf("foreign fallback = %v", n)
	}

	if _, err := r.PrepareScript(jsi.StringBuffer(""), "empty.js"); err == nil {
		t.Error("empty script prepared")
	}
	if _, err := r.EvaluatePrepared(nil); err == nil {
		t.Error("nil prepared script evaluated")
	}
}

func TestEvaluateScript_NoPreparedSupport(t *testing.T) {
	versions := scriptstore.NewStaticVersions(map[string]scriptstore.StaticScript{
		"app.js": {Source: "1", Version: 1},
	})
	store := &countingStore{Memory: scriptstore.NewMemory()}
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) {
		as := EngineAssumptions()
		as.SupportsPreparedScripts = false
		a.Assumptions = &as
		*a = a.WithScriptCache(versions, store)
	})

	if got := evalCached(t, r, "app.js"); got != "1" {
		t.Errorf("result = %q", got)
	}
	if store.misses != 0 {
		t.Errorf("cache consulted without prepared script support")
	}
}

func TestSerializedHeaderMatchesEngine(t *testing.T) {
	if engine.Version().Packed == 0 {
		t.Skip("engine version unknown in this build")
	}
	r, _ := newTestRuntime(t)
	if r.Signature().Version != engine.Version().Packed {
		t.Errorf("signature version %d, engine %d", r.Signature().Version, engine.Version().Packed)
	}
}
