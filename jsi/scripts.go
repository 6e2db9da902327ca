package jsi

// ScriptSignature identifies one version of a script.
type ScriptSignature struct {
	URL     string
	Version uint64
}

// RuntimeSignature identifies the engine build that produced bytecode.
type RuntimeSignature struct {
	Label   string
	Version uint64
}

// VersionedBuffer is a script source with its version. Version 0 means the
// version is unknown.
type VersionedBuffer struct {
	Buffer  Buffer
	Version uint64
}

// ScriptStore supplies script sources and versions.
type ScriptStore interface {
	VersionedScript(url string) (VersionedBuffer, error)
	ScriptVersion(url string) uint64
}

// PreparedScriptStore persists prepared bytecode keyed by script and
// runtime signatures. TryGet reports a miss for absent, stale or corrupt
// entries.
type PreparedScriptStore interface {
	TryGetPreparedScript(script ScriptSignature, runtime RuntimeSignature, tag string) (Buffer, bool)
	PersistPreparedScript(prepared Buffer, script ScriptSignature, runtime RuntimeSignature, tag string) error
}

// PreparedScript is a script together with its engine bytecode.
type PreparedScript struct {
	SourceURL     string
	Source        Buffer
	ScriptVersion uint64
	Runtime       RuntimeSignature
	Bytecode      []byte
}
