// Package scriptstore persists prepared script bytecode and serves script
// sources with versions.
//
// Prepared scripts are wrapped in an envelope carrying the script version
// and the runtime signature that produced them. A lookup whose signatures
// do not match, or whose envelope is truncated or damaged, is a miss; the
// caller regenerates and persists again.
//
//	store, err := scriptstore.NewFile(cacheDir)
//	buf, ok := store.TryGetPreparedScript(script, runtime, "")
//
// File writes each envelope with one write to a temporary file followed
// by a rename, so readers never observe a partial entry. Memory keeps the
// same envelopes in process.
package scriptstore
