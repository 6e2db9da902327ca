package scriptstore

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// Memory is an in-process PreparedScriptStore. Entries are kept in the
// same envelope format as File.
type Memory struct {
	entries map[string][]byte
	mu      sync.RWMutex
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func memoryKey(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) string {
	return script.URL + "\x00" + rt.Label + "\x00" + tag
}

// TryGetPreparedScript implements jsi.PreparedScriptStore.
func (m *Memory) TryGetPreparedScript(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) (jsi.Buffer, bool) {
	m.mu.RLock()
	data, ok := m.entries[memoryKey(script, rt, tag)]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	payload, err := decode(data, script, rt)
	if err != nil {
		Logger().Debug("prepared script rejected", zap.String("url", script.URL), zap.Error(err))
		return nil, false
	}
	return jsi.BytesBuffer(payload), true
}

// PersistPreparedScript implements jsi.PreparedScriptStore.
func (m *Memory) PersistPreparedScript(prepared jsi.Buffer, script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) error {
	if prepared == nil {
		return errors.NilPointer(errors.PhaseCache, []string{script.URL}, "prepared buffer")
	}
	data := encode(prepared.Data(), script, rt)
	m.mu.Lock()
	m.entries[memoryKey(script, rt, tag)] = data
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Raw returns the stored envelope for inspection, nil if absent.
func (m *Memory) Raw(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[memoryKey(script, rt, tag)]
}

// Corrupt overwrites a stored envelope. Tests use it to simulate damaged
// entries.
func (m *Memory) Corrupt(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string, fn func([]byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(script, rt, tag)
	if data, ok := m.entries[key]; ok {
		m.entries[key] = fn(append([]byte(nil), data...))
	}
}
