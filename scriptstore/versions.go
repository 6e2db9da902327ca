package scriptstore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// FileVersions serves scripts from disk. A script's version is derived
// from its size and modification time, so editing the file invalidates
// prepared bytecode.
type FileVersions struct {
	Root string
}

func (f FileVersions) path(url string) string {
	if filepath.IsAbs(url) || f.Root == "" {
		return url
	}
	return filepath.Join(f.Root, url)
}

// ScriptVersion implements jsi.ScriptStore. Missing files report 0.
func (f FileVersions) ScriptVersion(url string) uint64 {
	info, err := os.Stat(f.path(url))
	if err != nil {
		return 0
	}
	return fileVersion(info)
}

func fileVersion(info os.FileInfo) uint64 {
	v := uint64(info.ModTime().UnixNano())*31 + uint64(info.Size())
	if v == 0 {
		v = 1
	}
	return v
}

// VersionedScript implements jsi.ScriptStore.
func (f FileVersions) VersionedScript(url string) (jsi.VersionedBuffer, error) {
	p := f.path(url)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return jsi.VersionedBuffer{}, errors.NotFound(errors.PhaseCache, "script", url)
		}
		return jsi.VersionedBuffer{}, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "read "+p)
	}
	info, err := os.Stat(p)
	if err != nil {
		return jsi.VersionedBuffer{}, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "stat "+p)
	}
	return jsi.VersionedBuffer{Buffer: jsi.BytesBuffer(data), Version: fileVersion(info)}, nil
}

// StaticScript is one entry of StaticVersions.
type StaticScript struct {
	Source  string
	Version uint64
}

// StaticVersions serves scripts from a fixed table.
type StaticVersions struct {
	scripts map[string]StaticScript
	mu      sync.RWMutex
}

// NewStaticVersions returns a store over scripts.
func NewStaticVersions(scripts map[string]StaticScript) *StaticVersions {
	s := &StaticVersions{scripts: make(map[string]StaticScript, len(scripts))}
	for k, v := range scripts {
		s.scripts[k] = v
	}
	return s
}

// Set adds or replaces a script.
func (s *StaticVersions) Set(url string, script StaticScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[url] = script
}

// ScriptVersion implements jsi.ScriptStore.
func (s *StaticVersions) ScriptVersion(url string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scripts[url].Version
}

// VersionedScript implements jsi.ScriptStore.
func (s *StaticVersions) VersionedScript(url string) (jsi.VersionedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	script, ok := s.scripts[url]
	if !ok {
		return jsi.VersionedBuffer{}, errors.NotFound(errors.PhaseCache, "script", url)
	}
	return jsi.VersionedBuffer{Buffer: jsi.StringBuffer(script.Source), Version: script.Version}, nil
}
