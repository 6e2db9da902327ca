package scriptstore

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

const maxURLChars = 64

// File stores prepared scripts as one envelope file per script, runtime
// and tag under Dir.
type File struct {
	Dir string
}

// NewFile returns a File store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.InvalidInput(errors.PhaseCache, "cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create cache directory")
	}
	return &File{Dir: dir}, nil
}

// Path returns the cache file for a script, runtime and tag.
func (f *File) Path(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) string {
	return filepath.Join(f.Dir, FileName(script.URL, rt.Label, tag))
}

// FileName returns prep_<url>_<label>[_<tag>].cache, keeping at most the
// last 64 characters of url and replacing everything outside
// [A-Za-z0-9._-] with '_'.
func FileName(url, label, tag string) string {
	if r := []rune(url); len(r) > maxURLChars {
		url = string(r[len(r)-maxURLChars:])
	}

	var b strings.Builder
	b.WriteString("prep_")
	b.WriteString(sanitize(url))
	b.WriteByte('_')
	b.WriteString(sanitize(label))
	if tag != "" {
		b.WriteByte('_')
		b.WriteString(sanitize(tag))
	}
	b.WriteString(".cache")
	return b.String()
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// TryGetPreparedScript implements jsi.PreparedScriptStore.
func (f *File) TryGetPreparedScript(script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) (jsi.Buffer, bool) {
	path := f.Path(script, rt, tag)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			Logger().Debug("prepared script unreadable", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	payload, err := decode(data, script, rt)
	if err != nil {
		Logger().Debug("prepared script rejected", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return jsi.BytesBuffer(payload), true
}

// PersistPreparedScript implements jsi.PreparedScriptStore. The envelope
// is written to a temporary file and renamed over the target.
func (f *File) PersistPreparedScript(prepared jsi.Buffer, script jsi.ScriptSignature, rt jsi.RuntimeSignature, tag string) error {
	if prepared == nil {
		return errors.NilPointer(errors.PhaseCache, []string{script.URL}, "prepared buffer")
	}
	path := f.Path(script, rt, tag)
	data := encode(prepared.Data(), script, rt)

	tmp, err := os.CreateTemp(f.Dir, "prep_*.tmp")
	if err != nil {
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create temp file")
	}
	name := tmp.Name()

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		os.Remove(name)
		return errors.Wrap(errors.PhaseCache, errors.KindInvalidData, err, "write "+path)
	}

	Logger().Debug("prepared script persisted", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
