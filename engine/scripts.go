package engine

import (
	"encoding/binary"

	"github.com/dgryski/go-metro"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Serialized script layout, little-endian:
//
//	magic         [8]byte "GOJABC\x00\x01"
//	engine        u64     Version().Packed of the producing engine
//	sourceHash    u64     metro hash of the source
//	sourceLength  u64
//
// goja has no portable bytecode format, so the body is the compiled
// program kept in the producing context's cache. The header alone ties a buffer to
// the exact source and engine build.
const (
	serializedMagic      = "GOJABC\x00\x01"
	serializedHeaderSize = 32
)

// ScriptLoader supplies the source of a serialized script on demand.
type ScriptLoader func() (string, error)

type programKey struct {
	url  string
	hash uint64
}

// programCache holds the programs compiled by SerializeScript on one
// context. Run never adds to it and Close drops it.
type programCache map[programKey]*goja.Program

func (pc programCache) lookup(url string, hash uint64) *goja.Program {
	return pc[programKey{url: url, hash: hash}]
}

func (pc programCache) store(url string, hash uint64, p *goja.Program) {
	pc[programKey{url: url, hash: hash}] = p
}

func compile(url, source string) (*goja.Program, error) {
	return goja.Compile(url, source, false)
}

func hashSource(source string) uint64 {
	return metro.Hash64Str(source, 0)
}

// Run evaluates source as a script named url and returns its completion
// value.
func (c *Context) Run(source, url string) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	p, err := compile(url, source)
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.runProgram(p)
}

// Evaluate runs a single expression for an inspector client.
func (c *Context) Evaluate(expr string) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	var res goja.Value
	var err error
	if code := c.guard(func() { res, err = c.vm.RunString(expr) }); code != NoError {
		return InvalidRef, code
	}
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.wrap(res)
}

func (c *Context) runProgram(p *goja.Program) (Ref, ErrorCode) {
	var res goja.Value
	var err error
	if code := c.guard(func() { res, err = c.vm.RunProgram(p) }); code != NoError {
		return InvalidRef, code
	}
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	return c.wrap(res)
}

// SerializeScript compiles source and returns a buffer RunSerialized
// accepts. Syntax errors are reported as ErrorScriptCompile with the
// error pending.
func (c *Context) SerializeScript(source, url string) ([]byte, ErrorCode) {
	if code := c.enter(); code != NoError {
		return nil, code
	}
	hash := hashSource(source)
	if c.programs.lookup(url, hash) == nil {
		p, err := compile(url, source)
		if err != nil {
			return nil, c.fail(err)
		}
		c.programs.store(url, hash, p)
	}

	buf := make([]byte, serializedHeaderSize)
	copy(buf, serializedMagic)
	binary.LittleEndian.PutUint64(buf[8:], Version().Packed)
	binary.LittleEndian.PutUint64(buf[16:], hash)
	binary.LittleEndian.PutUint64(buf[24:], uint64(len(source)))
	return buf, NoError
}

// RunSerialized runs a buffer produced by SerializeScript. The source is
// requested from loader. A buffer from another engine build or for other
// source yields ErrorBadSerializedScript.
func (c *Context) RunSerialized(buf []byte, loader ScriptLoader, url string) (Ref, ErrorCode) {
	if code := c.enter(); code != NoError {
		return InvalidRef, code
	}
	if loader == nil {
		return InvalidRef, ErrorNullArgument
	}
	if len(buf) < serializedHeaderSize || string(buf[:8]) != serializedMagic {
		return InvalidRef, ErrorBadSerializedScript
	}
	if v := binary.LittleEndian.Uint64(buf[8:]); v != Version().Packed {
		Logger().Debug("serialized script from another engine build",
			zap.String("url", url), zap.Uint64("version", v))
		return InvalidRef, ErrorBadSerializedScript
	}

	source, err := loader()
	if err != nil {
		return InvalidRef, c.fail(err)
	}
	hash := hashSource(source)
	if binary.LittleEndian.Uint64(buf[16:]) != hash ||
		binary.LittleEndian.Uint64(buf[24:]) != uint64(len(source)) {
		return InvalidRef, ErrorBadSerializedScript
	}

	p := c.programs.lookup(url, hash)
	if p == nil {
		if p, err = compile(url, source); err != nil {
			return InvalidRef, c.fail(err)
		}
	}
	return c.runProgram(p)
}
