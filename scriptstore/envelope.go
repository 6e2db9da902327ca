package scriptstore

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/jsi-runtime/errors"
	"github.com/wippyai/jsi-runtime/jsi"
)

// Envelope layout, little-endian:
//
//	magic          [8]byte "JSIPREP\x01"
//	scriptVersion  u64
//	runtimeVersion u64
//	labelLength    u32
//	label          [labelLength]byte
//	payloadSize    u64
//	payload        [payloadSize]byte
//	eof            [8]byte "JSIPEND\x00"
const (
	envelopeMagic   = "JSIPREP\x01"
	envelopeTrailer = "JSIPEND\x00"
	fixedOverhead   = 8 + 8 + 8 + 4 + 8 + 8
)

func encodedSize(payload int, rt jsi.RuntimeSignature) int {
	return fixedOverhead + len(rt.Label) + payload
}

// encode builds the envelope for payload in a single allocation.
func encode(payload []byte, script jsi.ScriptSignature, rt jsi.RuntimeSignature) []byte {
	buf := make([]byte, 0, encodedSize(len(payload), rt))
	buf = append(buf, envelopeMagic...)
	buf = binary.LittleEndian.AppendUint64(buf, script.Version)
	buf = binary.LittleEndian.AppendUint64(buf, rt.Version)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rt.Label)))
	buf = append(buf, rt.Label...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, envelopeTrailer...)
	return buf
}

// decode validates data against the expected signatures and returns the
// payload. The payload aliases data.
func decode(data []byte, script jsi.ScriptSignature, rt jsi.RuntimeSignature) ([]byte, error) {
	r := reader{data: data}

	if !bytes.Equal(r.next(8), []byte(envelopeMagic)) {
		return nil, corrupt("bad magic")
	}
	if v, ok := r.u64(); !ok || v != script.Version {
		return nil, stale("script version %d, want %d", v, script.Version)
	}
	if v, ok := r.u64(); !ok || v != rt.Version {
		return nil, stale("runtime version %d, want %d", v, rt.Version)
	}
	n, ok := r.u32()
	if !ok {
		return nil, corrupt("truncated runtime label")
	}
	if label := r.next(int(n)); label == nil || string(label) != rt.Label {
		return nil, stale("runtime label mismatch, want %q", rt.Label)
	}
	size, ok := r.u64()
	if !ok || size > uint64(r.remaining()) {
		return nil, corrupt("payload size exceeds file")
	}
	payload := r.next(int(size))
	if !bytes.Equal(r.next(8), []byte(envelopeTrailer)) {
		return nil, corrupt("missing trailer")
	}
	if r.remaining() != 0 {
		return nil, corrupt("trailing bytes after envelope")
	}
	return payload, nil
}

func corrupt(detail string) *errors.Error {
	return errors.InvalidData(errors.PhaseCache, nil, detail)
}

func stale(format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseCache, errors.KindNotFound).Detail(format, args...).Build()
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

// next returns the next n bytes, or nil if fewer remain.
func (r *reader) next(n int) []byte {
	if n < 0 || r.remaining() < n {
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u64() (uint64, bool) {
	b := r.next(8)
	if b == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

func (r *reader) u32() (uint32, bool) {
	b := r.next(4)
	if b == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}
