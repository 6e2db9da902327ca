package jsi

// Buffer is a read-only byte view.
type Buffer interface {
	Data() []byte
	Size() int
}

// StringBuffer is a Buffer over a Go string.
type StringBuffer string

func (s StringBuffer) Data() []byte { return []byte(s) }
func (s StringBuffer) Size() int    { return len(s) }

// BytesBuffer is a Buffer over a byte slice. The slice is not copied.
type BytesBuffer []byte

func (b BytesBuffer) Data() []byte { return b }
func (b BytesBuffer) Size() int    { return len(b) }
