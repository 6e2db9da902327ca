package jsi

import "strings"

// JSError is a script exception crossing into native code. It owns its
// value until Release.
type JSError struct {
	value   Value
	message string
	stack   string
}

// NewJSError wraps a thrown script value. It takes ownership of value. The
// message and stack are read from the value when it is an object.
func NewJSError(rt Runtime, value Value) *JSError {
	e := &JSError{value: value}
	if obj, err := value.AsObject(); err == nil {
		e.message = readStringProperty(rt, obj, "message")
		e.stack = readStringProperty(rt, obj, "stack")
		if name := readStringProperty(rt, obj, "name"); name != "" && e.message != "" {
			e.message = name + ": " + e.message
		}
	}
	if e.message == "" {
		e.message = ToDisplayString(rt, value)
	}
	return e
}

// NewJSErrorMessage builds a script Error carrying msg.
func NewJSErrorMessage(rt Runtime, msg string) *JSError {
	return &JSError{value: StringValue(rt.CreateString(msg)), message: msg}
}

func (e *JSError) Error() string {
	if e.stack != "" && !strings.Contains(e.stack, e.message) {
		return e.message + "\n" + e.stack
	}
	return e.message
}

// Message returns the exception message.
func (e *JSError) Message() string { return e.message }

// Stack returns the script stack trace when one was attached.
func (e *JSError) Stack() string { return e.stack }

// Value returns the thrown value. The JSError keeps ownership.
func (e *JSError) Value() Value { return e.value }

// Release drops the thrown value.
func (e *JSError) Release() { e.value.Release() }

func readStringProperty(rt Runtime, obj Object, name string) string {
	v, err := GetPropertyByName(rt, obj, name)
	if err != nil {
		return ""
	}
	defer v.Release()
	if v.IsUndefined() {
		return ""
	}
	return ToDisplayString(rt, v)
}
