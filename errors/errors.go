package errors

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEngine    Phase = "engine"    // native engine API calls
	PhaseConvert   Phase = "convert"   // value bridging between engine and jsi
	PhaseHost      Phase = "host"      // host objects and host functions
	PhaseScript    Phase = "script"    // script evaluation
	PhaseCache     Phase = "cache"     // prepared script persistence
	PhaseDebug     Phase = "debug"     // debugger protocol session
	PhaseLifecycle Phase = "lifecycle" // runtime creation and teardown
	PhaseConfig    Phase = "config"    // runtime arguments
)

// Kind categorizes the error
type Kind string

const (
	KindEngine          Kind = "engine"
	KindScriptException Kind = "script_exception"
	KindUnsupported     Kind = "unsupported"
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidData     Kind = "invalid_data"
	KindNilPointer      Kind = "nil_pointer"
	KindNotFound        Kind = "not_found"
	KindNotInitialized  Kind = "not_initialized"
	KindThreadAffinity  Kind = "thread_affinity"
	KindOutOfMemory     Kind = "out_of_memory"
	KindFatal           Kind = "fatal"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Call   string
	Code   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Call != "" || e.Code != "" {
		b.WriteString(": ")
		if e.Call != "" && e.Code != "" {
			b.WriteString(e.Call)
			b.WriteString(" returned ")
			b.WriteString(e.Code)
		} else if e.Call != "" {
			b.WriteString(e.Call)
		} else {
			b.WriteString("code ")
			b.WriteString(e.Code)
		}
	}

	if e.Detail != "" {
		if e.Call != "" || e.Code != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the property path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Call sets the name of the failing engine call
func (b *Builder) Call(name string) *Builder {
	b.err.Call = name
	return b
}

// Code sets the engine error code
func (b *Builder) Code(code string) *Builder {
	b.err.Code = code
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// EngineCall creates an error for a native call that returned a failure code
// without a pending script exception.
func EngineCall(call, code string) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindEngine,
		Call:   call,
		Code:   code,
		Detail: fmt.Sprintf("%s failed", call),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what + ": not implemented",
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		Detail: fmt.Sprintf("invalid %s reference", what),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// OutOfMemory creates an allocation failure error
func OutOfMemory(phase Phase, size, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("allocation of %d bytes exceeds limit %d", size, limit),
		Value:  size,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error for a missing collaborator
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Config creates a configuration loading error
func Config(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Fatal preconditions

var (
	failFastMu sync.RWMutex
	failFast   = defaultFailFast
)

func defaultFailFast(err *Error) {
	l := zap.L()
	if !l.Core().Enabled(zapcore.FatalLevel) {
		l = zap.NewExample()
	}
	l.Fatal("fatal precondition violated", zap.Error(err))
}

// SetFailFast replaces the handler invoked by Fatal and returns the previous one.
// The default handler logs through the global zap logger and exits the process.
// A handler that returns instead of terminating makes Fatal panic with the error.
func SetFailFast(fn func(*Error)) func(*Error) {
	failFastMu.Lock()
	defer failFastMu.Unlock()
	prev := failFast
	if fn == nil {
		fn = defaultFailFast
	}
	failFast = fn
	return prev
}

// Fatal reports a usage contract violation and never returns.
func Fatal(phase Phase, detail string, args ...any) {
	err := New(phase, KindFatal).Detail(detail, args...).Build()
	FatalError(err)
}

// FatalError is Fatal for a prebuilt error.
func FatalError(err *Error) {
	failFastMu.RLock()
	fn := failFast
	failFastMu.RUnlock()
	fn(err)
	panic(err)
}
