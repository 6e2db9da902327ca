package engine

import "strconv"

// ErrorCode is the result of every engine API call.
type ErrorCode uint32

const (
	NoError ErrorCode = iota

	// usage errors
	ErrorInvalidArgument
	ErrorNullArgument
	ErrorNoCurrentContext
	ErrorInExceptionState
	ErrorNotImplemented
	ErrorWrongThread
	ErrorRuntimeInUse
	ErrorBadSerializedScript
	ErrorArgumentNotObject
	ErrorPropertyNotSymbol
	ErrorPropertyNotString
	ErrorInvalidContext
	ErrorContextInUse

	// script errors
	ErrorScriptException
	ErrorScriptCompile
	ErrorScriptTerminated

	// engine errors
	ErrorOutOfMemory
	ErrorFatal
)

var errorCodeNames = [...]string{
	NoError:                  "NoError",
	ErrorInvalidArgument:     "ErrorInvalidArgument",
	ErrorNullArgument:        "ErrorNullArgument",
	ErrorNoCurrentContext:    "ErrorNoCurrentContext",
	ErrorInExceptionState:    "ErrorInExceptionState",
	ErrorNotImplemented:      "ErrorNotImplemented",
	ErrorWrongThread:         "ErrorWrongThread",
	ErrorRuntimeInUse:        "ErrorRuntimeInUse",
	ErrorBadSerializedScript: "ErrorBadSerializedScript",
	ErrorArgumentNotObject:   "ErrorArgumentNotObject",
	ErrorPropertyNotSymbol:   "ErrorPropertyNotSymbol",
	ErrorPropertyNotString:   "ErrorPropertyNotString",
	ErrorInvalidContext:      "ErrorInvalidContext",
	ErrorContextInUse:        "ErrorContextInUse",
	ErrorScriptException:     "ErrorScriptException",
	ErrorScriptCompile:       "ErrorScriptCompile",
	ErrorScriptTerminated:    "ErrorScriptTerminated",
	ErrorOutOfMemory:         "ErrorOutOfMemory",
	ErrorFatal:               "ErrorFatal",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return "ErrorCode(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// IsScriptError reports whether c leaves a pending exception on the context.
func (c ErrorCode) IsScriptError() bool {
	return c == ErrorScriptException || c == ErrorScriptCompile || c == ErrorScriptTerminated
}
