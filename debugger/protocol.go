package debugger

import (
	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Protocol error codes.
const (
	CodeParseError     = -32700
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
	CodeServerError    = -32000
)

// Command is a request from an inspector client.
type Command struct {
	Method string              `json:"method"`
	Params jsoniter.RawMessage `json:"params,omitempty"`
	ID     int64               `json:"id"`
}

// Response answers a Command. Exactly one of Result and Error is set.
type Response struct {
	Result any            `json:"result,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
	ID     int64          `json:"id"`
}

// ResponseError is the error member of a Response.
type ResponseError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RemoteObject describes a script value to the client.
type RemoteObject struct {
	Value       any    `json:"value,omitempty"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	Description string `json:"description,omitempty"`
}

// EvalResult is the outcome of Runtime.evaluate. When Exception is set,
// Result describes the thrown value.
type EvalResult struct {
	Result    RemoteObject
	Exception bool
}

type evaluateParams struct {
	Expression string `json:"expression"`
}

type exceptionDetails struct {
	Exception RemoteObject `json:"exception"`
	Text      string       `json:"text"`
}

type evaluateResult struct {
	ExceptionDetails *exceptionDetails `json:"exceptionDetails,omitempty"`
	Result           RemoteObject      `json:"result"`
}

type heapUsageResult struct {
	UsedSize  uint64 `json:"usedSize"`
	TotalSize uint64 `json:"totalSize"`
}

// Domain is a protocol domain reported by Schema.getDomains.
type Domain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func errorResponse(id int64, code int, msg string) Response {
	return Response{ID: id, Error: &ResponseError{Code: code, Message: msg}}
}

func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	err := codec.Unmarshal(data, &cmd)
	return cmd, err
}

func encodeResponse(r Response) ([]byte, error) {
	if r.Result == nil && r.Error == nil {
		r.Result = struct{}{}
	}
	return codec.Marshal(r)
}
