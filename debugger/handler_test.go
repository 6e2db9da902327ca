package debugger

import (
	"errors"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	results map[string]EvalResult
	err     error
	used    uint64
	total   uint64
}

func (b *fakeBackend) Evaluate(expr string) (EvalResult, error) {
	if b.err != nil {
		return EvalResult{}, b.err
	}
	return b.results[expr], nil
}

func (b *fakeBackend) HeapUsage() (uint64, uint64) {
	return b.used, b.total
}

type recorder struct {
	responses []Response
}

func (r *recorder) Respond(resp Response) error {
	r.responses = append(r.responses, resp)
	return nil
}

func roundTrip(t *testing.T, h *ProtocolHandler, method, params string) map[string]any {
	t.Helper()
	rec := &recorder{}
	cmd := Command{ID: 7, Method: method}
	if params != "" {
		cmd.Params = jsoniter.RawMessage(params)
	}
	h.Enqueue(rec, cmd)
	require.Equal(t, 1, h.ProcessCommandQueue())
	require.Len(t, rec.responses, 1)

	data, err := encodeResponse(rec.responses[0])
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.EqualValues(t, 7, out["id"])
	return out
}

func TestProtocolHandler_Evaluate(t *testing.T) {
	backend := &fakeBackend{results: map[string]EvalResult{
		"1+1":   {Result: RemoteObject{Type: "number", Value: 2, Description: "2"}},
		"throw": {Result: RemoteObject{Type: "object", Description: "Error: x"}, Exception: true},
	}}
	h := NewProtocolHandler(backend, nil)

	out := roundTrip(t, h, "Runtime.evaluate", `{"expression":"1+1"}`)
	result := out["result"].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, "number", result["type"])
	assert.EqualValues(t, 2, result["value"])

	out = roundTrip(t, h, "Runtime.evaluate", `{"expression":"throw"}`)
	details := out["result"].(map[string]any)["exceptionDetails"].(map[string]any)
	assert.Equal(t, "Uncaught", details["text"])

	out = roundTrip(t, h, "Runtime.evaluate", `{}`)
	assert.EqualValues(t, CodeInvalidParams, out["error"].(map[string]any)["code"])

	out = roundTrip(t, h, "Runtime.evaluate", `{"expression":`)
	assert.EqualValues(t, CodeInvalidParams, out["error"].(map[string]any)["code"])

	backend.err = errors.New("runtime closed")
	out = roundTrip(t, h, "Runtime.evaluate", `{"expression":"1+1"}`)
	assert.EqualValues(t, CodeServerError, out["error"].(map[string]any)["code"])
}

func TestProtocolHandler_Methods(t *testing.T) {
	h := NewProtocolHandler(&fakeBackend{used: 10, total: 20}, nil)

	out := roundTrip(t, h, "Runtime.getHeapUsage", "")
	usage := out["result"].(map[string]any)
	assert.EqualValues(t, 10, usage["usedSize"])
	assert.EqualValues(t, 20, usage["totalSize"])

	roundTrip(t, h, "Debugger.enable", "")
	assert.True(t, h.Enabled())

	roundTrip(t, h, "Debugger.pause", "")
	assert.True(t, h.Paused())
	roundTrip(t, h, "Debugger.resume", "")
	assert.False(t, h.Paused())

	roundTrip(t, h, "Debugger.disable", "")
	assert.False(t, h.Enabled())

	out = roundTrip(t, h, "Runtime.runIfWaitingForDebugger", "")
	assert.NotNil(t, out["result"])

	out = roundTrip(t, h, "Schema.getDomains", "")
	list := out["result"].(map[string]any)["domains"].([]any)
	require.Len(t, list, 3)
	assert.Equal(t, "Runtime", list[0].(map[string]any)["name"])
}

func TestProtocolHandler_PauseIsAdvisory(t *testing.T) {
	h := NewProtocolHandler(&fakeBackend{results: map[string]EvalResult{
		"1+1": {Result: RemoteObject{Type: "number", Value: 2, Description: "2"}},
	}}, nil)

	out := roundTrip(t, h, "Debugger.pause", "")
	assert.Nil(t, out["error"])
	require.True(t, h.Paused())

	out = roundTrip(t, h, "Runtime.evaluate", `{"expression":"1+1"}`)
	result := out["result"].(map[string]any)["result"].(map[string]any)
	assert.EqualValues(t, 2, result["value"])
	assert.True(t, h.Paused())
}

func TestProtocolHandler_UnknownMethod(t *testing.T) {
	h := NewProtocolHandler(&fakeBackend{}, nil)

	out := roundTrip(t, h, "Profiler.start", "")
	e := out["error"].(map[string]any)
	assert.EqualValues(t, CodeMethodNotFound, e["code"])
	assert.Contains(t, e["message"], "Profiler.start")
}

func TestProtocolHandler_QueueCallback(t *testing.T) {
	h := NewProtocolHandler(&fakeBackend{}, nil)

	fired := 0
	h.SetCommandQueueCallback(func() { fired++ })

	rec := &recorder{}
	h.Enqueue(rec, Command{ID: 1, Method: "Debugger.enable"})
	h.Enqueue(rec, Command{ID: 2, Method: "Debugger.disable"})

	assert.Equal(t, 2, fired)
	assert.Equal(t, 2, h.Pending())
	assert.Empty(t, rec.responses, "commands must not run inline")

	assert.Equal(t, 2, h.ProcessCommandQueue())
	assert.Equal(t, 0, h.Pending())
	require.Len(t, rec.responses, 2)
	assert.EqualValues(t, 1, rec.responses[0].ID)
	assert.EqualValues(t, 2, rec.responses[1].ID)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "waiting_for_debugger", StateWaitingForDebugger.String())
	assert.Equal(t, "unknown", State(42).String())
}
