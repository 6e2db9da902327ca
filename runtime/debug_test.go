package runtime

import (
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugBackend_Evaluate(t *testing.T) {
	r, _ := newTestRuntime(t)
	b := debugBackend{r: r}

	res, err := b.Evaluate("1 + 2")
	require.NoError(t, err)
	assert.False(t, res.Exception)
	assert.Equal(t, "number", res.Result.Type)
	assert.Equal(t, float64(3), res.Result.Value)
	assert.Equal(t, "3", res.Result.Description)

	res, err = b.Evaluate(`throw new TypeError("nope")`)
	require.NoError(t, err)
	assert.True(t, res.Exception)
	assert.Equal(t, "object", res.Result.Type)
	assert.Equal(t, "error", res.Result.Subtype)
	assert.Contains(t, res.Result.Description, "nope")

	res, err = b.Evaluate("null")
	require.NoError(t, err)
	assert.Equal(t, "null", res.Result.Subtype)

	res, err = b.Evaluate("[1, 2]")
	require.NoError(t, err)
	assert.Equal(t, "array", res.Result.Subtype)

	res, err = b.Evaluate("Symbol('dbg')")
	require.NoError(t, err)
	assert.Equal(t, "symbol", res.Result.Type)
	assert.Equal(t, "Symbol(dbg)", res.Result.Description)

	assert.Equal(t, float64(1), evalNumber(t, r, "1"), "runtime unusable after evaluate")
}

func TestDebugBackend_HeapUsage(t *testing.T) {
	r, _ := newTestRuntime(t, func(a *RuntimeArgs) {
		a.MemoryTracker = &countingTracker{}
		a.MemoryLimit = 1 << 30
	})
	o := r.CreateObject()
	defer o.Release()
	used, total := debugBackend{r: r}.HeapUsage()
	assert.NotZero(t, used)
	assert.Equal(t, uint64(1<<30), total)
}

func TestDebugger_EvaluateOverWebsocket(t *testing.T) {
	r, q := newTestRuntime(t, func(a *RuntimeArgs) {
		*a = a.WithDebugging(-1, false)
	})
	s := r.Debugger()
	require.NotNil(t, s, "debug session not started")
	assert.True(t, r.IsInspectable())

	conn, _, err := websocket.DefaultDialer.Dial(s.URL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	request := func(id int, method, params string) map[string]any {
		msg := `{"id":` + strconv.Itoa(id) + `,"method":"` + method + `","params":` + params + `}`
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

		type reply struct {
			data []byte
			err  error
		}
		replies := make(chan reply, 1)
		go func() {
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, data, err := conn.ReadMessage()
			replies <- reply{data, err}
		}()

		// Commands run on the queue, which belongs to this goroutine.
		for {
			select {
			case <-q.Ready():
				q.Drain()
			case rep := <-replies:
				require.NoError(t, rep.err)
				var out map[string]any
				require.NoError(t, jsoniter.Unmarshal(rep.data, &out))
				return out
			}
		}
	}

	eval(t, r, "var debugged = 20").Release()
	out := request(1, "Runtime.evaluate", `{"expression":"debugged * 2"}`)
	assert.EqualValues(t, 1, out["id"])
	result := out["result"].(map[string]any)["result"].(map[string]any)
	assert.Equal(t, "number", result["type"])
	assert.EqualValues(t, 40, result["value"])

	out = request(2, "Runtime.evaluate", `{"expression":"missing()"}`)
	evalResult := out["result"].(map[string]any)
	assert.Contains(t, evalResult, "exceptionDetails")

	out = request(3, "Runtime.getHeapUsage", `{}`)
	heap := out["result"].(map[string]any)
	assert.Contains(t, heap, "usedSize")
}

func TestDebugger_DisabledByDefault(t *testing.T) {
	r, _ := newTestRuntime(t)
	assert.Nil(t, r.Debugger())
	assert.False(t, r.IsInspectable())
}
