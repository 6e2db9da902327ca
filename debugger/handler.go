package debugger

import (
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Backend executes inspector requests against the script runtime. Its
// methods are called from ProcessCommandQueue on the script goroutine.
type Backend interface {
	Evaluate(expression string) (EvalResult, error)
	HeapUsage() (used, total uint64)
}

// Responder receives the answer to a queued command.
type Responder interface {
	Respond(Response) error
}

type queuedCommand struct {
	to  Responder
	cmd Command
}

var domains = []string{"Runtime", "Debugger", "Schema"}

// ProtocolHandler queues commands arriving on connection goroutines and
// executes them when the owner calls ProcessCommandQueue.
type ProtocolHandler struct {
	backend Backend
	onQueue func()
	logger  *zap.Logger
	queue   []queuedCommand
	mu      sync.Mutex
	enabled bool
	paused  bool
}

// NewProtocolHandler returns a handler executing commands with backend.
func NewProtocolHandler(backend Backend, logger *zap.Logger) *ProtocolHandler {
	if logger == nil {
		logger = Logger()
	}
	return &ProtocolHandler{backend: backend, logger: logger}
}

// SetCommandQueueCallback installs fn, called after each enqueue. fn runs
// on the connection goroutine and should only schedule
// ProcessCommandQueue.
func (h *ProtocolHandler) SetCommandQueueCallback(fn func()) {
	h.mu.Lock()
	h.onQueue = fn
	h.mu.Unlock()
}

// Enqueue adds cmd to the queue and fires the queue callback.
func (h *ProtocolHandler) Enqueue(to Responder, cmd Command) {
	h.mu.Lock()
	h.queue = append(h.queue, queuedCommand{to: to, cmd: cmd})
	cb := h.onQueue
	h.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Pending returns the number of queued commands.
func (h *ProtocolHandler) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// Enabled reports whether a client sent Debugger.enable.
func (h *ProtocolHandler) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// Paused reports whether a client requested Debugger.pause. Pause and
// resume only record the request: there are no breakpoints or stepping, so
// script execution and Runtime.evaluate continue while paused.
func (h *ProtocolHandler) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

// ProcessCommandQueue executes every queued command and sends the
// responses. It returns the number processed.
func (h *ProtocolHandler) ProcessCommandQueue() int {
	h.mu.Lock()
	batch := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, q := range batch {
		resp := h.dispatch(q.cmd)
		if err := q.to.Respond(resp); err != nil {
			h.logger.Debug("debugger response dropped", zap.Int64("id", q.cmd.ID), zap.Error(err))
		}
	}
	return len(batch)
}

func (h *ProtocolHandler) dispatch(cmd Command) Response {
	switch cmd.Method {
	case "Runtime.evaluate":
		return h.evaluate(cmd)
	case "Runtime.getHeapUsage":
		used, total := h.backend.HeapUsage()
		return Response{ID: cmd.ID, Result: heapUsageResult{UsedSize: used, TotalSize: total}}
	case "Runtime.runIfWaitingForDebugger":
		return Response{ID: cmd.ID}
	case "Debugger.enable":
		h.setFlags(true, false)
		return Response{ID: cmd.ID, Result: map[string]string{"debuggerId": "runtime"}}
	case "Debugger.disable":
		h.setFlags(false, false)
		return Response{ID: cmd.ID}
	case "Debugger.pause":
		h.mu.Lock()
		h.paused = true
		h.mu.Unlock()
		return Response{ID: cmd.ID}
	case "Debugger.resume":
		h.mu.Lock()
		h.paused = false
		h.mu.Unlock()
		return Response{ID: cmd.ID}
	case "Schema.getDomains":
		list := lo.Map(domains, func(name string, _ int) Domain {
			return Domain{Name: name, Version: "1.3"}
		})
		return Response{ID: cmd.ID, Result: map[string][]Domain{"domains": list}}
	default:
		return errorResponse(cmd.ID, CodeMethodNotFound, "'"+cmd.Method+"' wasn't found")
	}
}

func (h *ProtocolHandler) setFlags(enabled, paused bool) {
	h.mu.Lock()
	h.enabled = enabled
	h.paused = paused
	h.mu.Unlock()
}

func (h *ProtocolHandler) evaluate(cmd Command) Response {
	var p evaluateParams
	if len(cmd.Params) > 0 {
		if err := codec.Unmarshal(cmd.Params, &p); err != nil {
			return errorResponse(cmd.ID, CodeInvalidParams, "invalid params: "+err.Error())
		}
	}
	if p.Expression == "" {
		return errorResponse(cmd.ID, CodeInvalidParams, "expression is required")
	}

	res, err := h.backend.Evaluate(p.Expression)
	if err != nil {
		return errorResponse(cmd.ID, CodeServerError, err.Error())
	}

	out := evaluateResult{Result: res.Result}
	if res.Exception {
		out.ExceptionDetails = &exceptionDetails{Text: "Uncaught", Exception: res.Result}
	}
	return Response{ID: cmd.ID, Result: out}
}
