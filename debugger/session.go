package debugger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/errors"
)

const (
	DefaultPort = 9229
	DefaultName = "runtime1"
)

// Options configure a Session.
type Options struct {
	Logger *zap.Logger
	// OnCommandQueued is called on a connection goroutine whenever a
	// command is queued. It should post ProcessCommandQueue onto the
	// script task queue.
	OnCommandQueued func()
	Name            string
	Port            int
	BreakOnStart    bool
}

// Session owns the inspector endpoint of one runtime.
type Session struct {
	Name string
	Port int

	handler      *ProtocolHandler
	service      *Service
	logger       *zap.Logger
	onQueue      func()
	attached     chan struct{}
	attachOnce   sync.Once
	state        State
	mu           sync.Mutex
	breakOnStart bool
}

// NewSession returns a detached session executing commands with backend.
func NewSession(backend Backend, opts Options) *Session {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Port < 0 {
		opts.Port = 0
	}
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	return &Session{
		Name:         opts.Name,
		Port:         opts.Port,
		handler:      NewProtocolHandler(backend, opts.Logger),
		service:      NewService(opts.Name, opts.Port, opts.Logger),
		logger:       opts.Logger,
		onQueue:      opts.OnCommandQueued,
		attached:     make(chan struct{}),
		breakOnStart: opts.BreakOnStart,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = st
	}
	s.mu.Unlock()
}

// Listening reports whether a client can connect.
func (s *Session) Listening() bool {
	switch s.State() {
	case StateListening, StateWaitingForDebugger, StateAttached:
		return true
	}
	return false
}

// URL returns the websocket endpoint.
func (s *Session) URL() string {
	return s.service.URL()
}

// Handler returns the protocol handler.
func (s *Session) Handler() *ProtocolHandler {
	return s.handler
}

// Start registers the handler and begins listening. A failure is logged
// and leaves the session detached.
func (s *Session) Start(ctx context.Context) error {
	if st := s.State(); st != StateDetached {
		return errors.InvalidInput(errors.PhaseDebug, "session already started: "+st.String())
	}

	s.service.Register(s.handler)
	s.handler.SetCommandQueueCallback(s.onQueue)
	s.service.setHooks(s.onAttach, s.onDetach)

	if err := s.service.Listen(ctx); err != nil {
		s.service.Unregister()
		s.handler.SetCommandQueueCallback(nil)
		s.logger.Error("debugger failed to start", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.Port = s.service.Port()
	s.mu.Unlock()
	s.setState(StateListening)
	s.logger.Info("Listening on " + s.URL())
	return nil
}

// WaitForDebugger blocks until a client attaches or ctx ends. It returns
// at once unless the session breaks on start.
func (s *Session) WaitForDebugger(ctx context.Context) error {
	if !s.breakOnStart {
		return nil
	}
	switch s.State() {
	case StateAttached:
		return nil
	case StateListening:
	default:
		return errors.NotInitialized(errors.PhaseDebug, "debug session")
	}

	s.setState(StateWaitingForDebugger)
	s.logger.Info("Waiting for debugger to connect...")

	select {
	case <-s.attached:
		s.logger.Info("Debugger connected")
		return nil
	case <-ctx.Done():
		s.setState(StateListening)
		return ctx.Err()
	}
}

func (s *Session) onAttach() {
	s.setState(StateAttached)
	s.attachOnce.Do(func() { close(s.attached) })
	s.logger.Info("Debugger attached", zap.String("target", s.Name))
}

func (s *Session) onDetach() {
	if s.service.Connections() == 0 {
		s.setState(StateListening)
	}
	s.logger.Info("Debugger detached", zap.String("target", s.Name))
}

// ProcessCommandQueue runs the queued commands. Call it on the script
// goroutine.
func (s *Session) ProcessCommandQueue() int {
	return s.handler.ProcessCommandQueue()
}

// Close stops the session. It is safe to call more than once and on a
// session that never started.
func (s *Session) Close() error {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	s.mu.Unlock()

	if prev == StateClosed || prev == StateDetached {
		return nil
	}

	s.service.Unregister()
	s.handler.SetCommandQueueCallback(nil)
	err := s.service.Close()
	s.logger.Debug("debugger closed", zap.String("target", s.Name))
	return err
}
