package debugger

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wippyai/jsi-runtime/errors"
)

// Service is the inspector endpoint. It accepts websocket clients on
// ws://127.0.0.1:<port>/<name> and feeds their commands to the registered
// ProtocolHandler.
type Service struct {
	handler  *ProtocolHandler
	listener net.Listener
	server   *http.Server
	conns    map[*clientConn]struct{}
	onAttach func()
	onDetach func()
	logger   *zap.Logger
	upgrader websocket.Upgrader
	name     string
	port     int
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewService returns a service for the named target. Port 0 picks a free
// port when listening.
func NewService(name string, port int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = Logger()
	}
	return &Service{
		name:   name,
		port:   port,
		logger: logger,
		conns:  make(map[*clientConn]struct{}),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 15 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

// Register routes client commands to h.
func (s *Service) Register(h *ProtocolHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Unregister detaches the handler. Later commands are answered with an
// error.
func (s *Service) Unregister() {
	s.mu.Lock()
	s.handler = nil
	s.mu.Unlock()
}

func (s *Service) setHooks(attach, detach func()) {
	s.mu.Lock()
	s.onAttach, s.onDetach = attach, detach
	s.mu.Unlock()
}

// Listen binds the loopback port and starts serving.
func (s *Service) Listen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.InvalidInput(errors.PhaseDebug, "service already listening")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port)))
	if err != nil {
		return errors.Wrap(errors.PhaseDebug, errors.KindInvalidInput, err, "listen")
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/"+s.name, s.serveWebsocket)
	mux.HandleFunc("/json", s.serveList)
	mux.HandleFunc("/json/list", s.serveList)
	mux.HandleFunc("/json/version", s.serveVersion)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	s.server = srv

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("debugger service stopped", zap.Error(err))
		}
	}()
	return nil
}

// Port returns the bound port, or the configured one before Listen.
func (s *Service) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// URL returns the websocket endpoint of the target.
func (s *Service) URL() string {
	return "ws://127.0.0.1:" + strconv.Itoa(s.Port()) + "/" + s.name
}

// Connections returns the number of attached clients.
func (s *Service) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops the listener and disconnects every client.
func (s *Service) Close() error {
	s.mu.Lock()
	srv := s.server
	conns := make([]*clientConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	var err error
	if srv != nil {
		err = srv.Close()
	}
	s.wg.Wait()
	return err
}

type target struct {
	Description          string `json:"description"`
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

func (s *Service) serveList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []target{{
		Description:          "jsi runtime",
		ID:                   s.name,
		Title:                s.name,
		Type:                 "node",
		WebSocketDebuggerURL: s.URL(),
	}})
}

func (s *Service) serveVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"Browser": "jsi-runtime", "Protocol-Version": "1.3"})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := codec.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Service) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("debugger upgrade failed", zap.Error(err))
		return
	}
	c := &clientConn{ws: ws}

	s.mu.Lock()
	if s.server == nil {
		s.mu.Unlock()
		_ = ws.Close()
		return
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	attach := s.onAttach
	s.mu.Unlock()
	defer s.wg.Done()

	if attach != nil {
		attach()
	}
	defer func() {
		c.close()
		s.mu.Lock()
		delete(s.conns, c)
		detach := s.onDetach
		s.mu.Unlock()
		if detach != nil {
			detach()
		}
	}()

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		cmd, err := decodeCommand(data)
		if err != nil {
			_ = c.Respond(errorResponse(0, CodeParseError, "parse error: "+err.Error()))
			continue
		}

		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		if h == nil {
			_ = c.Respond(errorResponse(cmd.ID, CodeServerError, "no protocol handler registered"))
			continue
		}
		h.Enqueue(c, cmd)
	}
}

type clientConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// Respond implements Responder.
func (c *clientConn) Respond(r Response) error {
	data, err := encodeResponse(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *clientConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.ws.Close()
}
