package connection

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/dreo-ws/internal/auth"
	"github.com/rickgao/dreo-ws/internal/metrics"
)

// Session is one client instance bound to one access token.
//
// Connect and Disconnect are meant to be called by a single owner.
// Connected may be called from any goroutine.
type Session struct {
	token     string
	logger    *slog.Logger
	endpoints Endpoints
	factory   SocketFactory
	metrics   *metrics.Session
	now       func() time.Time

	// mu guards the handles below and serializes state changes made by
	// event forwarding against Disconnect.
	mu       sync.Mutex
	socket   Socket
	worker   chan struct{} // closed when the run loop returns
	fwd      *forwarder
	handlers Handlers
	gen      uint64 // bumped on every Connect and Disconnect

	connected atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// NewSession creates a session for the given access token.
func NewSession(token string, opts ...Option) *Session {
	s := &Session{
		token:     token,
		endpoints: DefaultEndpoints(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default().With("component", "dreo-ws")
	}
	if s.factory == nil {
		s.factory = NewSocketFactory(s.logger)
	}

	return s
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithEndpoints overrides the URL templates and user agent.
func WithEndpoints(e Endpoints) Option {
	return func(s *Session) {
		s.endpoints = e
	}
}

// WithSocketFactory replaces the gorilla/websocket transport.
func WithSocketFactory(f SocketFactory) Option {
	return func(s *Session) {
		s.factory = f
	}
}

// WithMetrics records session activity into m.
func WithMetrics(m *metrics.Session) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithClock sets the time source used for the login timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Connected reports whether the WebSocket is currently open.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Region returns the region the token logs into.
func (s *Session) Region() auth.Region {
	return auth.RegionFor(s.token)
}

// LoginURL builds the authenticated WebSocket URL for the current time.
func (s *Session) LoginURL() string {
	base := fmt.Sprintf(s.endpoints.WSBaseURL, s.Region())
	path := fmt.Sprintf(s.endpoints.LoginPath,
		url.QueryEscape(auth.CleanToken(s.token)),
		auth.TimestampAt(s.now()),
	)
	return base + path
}

// Connect opens the WebSocket in a background worker and returns immediately.
//
// Network failures are not returned; they are reported through h.OnError and
// h.OnClose. Connect fails with ErrAlreadyConnected while the worker from a
// previous Connect is still running and has not yet reported its close. It may
// be called from OnClose to reconnect.
func (s *Session) Connect(h Handlers, opts RunOptions) error {
	if auth.CleanToken(s.token) == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.worker != nil && !finished(s.worker) && !s.fwd.closed {
		return ErrAlreadyConnected
	}

	s.handlers = h
	s.gen++

	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(userAgentHeader, s.endpoints.UserAgent)

	fwd := &forwarder{
		session: s,
		gen:     s.gen,
		logger:  s.logger.With("conn_id", uuid.NewString()),
	}

	fwd.logger.Debug("connecting websocket",
		"region", s.Region(),
		"host", fmt.Sprintf(s.endpoints.WSBaseURL, s.Region()),
	)

	sock := s.factory(s.LoginURL(), header, fwd.events())
	done := make(chan struct{})
	s.socket = sock
	s.worker = done
	s.fwd = fwd
	s.metrics.OnConnect()

	go func() {
		defer close(done)
		if err := sock.RunForever(opts); err != nil {
			fwd.logger.Debug("websocket run loop exited", "error", err)
		}
	}()

	return nil
}

// Disconnect closes the WebSocket and waits up to timeout for the worker.
//
// A timeout <= 0 uses DefaultDisconnectTimeout. Close failures are logged and
// dropped. The worker is not killed if it overruns; its later events are
// ignored. Safe to call without a prior Connect and more than once.
//
// Called from a handler, Disconnect does not wait: the worker is the caller.
// The close event is still delivered to OnClose once the handler returns.
func (s *Session) Disconnect(timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultDisconnectTimeout
	}

	s.mu.Lock()
	sock, worker, fwd := s.socket, s.worker, s.fwd
	s.socket, s.worker, s.fwd = nil, nil, nil
	s.mu.Unlock()

	if sock != nil {
		if err := sock.Close(); err != nil {
			s.logger.Debug("websocket close failed", "error", err)
		}
	}

	if fwd != nil && fwd.inCallback.Load() {
		s.mu.Lock()
		s.connected.Store(false)
		s.mu.Unlock()
		return
	}

	if worker != nil {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-worker:
		case <-timer.C:
			s.logger.Debug("websocket worker still running after disconnect", "timeout", timeout)
		}
	}

	s.mu.Lock()
	s.gen++
	s.connected.Store(false)
	s.mu.Unlock()
}

// dispatch applies mutate and returns the handlers if gen is still current.
func (s *Session) dispatch(gen uint64, mutate func()) (Handlers, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return Handlers{}, false
	}
	if mutate != nil {
		mutate()
	}
	return s.handlers, true
}

func finished(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// forwarder relays socket events for one Connect to the session's handlers.
type forwarder struct {
	session *Session
	gen     uint64
	logger  *slog.Logger

	inCallback atomic.Bool
	closed     bool // guarded by session.mu
}

func (f *forwarder) events() Events {
	return Events{
		Open:    f.onOpen,
		Message: f.onMessage,
		Error:   f.onError,
		Close:   f.onClose,
	}
}

func (f *forwarder) onOpen() {
	h, ok := f.session.dispatch(f.gen, func() { f.session.connected.Store(true) })
	if !ok {
		f.logger.Debug("dropping event from stale connection", "event", "open")
		return
	}

	f.session.metrics.OnOpen()
	f.logger.Debug("websocket opened")

	if h.OnOpen != nil {
		f.invoke("open", h.OnOpen)
	}
}

func (f *forwarder) onMessage(data []byte) {
	h, ok := f.session.dispatch(f.gen, nil)
	if !ok {
		return
	}

	f.session.metrics.OnMessage(len(data))

	if h.OnMessage != nil {
		f.invoke("message", func() { h.OnMessage(data) })
	}
}

func (f *forwarder) onError(err error) {
	h, ok := f.session.dispatch(f.gen, nil)
	if !ok {
		f.logger.Debug("dropping event from stale connection", "event", "error", "error", err)
		return
	}

	f.session.metrics.OnError()
	f.logger.Debug("websocket error", "error", err)

	if h.OnError != nil {
		f.invoke("error", func() { h.OnError(err) })
	}
}

func (f *forwarder) onClose(code int, reason string) {
	h, ok := f.session.dispatch(f.gen, func() {
		f.session.connected.Store(false)
		f.closed = true
	})
	if !ok {
		f.logger.Debug("dropping event from stale connection", "event", "close", "code", code)
		return
	}

	f.session.metrics.OnClose(code)
	f.logger.Debug("websocket closed", "code", code, "reason", reason)

	if h.OnClose != nil {
		f.invoke("close", func() { h.OnClose(code, reason) })
	}
}

// invoke runs a user callback and recovers any panic it raises.
func (f *forwarder) invoke(event string, fn func()) {
	f.inCallback.Store(true)
	defer func() {
		f.inCallback.Store(false)
		if r := recover(); r != nil {
			f.session.metrics.OnCallbackPanic(event)
			f.logger.Warn("callback failed", "event", event, "panic", r)
		}
	}()

	fn()
}
