package connection

import (
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrEmptyToken       = errors.New("access token is empty")
)

// DefaultDisconnectTimeout bounds how long Disconnect waits for the worker.
const DefaultDisconnectTimeout = 2 * time.Second

// userAgentHeader is the header name the Dreo gateway reads the client UA from.
const userAgentHeader = "UA"

// Handlers are the user callbacks a Session forwards events to.
// Any of them may be nil. They run on the session's worker goroutine,
// one at a time, in arrival order.
type Handlers struct {
	OnMessage func(payload []byte)
	OnError   func(err error)
	OnClose   func(code int, reason string)
	OnOpen    func()
}

// RunOptions are passed through to the socket's run loop.
// The zero value is valid.
type RunOptions struct {
	HandshakeTimeout time.Duration // Dial + upgrade timeout (0 = 10s)
	PingInterval     time.Duration // Keepalive ping period (0 = no pings)
	PingTimeout      time.Duration // Max silence before the read fails (0 = no deadline)
	ReadLimit        int64         // Max message size in bytes (0 = unlimited)
	Subprotocols     []string
	Header           http.Header // Extra handshake headers; UA is always overridden
}

func (o RunOptions) handshakeTimeout() time.Duration {
	if o.HandshakeTimeout > 0 {
		return o.HandshakeTimeout
	}
	return 10 * time.Second
}

// Endpoints configures how the login URL and headers are built.
type Endpoints struct {
	WSBaseURL string // fmt template with one %s for the region code
	LoginPath string // fmt template with %s for the token and %s for the timestamp
	UserAgent string
}

// DefaultEndpoints returns the production Dreo cloud endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		WSBaseURL: "wss://wsb-%s.dreo-cloud.com",
		LoginPath: "/websocket?accessToken=%s&timestamp=%s",
		UserAgent: "openapi/1.0.0",
	}
}

// Events are the low-level hooks a Socket reports to.
type Events struct {
	Open    func()
	Message func(data []byte)
	Error   func(err error)
	Close   func(code int, reason string)
}

func (e Events) emitOpen() {
	if e.Open != nil {
		e.Open()
	}
}

func (e Events) emitMessage(data []byte) {
	if e.Message != nil {
		e.Message(data)
	}
}

func (e Events) emitError(err error) {
	if e.Error != nil {
		e.Error(err)
	}
}

func (e Events) emitClose(code int, reason string) {
	if e.Close != nil {
		e.Close(code, reason)
	}
}

// Socket is a single WebSocket connection driven by a blocking run loop.
type Socket interface {
	// RunForever dials, reports events, and blocks until the connection ends.
	// It reports exactly one Close event before returning.
	RunForever(opts RunOptions) error

	// Close asks the run loop to stop. Safe to call before or after RunForever.
	Close() error
}

// SocketFactory creates a Socket for url that reports to ev.
type SocketFactory func(url string, header http.Header, ev Events) Socket
