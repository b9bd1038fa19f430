package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client implements Socket on top of gorilla/websocket.
type client struct {
	url    string
	header http.Header
	events Events
	logger *slog.Logger

	// State
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// NewSocketFactory returns the default SocketFactory backed by gorilla/websocket.
func NewSocketFactory(logger *slog.Logger) SocketFactory {
	if logger == nil {
		logger = slog.Default()
	}

	return func(url string, header http.Header, ev Events) Socket {
		return &client{
			url:    url,
			header: header,
			events: ev,
			logger: logger,
			done:   make(chan struct{}),
		}
	}
}

// RunForever dials the server and reads until the connection ends.
func (c *client) RunForever(opts RunOptions) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Abort a pending dial when Close is called
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.handshakeTimeout(),
		Subprotocols:     opts.Subprotocols,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		if c.isClosed() {
			c.events.emitClose(websocket.CloseNormalClosure, "")
			return nil
		}
		c.events.emitError(err)
		c.events.emitClose(websocket.CloseAbnormalClosure, "")
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		c.events.emitClose(websocket.CloseNormalClosure, "")
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	if opts.ReadLimit > 0 {
		conn.SetReadLimit(opts.ReadLimit)
	}
	if opts.PingTimeout > 0 {
		c.extendDeadline(conn, opts.PingTimeout)

		conn.SetPingHandler(func(data string) error {
			c.extendDeadline(conn, opts.PingTimeout)
			err := conn.WriteControl(
				websocket.PongMessage,
				[]byte(data),
				time.Now().Add(time.Second),
			)
			if errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		})
		conn.SetPongHandler(func(string) error {
			c.extendDeadline(conn, opts.PingTimeout)
			return nil
		})
	}

	c.events.emitOpen()

	stop := make(chan struct{})
	defer close(stop)
	if opts.PingInterval > 0 {
		go c.heartbeatLoop(conn, opts.PingInterval, stop)
	}

	return c.readLoop(conn, opts.PingTimeout)
}

// Close sends a normal closure and closes the connection.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	close(c.done)

	if conn == nil {
		return nil
	}

	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.Close()
}

func (c *client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *client) extendDeadline(conn *websocket.Conn, timeout time.Duration) {
	conn.SetReadDeadline(time.Now().Add(timeout))
}

// readLoop forwards frames until the connection fails or is closed.
func (c *client) readLoop(conn *websocket.Conn, pingTimeout time.Duration) error {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			switch {
			case errors.As(err, &closeErr):
				c.events.emitClose(closeErr.Code, closeErr.Text)
				return nil
			case c.isClosed():
				// Ignore errors after Close() is called
				c.events.emitClose(websocket.CloseNormalClosure, "")
				return nil
			default:
				c.events.emitError(err)
				c.events.emitClose(websocket.CloseAbnormalClosure, "")
				return err
			}
		}

		if pingTimeout > 0 {
			c.extendDeadline(conn, pingTimeout)
		}

		c.events.emitMessage(data)
	}
}

// heartbeatLoop sends keepalive pings until stop is closed.
func (c *client) heartbeatLoop(conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(interval)
			if err := conn.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
