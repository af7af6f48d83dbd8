package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/pkg/logger"
)

// ErrNotConnected is returned by Emit when no connection is established.
var ErrNotConnected = errors.New("realtime: transport not connected")

// Message is one event frame on the wire.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handlers receives transport lifecycle callbacks. Each established
// connection is identified by a fresh connection id; a callback with an
// empty id reports a transport that gave up before connecting.
type Handlers struct {
	OnConnect    func(connID string)
	OnMessage    func(connID string, msg Message)
	OnDisconnect func(connID string, reason error)
}

// Transport is a duplex event channel with built-in reconnection.
type Transport interface {
	Start(ctx context.Context)
	Emit(event string, payload interface{}) error
	Close() error
}

// Factory builds a transport bound to the given handlers. The manager uses
// it to tear down and replace transports across connect cycles.
type Factory func(h Handlers) Transport

// WSConfig configures the websocket transport.
type WSConfig struct {
	// URL is the backend base URL; http(s) schemes are rewritten to ws(s).
	URL string
	// ReconnectAttempts bounds consecutive failed dials before giving up.
	ReconnectAttempts int
	// ReconnectDelay is the fixed wait between attempts.
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	Logger           *logger.Logger
}

func (c *WSConfig) withDefaults() {
	if c.ReconnectAttempts == 0 {
		c.ReconnectAttempts = 5
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logger.NewDefault("realtime.ws")
	}
}

// WSTransport is a websocket transport exchanging JSON event frames. It
// redials with a fixed delay and a bounded attempt count; the attempt
// counter resets after every established connection.
type WSTransport struct {
	cfg      WSConfig
	url      string
	handlers Handlers
	log      *logger.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	connID string
	closed bool
	done   chan struct{}

	// writeMu serializes frame writes; gorilla allows one writer at a time.
	writeMu sync.Mutex
}

// NewWSTransport creates a websocket transport. Start must be called to
// begin dialing.
func NewWSTransport(cfg WSConfig, h Handlers) *WSTransport {
	cfg.withDefaults()
	return &WSTransport{
		cfg:      cfg,
		url:      wsURL(cfg.URL),
		handlers: h,
		log:      cfg.Logger,
		done:     make(chan struct{}),
	}
}

// WSFactory returns a transport factory over the given config.
func WSFactory(cfg WSConfig) Factory {
	return func(h Handlers) Transport { return NewWSTransport(cfg, h) }
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https"):
		base = "wss" + base[len("https"):]
	case strings.HasPrefix(base, "http"):
		base = "ws" + base[len("http"):]
	}
	return strings.TrimRight(base, "/") + "/ws"
}

// Start launches the dial/read loop.
func (t *WSTransport) Start(ctx context.Context) {
	go t.run(ctx)
}

func (t *WSTransport) run(ctx context.Context) {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		default:
		}

		dialer := websocket.Dialer{HandshakeTimeout: t.cfg.HandshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			attempts++
			t.log.WithError(err).WithField("attempt", attempts).Warn("websocket dial failed")
			if attempts >= t.cfg.ReconnectAttempts {
				t.log.Error("websocket reconnect attempts exhausted")
				t.handlers.OnDisconnect("", err)
				return
			}
			metrics.RealtimeReconnect()
			if !t.sleep(ctx, t.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		attempts = 0
		connID := uuid.NewString()
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.conn = conn
		t.connID = connID
		t.mu.Unlock()

		t.handlers.OnConnect(connID)
		readErr := t.readLoop(conn, connID)

		t.mu.Lock()
		t.conn = nil
		t.connID = ""
		closed := t.closed
		t.mu.Unlock()

		t.handlers.OnDisconnect(connID, readErr)
		if closed {
			return
		}
		metrics.RealtimeReconnect()
		if !t.sleep(ctx, t.cfg.ReconnectDelay) {
			return
		}
	}
}

func (t *WSTransport) readLoop(conn *websocket.Conn, connID string) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.log.WithError(err).Debug("discarding malformed frame")
			continue
		}
		t.handlers.OnMessage(connID, msg)
	}
}

func (t *WSTransport) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.done:
		return false
	case <-timer.C:
		return true
	}
}

// Emit sends one event frame on the current connection.
func (t *WSTransport) Emit(event string, payload interface{}) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	msg := map[string]interface{}{"event": event}
	if payload != nil {
		msg["payload"] = payload
	}
	t.writeMu.Lock()
	err := conn.WriteJSON(msg)
	t.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("realtime: send %s: %w", event, err)
	}
	return nil
}

// Close tears the transport down and stops reconnecting.
func (t *WSTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	close(t.done)
	t.mu.Unlock()

	if conn != nil {
		t.writeMu.Lock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		t.writeMu.Unlock()
		return conn.Close()
	}
	return nil
}
