// Package realtime maintains the authenticated duplex connection to the
// backend and relays server pushes to in-process subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/pkg/logger"
)

// ConnState is the derived view of the manager's connection state.
type ConnState struct {
	IsConnected      bool
	IsConnecting     bool
	IsAuthenticating bool
	SocketID         string
}

// state is the manager's internal connection phase. All transitions go
// through the transition method.
type state int

const (
	stateIdle state = iota
	stateConnecting
	stateConnected
	stateAuthenticating
	stateAuthenticated
	stateAuthFailed
	stateDisconnected
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateAuthenticating:
		return "authenticating"
	case stateAuthenticated:
		return "authenticated"
	case stateAuthFailed:
		return "auth_failed"
	case stateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Handler receives the raw payload of one event emission.
type Handler func(payload json.RawMessage)

// TokenSource provides the current bearer token. An empty string means no
// credential is available.
type TokenSource interface {
	Token() string
}

type subscription struct {
	id uintptr
	fn Handler
}

// Manager owns at most one live transport, authenticates it after every
// (re)connect and fans server events out to subscribers. The subscriber
// registry outlives individual connections.
type Manager struct {
	tokens  TokenSource
	factory Factory
	log     *logger.Logger

	mu        sync.Mutex
	state     state
	transport Transport
	connID    string
	joinSent  bool
	subs      map[string][]subscription
}

// NewManager creates a manager. The factory builds transports on demand;
// the logger may be nil.
func NewManager(tokens TokenSource, factory Factory, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("realtime")
	}
	return &Manager{
		tokens:  tokens,
		factory: factory,
		log:     log,
		subs:    make(map[string][]subscription),
	}
}

// Connect establishes the duplex connection. Without a stored credential it
// is a logged no-op; the caller retries after login. Re-entrant calls while
// a connection is live or being established are absorbed.
func (m *Manager) Connect(ctx context.Context) {
	token := m.tokens.Token()
	if token == "" {
		m.log.Warn("connect skipped, no session token")
		return
	}

	m.mu.Lock()
	switch m.state {
	case stateConnecting, stateConnected, stateAuthenticating, stateAuthenticated:
		m.mu.Unlock()
		return
	}
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
		m.connID = ""
	}
	m.transition(stateConnecting)
	t := m.factory(Handlers{
		OnConnect:    m.onConnect,
		OnMessage:    m.onMessage,
		OnDisconnect: m.onDisconnect,
	})
	m.transport = t
	m.mu.Unlock()

	t.Start(ctx)
}

// Disconnect tears the transport down and clears all connection state. The
// subscriber registry is untouched.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.connID = ""
	m.joinSent = false
	wasIdle := m.state == stateIdle
	m.transition(stateIdle)
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	metrics.SetRealtimeConnected(false)
	if !wasIdle {
		m.dispatch(EventDisconnected, reasonPayload("client disconnect"))
	}
}

// EmitToServer sends an event on the live connection.
func (m *Manager) EmitToServer(event string, payload interface{}) error {
	m.mu.Lock()
	t := m.transport
	connected := m.connID != ""
	m.mu.Unlock()

	if t == nil || !connected {
		return ErrNotConnected
	}
	return t.Emit(event, payload)
}

// On subscribes a handler to an event. Registering the same handler
// reference twice for the same event keeps a single entry.
func (m *Manager) On(event string, fn Handler) {
	id := reflect.ValueOf(fn).Pointer()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs[event] {
		if sub.id == id {
			return
		}
	}
	m.subs[event] = append(m.subs[event], subscription{id: id, fn: fn})
}

// Off removes at most one registered instance of the handler.
func (m *Manager) Off(event string, fn Handler) {
	id := reflect.ValueOf(fn).Pointer()
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := m.subs[event]
	for i, sub := range subs {
		if sub.id == id {
			m.subs[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// GetConnectionState returns the derived connection state.
func (m *Manager) GetConnectionState() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := ConnState{SocketID: m.connID}
	switch m.state {
	case stateConnecting:
		s.IsConnecting = true
	case stateConnected, stateAuthenticated, stateAuthFailed:
		s.IsConnected = true
	case stateAuthenticating:
		s.IsConnected = true
		s.IsAuthenticating = true
	}
	return s
}

// IsConnected reports whether a transport connection is established.
func (m *Manager) IsConnected() bool {
	return m.GetConnectionState().IsConnected
}

// transition moves the state machine. Callers hold the mutex.
func (m *Manager) transition(to state) {
	if m.state == to {
		return
	}
	m.log.WithFields(map[string]interface{}{
		"from": m.state.String(),
		"to":   to.String(),
	}).Debug("connection state changed")
	m.state = to
}

func (m *Manager) onConnect(connID string) {
	token := m.tokens.Token()

	m.mu.Lock()
	if m.transport == nil {
		m.mu.Unlock()
		return
	}
	m.connID = connID
	m.joinSent = false
	m.transition(stateConnected)
	t := m.transport
	m.mu.Unlock()

	metrics.SetRealtimeConnected(true)
	m.dispatch(EventConnected, nil)

	if token == "" {
		m.log.Warn("connected without session token, skipping authentication")
		return
	}

	m.mu.Lock()
	if m.connID == connID {
		m.transition(stateAuthenticating)
	}
	m.mu.Unlock()

	if err := t.Emit(wireAuth, map[string]string{"token": token}); err != nil {
		m.log.WithError(err).Error("authentication request failed")
	}
}

func (m *Manager) onMessage(connID string, msg Message) {
	m.mu.Lock()
	current := m.connID == connID
	m.mu.Unlock()
	if !current {
		// Late event from a torn-down connection.
		return
	}

	metrics.RealtimeEvent(msg.Event)

	switch msg.Event {
	case wireAuthResult:
		m.onAuthResult(connID, msg.Payload)
	case wireSessionReplaced:
		m.onSessionReplaced(msg.Payload)
	default:
		m.dispatch(msg.Event, msg.Payload)
		if alias, known := relayAliases[msg.Event]; known {
			m.dispatch(alias, msg.Payload)
		}
	}
}

func (m *Manager) onAuthResult(connID string, payload json.RawMessage) {
	doc := gjson.ParseBytes(payload)
	success := doc.Get("success").Bool() || doc.Get("exito").Bool()

	if !success {
		m.mu.Lock()
		if m.connID == connID {
			m.transition(stateAuthFailed)
		}
		m.mu.Unlock()
		m.log.WithField("detail", doc.Get("error").String()).Warn("realtime authentication rejected")
		m.dispatch(EventAuthError, payload)
		return
	}

	m.mu.Lock()
	var t Transport
	join := false
	if m.connID == connID {
		m.transition(stateAuthenticated)
		if !m.joinSent {
			m.joinSent = true
			join = true
			t = m.transport
		}
	}
	m.mu.Unlock()

	m.dispatch(EventAuthenticated, payload)
	if join && t != nil {
		if err := t.Emit(wireJoinDashboard, nil); err != nil {
			m.log.WithError(err).Error("dashboard join request failed")
		}
	}
}

func (m *Manager) onSessionReplaced(payload json.RawMessage) {
	m.log.Warn("session replaced by another connection")
	m.dispatch(EventSessionReplaced, payload)

	m.mu.Lock()
	t := m.transport
	m.transport = nil
	m.connID = ""
	m.joinSent = false
	m.transition(stateDisconnected)
	m.mu.Unlock()

	if t != nil {
		t.Close()
	}
	metrics.SetRealtimeConnected(false)
	m.dispatch(EventDisconnected, reasonPayload("session-replaced"))
}

func (m *Manager) onDisconnect(connID string, reason error) {
	m.mu.Lock()
	if connID != "" && m.connID != connID {
		m.mu.Unlock()
		return
	}
	gaveUp := connID == ""
	m.connID = ""
	m.joinSent = false
	if m.transport == nil {
		// Explicit disconnect already reported.
		m.mu.Unlock()
		return
	}
	if gaveUp {
		m.transport = nil
	}
	m.transition(stateDisconnected)
	m.mu.Unlock()

	metrics.SetRealtimeConnected(false)
	detail := "transport closed"
	if reason != nil {
		detail = reason.Error()
	}
	m.log.WithField("reason", detail).Info("realtime disconnected")
	if gaveUp {
		m.dispatch(EventError, reasonPayload(detail))
	}
	m.dispatch(EventDisconnected, reasonPayload(detail))
}

// dispatch delivers an event to all subscribers synchronously. A panicking
// subscriber is isolated so the others still receive the emission.
func (m *Manager) dispatch(event string, payload json.RawMessage) {
	m.mu.Lock()
	subs := make([]subscription, len(m.subs[event]))
	copy(subs, m.subs[event])
	m.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithFields(map[string]interface{}{
						"event": event,
						"panic": r,
					}).Error("subscriber panicked")
				}
			}()
			sub.fn(payload)
		}()
	}
}

func reasonPayload(reason string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"reason": reason})
	return data
}
