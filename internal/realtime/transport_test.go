package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsServer struct {
	*httptest.Server
	mu    sync.Mutex
	conns []*websocket.Conn
	recv  chan Message
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{recv: make(chan Message, 16)}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			s.recv <- msg
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) send(t *testing.T, msg Message) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no server-side connection")
	}
	if err := s.conns[len(s.conns)-1].WriteJSON(msg); err != nil {
		t.Fatalf("server send: %v", err)
	}
}

func (s *wsServer) dropLast(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) == 0 {
		t.Fatal("no server-side connection")
	}
	s.conns[len(s.conns)-1].Close()
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestWSTransportConnectAndExchange(t *testing.T) {
	server := newWSServer(t)

	connects := make(chan string, 4)
	messages := make(chan Message, 4)
	transport := NewWSTransport(WSConfig{
		URL:            server.URL,
		ReconnectDelay: 20 * time.Millisecond,
	}, Handlers{
		OnConnect:    func(id string) { connects <- id },
		OnMessage:    func(_ string, msg Message) { messages <- msg },
		OnDisconnect: func(string, error) {},
	})
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Start(ctx)

	select {
	case id := <-connects:
		if id == "" {
			t.Fatal("empty connection id")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("transport never connected")
	}

	if err := transport.Emit("auth-cajero", map[string]string{"token": "tok"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case msg := <-server.recv:
		if msg.Event != "auth-cajero" {
			t.Fatalf("server received %q", msg.Event)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received emitted frame")
	}

	server.send(t, Message{Event: "estadisticas", Payload: json.RawMessage(`{"n":1}`)})
	select {
	case msg := <-messages:
		if msg.Event != "estadisticas" {
			t.Fatalf("received %q", msg.Event)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client never received server frame")
	}
}

func TestWSTransportReconnectsWithFreshID(t *testing.T) {
	server := newWSServer(t)

	connects := make(chan string, 4)
	disconnects := make(chan string, 4)
	transport := NewWSTransport(WSConfig{
		URL:            server.URL,
		ReconnectDelay: 20 * time.Millisecond,
	}, Handlers{
		OnConnect:    func(id string) { connects <- id },
		OnMessage:    func(string, Message) {},
		OnDisconnect: func(id string, _ error) { disconnects <- id },
	})
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Start(ctx)

	var first string
	select {
	case first = <-connects:
	case <-time.After(3 * time.Second):
		t.Fatal("transport never connected")
	}

	server.dropLast(t)
	waitFor(t, disconnects, first)

	select {
	case second := <-connects:
		if second == first {
			t.Fatal("reconnect reused the old connection id")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("transport never reconnected")
	}
}

func TestWSTransportGivesUpAfterBoundedAttempts(t *testing.T) {
	disconnects := make(chan string, 1)
	transport := NewWSTransport(WSConfig{
		URL:               "http://127.0.0.1:1", // nothing listens here
		ReconnectAttempts: 2,
		ReconnectDelay:    10 * time.Millisecond,
		HandshakeTimeout:  100 * time.Millisecond,
	}, Handlers{
		OnConnect:    func(string) {},
		OnMessage:    func(string, Message) {},
		OnDisconnect: func(id string, _ error) { disconnects <- id },
	})
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Start(ctx)

	select {
	case id := <-disconnects:
		if id != "" {
			t.Fatalf("give-up callback carried connection id %q", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("transport never gave up")
	}
}

func TestWSTransportConcurrentEmits(t *testing.T) {
	server := newWSServer(t)

	connects := make(chan string, 1)
	transport := NewWSTransport(WSConfig{
		URL:            server.URL,
		ReconnectDelay: 20 * time.Millisecond,
	}, Handlers{
		OnConnect:    func(id string) { connects <- id },
		OnMessage:    func(string, Message) {},
		OnDisconnect: func(string, error) {},
	})
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	transport.Start(ctx)

	select {
	case <-connects:
	case <-time.After(3 * time.Second):
		t.Fatal("transport never connected")
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- transport.Emit("estado-actualizado", map[string]int{"n": 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	for i := 0; i < writers; i++ {
		select {
		case msg := <-server.recv:
			if msg.Event != "estado-actualizado" {
				t.Fatalf("server received %q", msg.Event)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("server received %d of %d frames", i, writers)
		}
	}
}

func TestWSTransportEmitWithoutConnection(t *testing.T) {
	transport := NewWSTransport(WSConfig{URL: "http://example.invalid"}, Handlers{
		OnConnect:    func(string) {},
		OnMessage:    func(string, Message) {},
		OnDisconnect: func(string, error) {},
	})
	if err := transport.Emit("ping", nil); err != ErrNotConnected {
		t.Fatalf("Emit() = %v, want ErrNotConnected", err)
	}
}
