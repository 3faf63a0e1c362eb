package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn feeds scripted inbound frames and records outbound ones.
type fakeConn struct {
	mu      sync.Mutex
	inbound chan []byte
	written []Message
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 8)}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return websocket.TextMessage, data, nil
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == websocket.TextMessage {
		f.written = append(f.written, NewJSONMessage(append([]byte(nil), data...)))
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.written))
	for i, m := range f.written {
		out[i] = string(m.Data)
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	waitFor(t, "hub running", h.IsRunning)
	return h
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h := startHub(t)

	a, b := newFakeConn(), newFakeConn()
	ca, cb := NewClient(h, a, nil), NewClient(h, b, nil)
	go ca.Run()
	go cb.Run()
	waitFor(t, "two clients", func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]int{"tick": 1}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "delivery", func() bool { return len(a.messages()) == 1 && len(b.messages()) == 1 })
	if got := a.messages()[0]; got != `{"tick":1}` {
		t.Errorf("got %s", got)
	}

	close(a.inbound)
	waitFor(t, "unregister", func() bool { return h.ClientCount() == 1 })
}

func TestHub_ReplaysLastMessage(t *testing.T) {
	h := startHub(t)
	_ = h.BroadcastJSON("first")
	_ = h.BroadcastJSON("second")

	conn := newFakeConn()
	c := NewClient(h, conn, nil)
	go c.Run()

	waitFor(t, "replay", func() bool { return len(conn.messages()) >= 1 })
	if got := conn.messages()[0]; got != `"second"` {
		t.Errorf("replayed %s, want the latest message", got)
	}
}

func TestClient_ForwardsInbound(t *testing.T) {
	h := startHub(t)

	var mu sync.Mutex
	var got []string
	conn := newFakeConn()
	c := NewClient(h, conn, func(data []byte) {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
	})
	go c.Run()

	conn.inbound <- []byte(`{"type":"press","button":"cross"}`)
	waitFor(t, "inbound", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("stop")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	waitFor(t, "hub running", h.IsRunning)

	conn := newFakeConn()
	c := NewClient(h, conn, nil)
	go c.writePump()
	waitFor(t, "client", func() bool { return h.ClientCount() == 1 })

	cancel()
	<-done
	waitFor(t, "close", func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	})
	if h.ClientCount() != 0 || h.IsRunning() {
		t.Errorf("count %d running %v", h.ClientCount(), h.IsRunning())
	}
}
