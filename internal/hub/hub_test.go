package hub

import (
	"testing"
	"time"
)

func testClient(id string, h *Hub) *Client {
	return &Client{ID: id, Hub: h, Send: make(chan []byte, 8)}
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func TestBroadcastReachesOnlySessionViewers(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := testClient("a", h)
	b := testClient("b", h)
	c := testClient("c", h)
	for _, cl := range []*Client{a, b, c} {
		h.Register(cl)
	}

	h.JoinSession(a, "s1")
	h.JoinSession(b, "s1")
	h.JoinSession(c, "s2")

	h.Broadcast(&SessionMessage{SessionID: "s1", Message: []byte("hello")})

	if got := string(recv(t, a)); got != "hello" {
		t.Fatalf("a received %q", got)
	}
	if got := string(recv(t, b)); got != "hello" {
		t.Fatalf("b received %q", got)
	}
	select {
	case msg := <-c.Send:
		t.Fatalf("viewer of another session received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := testClient("a", h)
	b := testClient("b", h)
	h.Register(a)
	h.Register(b)
	h.JoinSession(a, "s1")
	h.JoinSession(b, "s1")

	h.Broadcast(&SessionMessage{SessionID: "s1", Message: []byte("echo"), Exclude: "a"})

	if got := string(recv(t, b)); got != "echo" {
		t.Fatalf("b received %q", got)
	}
	select {
	case msg := <-a.Send:
		t.Fatalf("excluded sender received %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestViewerAccounting(t *testing.T) {
	h := NewHub()
	go h.Run()

	a := testClient("a", h)
	h.Register(a)

	if h.HasSession("s1") {
		t.Fatalf("empty hub claims viewers for s1")
	}

	h.JoinSession(a, "s1")
	if n := h.SessionViewerCount("s1"); n != 1 {
		t.Fatalf("viewer count = %d, want 1", n)
	}
	if !h.HasSession("s1") {
		t.Fatalf("HasSession false with one viewer")
	}

	h.LeaveSession(a, "s1")
	if h.HasSession("s1") {
		t.Fatalf("session still tracked after last viewer left")
	}
}
