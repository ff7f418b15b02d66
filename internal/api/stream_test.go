package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_DropsSlowClient(t *testing.T) {
	h := NewHub()
	c := &streamClient{send: make(chan []byte, streamBuffer)}
	for i := 0; i < streamBuffer; i++ {
		c.send <- []byte("queued")
	}
	if !h.add(c) {
		t.Fatal("add rejected")
	}

	h.Broadcast([]byte("one too many"))
	if h.Len() != 0 {
		t.Fatalf("slow client kept, %d clients", h.Len())
	}
	n := 0
	for range c.send {
		n++
	}
	if n != streamBuffer {
		t.Fatalf("drained %d messages, want %d", n, streamBuffer)
	}

	// Removing an already dropped client must not close the channel twice.
	h.remove(c)
}

func TestHub_Capacity(t *testing.T) {
	h := NewHub()
	for i := 0; i < maxStreamConns; i++ {
		if !h.add(&streamClient{send: make(chan []byte, 1)}) {
			t.Fatalf("client %d rejected", i)
		}
	}
	if h.add(&streamClient{send: make(chan []byte, 1)}) {
		t.Fatal("client over the cap accepted")
	}
}

func TestStream_FirstMessageIsStatus(t *testing.T) {
	s, h := newTestServer(t, RateLimitConfig{})
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env struct {
		Type string         `json:"type"`
		Data statusResponse `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decode %q: %v", msg, err)
	}
	if env.Type != "status" || env.Data.Capacity != 1000 {
		t.Fatalf("first message = %+v", env)
	}

	s.Publish()
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read after publish: %v", err)
	}
	if !strings.Contains(string(msg), `"type":"status"`) {
		t.Fatalf("published message = %s", msg)
	}
}
