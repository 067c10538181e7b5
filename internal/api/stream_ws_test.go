package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, s *Server) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(s.EventsWSHandler))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
		srv.Close()
	}
}

func TestEventsWSSubscribe(t *testing.T) {
	s := newTestServer(t)
	conn, done := dialWS(t, s)
	defer done()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "connection_ack" {
		t.Fatalf("ack = %+v err = %v", ack, err)
	}

	pl, _ := json.Marshal(subscribePayload{Topic: GlobalTopic})
	if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	s.Broker.Publish(GlobalTopic, Event{Type: "day.completed", Data: map[string]any{"day": 1}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "next" || msg.ID != "1" {
		t.Fatalf("msg = %+v", msg)
	}
	var body struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(msg.Payload, &body); err != nil || body.Event != "day.completed" {
		t.Fatalf("payload = %s err = %v", msg.Payload, err)
	}
}

// Two subscriptions fan out from separate goroutines onto one connection;
// interleaved publishes must all arrive without killing the handler.
func TestEventsWSConcurrentFanout(t *testing.T) {
	s := newTestServer(t)
	conn, done := dialWS(t, s)
	defer done()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "connection_ack" {
		t.Fatalf("ack = %+v err = %v", ack, err)
	}
	for i, topic := range []string{"comp-a", "comp-b"} {
		pl, _ := json.Marshal(subscribePayload{Topic: topic})
		id := []string{"a", "b"}[i]
		if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: id, Payload: pl}); err != nil {
			t.Fatalf("subscribe %s: %v", topic, err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	// Paced below the subscriber buffer so the non-blocking broker never
	// drops; both topics still interleave on the shared connection.
	const perTopic = 10
	for _, topic := range []string{"comp-a", "comp-b"} {
		go func(topic string) {
			for i := 0; i < perTopic; i++ {
				s.Broker.Publish(topic, Event{Type: "day.completed", Data: map[string]any{"n": i}})
				time.Sleep(time.Millisecond)
			}
		}(topic)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := 0
	for got < 2*perTopic {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %d messages: %v", got, err)
		}
		if msg.Type == "next" {
			got++
		}
	}
}
