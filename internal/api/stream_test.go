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

func TestPlansWSSubscribe(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.PlansWSHandler))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		t.Fatal(err)
	}
	var ack wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "connection_ack" {
		t.Fatalf("ack: %+v err=%v", ack, err)
	}

	sub, _ := json.Marshal(wsSubscribePayload{PlanID: "p1"})
	if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: sub}); err != nil {
		t.Fatal(err)
	}

	// publish until the subscription is registered server-side
	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				s.Broker.Publish("p1", SSEEvent{Type: "solve.progress", Data: map[string]any{"iteration": 1}})
			}
		}
	}()

	var next wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read: %v", err)
	}
	if next.Type != "next" || next.ID != "1" {
		t.Fatalf("got %+v", next)
	}
	var evt SSEEvent
	if err := json.Unmarshal(next.Payload, &evt); err != nil || evt.Type != "solve.progress" {
		t.Fatalf("payload: %s err=%v", next.Payload, err)
	}
}

func TestPlansWSRequiresPlanID(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.PlansWSHandler))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("got %+v", msg)
	}
}
