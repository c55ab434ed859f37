package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket fan-out of plan events: the client subscribes to plan IDs and
// receives the same events the SSE stream carries.

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsSubscribePayload struct {
	PlanID string `json:"planId"`
}

// PlansWSHandler handles /ws/plans
func (s *Server) PlansWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	type sub struct {
		planID string
		ch     chan SSEEvent
	}
	subs := map[string]sub{}
	defer func() {
		for _, sb := range subs {
			s.Broker.Unsubscribe(sb.planID, sb.ch)
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error { _ = conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	// WriteJSON is not safe for concurrent use; fanout goroutines share this lock
	writes := make(chan any, 16)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case v := <-writes:
				if err := conn.WriteJSON(v); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	write := func(v any) {
		select {
		case writes <- v:
		default:
		}
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "connection_init":
			write(wsMessage{Type: "connection_ack"})
		case "ping":
			write(wsMessage{Type: "pong"})
		case "subscribe":
			var pl wsSubscribePayload
			_ = json.Unmarshal(msg.Payload, &pl)
			if pl.PlanID == "" {
				write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"planId required"}`)})
				continue
			}
			ch := s.Broker.Subscribe(pl.PlanID)
			subs[msg.ID] = sub{planID: pl.PlanID, ch: ch}
			go func(id string, c chan SSEEvent) {
				for evt := range c {
					data, _ := json.Marshal(evt)
					write(wsMessage{Type: "next", ID: id, Payload: data})
				}
				write(wsMessage{Type: "complete", ID: id})
			}(msg.ID, ch)
		case "complete":
			if sb, ok := subs[msg.ID]; ok {
				s.Broker.Unsubscribe(sb.planID, sb.ch)
				delete(subs, msg.ID)
			}
		}
	}
}
