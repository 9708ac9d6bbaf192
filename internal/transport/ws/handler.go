package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades HTTP connections and bridges them into the hub.
type Handler struct {
	hub *Hub
	log *zap.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, log *zap.Logger) *Handler {
	return &Handler{hub: hub, log: log}
}

// Serve handles GET /v1/ws.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		ID:    uuid.New().String(),
		Send:  make(chan []byte, 256),
		rooms: make(map[string]bool),
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// readPump consumes client events: joinClass subscriptions and the
// postDoubt/postAnswer relays that submission paths use to trigger fan-out.
func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			h.log.Debug("dropping malformed event", zap.Error(err))
			continue
		}

		h.handleEvent(conn, &evt)
	}
}

func (h *Handler) handleEvent(conn *Connection, evt *Event) {
	switch evt.Type {
	case EvtJoinClass:
		var class string
		if err := json.Unmarshal(evt.Payload, &class); err != nil || class == "" {
			return
		}
		h.hub.Join(conn, class)

	case EvtPostDoubt:
		var relay struct {
			ClassID string          `json:"classId"`
			Doubt   json.RawMessage `json:"doubt"`
		}
		if err := json.Unmarshal(evt.Payload, &relay); err != nil || relay.ClassID == "" {
			return
		}
		h.hub.broadcast <- &roomMessage{
			class: relay.ClassID,
			event: &Event{Type: EvtNewDoubt, Payload: relay.Doubt},
		}

	case EvtPostAnswer:
		var relay struct {
			DoubtID string          `json:"doubtId"`
			ClassID string          `json:"classId"`
			Answer  json.RawMessage `json:"answer"`
		}
		if err := json.Unmarshal(evt.Payload, &relay); err != nil || relay.ClassID == "" {
			return
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"doubtId": relay.DoubtID,
			"answer":  relay.Answer,
		})
		h.hub.broadcast <- &roomMessage{
			class: relay.ClassID,
			event: &Event{Type: EvtNewAnswer, Payload: payload},
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
