package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Client -> server event types.
const (
	EvtJoinClass  = "joinClass"
	EvtPostDoubt  = "postDoubt"
	EvtPostAnswer = "postAnswer"
)

// Server -> room event types.
const (
	EvtNewDoubt  = "newDoubt"
	EvtNewAnswer = "newAnswer"
)

// Event is the wire envelope for both directions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages class rooms. A connection joins any number of rooms and is
// forgotten entirely on disconnect; nothing is persisted or replayed.
type Hub struct {
	// class -> connection id -> connection; both maps are touched only by
	// the run goroutine, all mutation arrives over the channels below.
	rooms map[string]map[string]*Connection
	conns map[string]*Connection

	register   chan *Connection
	unregister chan *Connection
	join       chan joinRequest
	broadcast  chan *roomMessage

	log *zap.Logger
}

// Connection represents one connected client.
type Connection struct {
	ID   string
	Send chan []byte

	// rooms this connection joined; touched only by the hub goroutine.
	rooms map[string]bool
}

type joinRequest struct {
	conn  *Connection
	class string
}

type roomMessage struct {
	class string
	event *Event
}

// NewHub creates a hub and starts its event loop.
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[string]*Connection),
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		join:       make(chan joinRequest),
		broadcast:  make(chan *roomMessage, 256),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.conns[conn.ID] = conn
			h.log.Debug("client connected", zap.String("connId", conn.ID))

		case conn := <-h.unregister:
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				for class := range conn.rooms {
					if members, ok := h.rooms[class]; ok {
						delete(members, conn.ID)
						if len(members) == 0 {
							delete(h.rooms, class)
						}
					}
				}
				delete(h.conns, conn.ID)
				close(conn.Send)
				h.log.Debug("client disconnected", zap.String("connId", conn.ID))
			}

		case req := <-h.join:
			if _, ok := h.conns[req.conn.ID]; ok {
				if h.rooms[req.class] == nil {
					h.rooms[req.class] = make(map[string]*Connection)
				}
				h.rooms[req.class][req.conn.ID] = req.conn
				req.conn.rooms[req.class] = true
				h.log.Debug("client joined class",
					zap.String("connId", req.conn.ID), zap.String("class", req.class))
			}

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg.event)
			for _, conn := range h.rooms[msg.class] {
				select {
				case conn.Send <- data:
				default:
					// Drop rather than block on a slow client.
				}
			}
		}
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection and forgets its rooms.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Join subscribes a connection to a class room. Room membership is not
// authenticated here; the HTTP layer decides which class id a client gets.
func (h *Hub) Join(conn *Connection, class string) {
	h.join <- joinRequest{conn: conn, class: class}
}

// PublishNewDoubt delivers a newDoubt event to everyone currently in the
// class room (implements service.Broadcaster).
func (h *Hub) PublishNewDoubt(class string, doubt interface{}) {
	h.publish(class, EvtNewDoubt, doubt)
}

// PublishNewAnswer delivers a newAnswer event to everyone currently in the
// class room (implements service.Broadcaster).
func (h *Hub) PublishNewAnswer(class, doubtID string, answer interface{}) {
	h.publish(class, EvtNewAnswer, map[string]interface{}{
		"doubtId": doubtID,
		"answer":  answer,
	})
}

func (h *Hub) publish(class, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal event payload",
			zap.String("type", eventType), zap.Error(err))
		return
	}
	h.broadcast <- &roomMessage{
		class: class,
		event: &Event{Type: eventType, Payload: data},
	}
}
