package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConn(id string) *Connection {
	return &Connection{
		ID:    id,
		Send:  make(chan []byte, 16),
		rooms: make(map[string]bool),
	}
}

func recvEvent(t *testing.T, conn *Connection) *Event {
	t.Helper()
	select {
	case data := <-conn.Send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return &evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertSilent(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected event delivered: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFanOutIsolatedPerClass(t *testing.T) {
	h := NewHub(zap.NewNop())

	connA := newTestConn("a")
	connB := newTestConn("b")
	h.Register(connA)
	h.Register(connB)
	h.Join(connA, "10A")
	h.Join(connB, "10B")

	h.PublishNewDoubt("10A", map[string]string{"id": "d1", "title": "why?"})

	evt := recvEvent(t, connA)
	assert.Equal(t, EvtNewDoubt, evt.Type)
	assert.Contains(t, string(evt.Payload), "d1")

	assertSilent(t, connB)
}

func TestPublishNewAnswerPayload(t *testing.T) {
	h := NewHub(zap.NewNop())

	conn := newTestConn("a")
	h.Register(conn)
	h.Join(conn, "10A")

	h.PublishNewAnswer("10A", "d1", map[string]string{"content": "because"})

	evt := recvEvent(t, conn)
	assert.Equal(t, EvtNewAnswer, evt.Type)

	var payload struct {
		DoubtID string          `json:"doubtId"`
		Answer  json.RawMessage `json:"answer"`
	}
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	assert.Equal(t, "d1", payload.DoubtID)
	assert.Contains(t, string(payload.Answer), "because")
}

func TestMultipleMembersReceiveBroadcast(t *testing.T) {
	h := NewHub(zap.NewNop())

	conns := []*Connection{newTestConn("a"), newTestConn("b"), newTestConn("c")}
	for _, c := range conns {
		h.Register(c)
		h.Join(c, "10A")
	}

	h.PublishNewDoubt("10A", map[string]string{"id": "d1"})

	for _, c := range conns {
		evt := recvEvent(t, c)
		assert.Equal(t, EvtNewDoubt, evt.Type)
	}
}

func TestDisconnectForgetsRooms(t *testing.T) {
	h := NewHub(zap.NewNop())

	conn := newTestConn("a")
	h.Register(conn)
	h.Join(conn, "10A")
	h.Unregister(conn)

	// Send channel is closed once the hub forgets the connection.
	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed on disconnect")
	}

	// Publishing afterwards must not panic or deliver.
	h.PublishNewDoubt("10A", map[string]string{"id": "d2"})
}

func TestRelayEventsReachRoom(t *testing.T) {
	h := NewHub(zap.NewNop())
	handler := NewHandler(h, zap.NewNop())

	member := newTestConn("member")
	poster := newTestConn("poster")
	h.Register(member)
	h.Register(poster)

	handler.handleEvent(member, &Event{Type: EvtJoinClass, Payload: json.RawMessage(`"10A"`)})

	handler.handleEvent(poster, &Event{
		Type:    EvtPostDoubt,
		Payload: json.RawMessage(`{"classId":"10A","doubt":{"id":"d1","title":"why?"}}`),
	})
	evt := recvEvent(t, member)
	assert.Equal(t, EvtNewDoubt, evt.Type)
	assert.Contains(t, string(evt.Payload), "d1")

	handler.handleEvent(poster, &Event{
		Type:    EvtPostAnswer,
		Payload: json.RawMessage(`{"doubtId":"d1","classId":"10A","answer":{"content":"because"}}`),
	})
	evt = recvEvent(t, member)
	assert.Equal(t, EvtNewAnswer, evt.Type)
	assert.Contains(t, string(evt.Payload), "because")

	// Relays to another class stay invisible.
	handler.handleEvent(poster, &Event{
		Type:    EvtPostDoubt,
		Payload: json.RawMessage(`{"classId":"10B","doubt":{"id":"d2"}}`),
	})
	assertSilent(t, member)
}
