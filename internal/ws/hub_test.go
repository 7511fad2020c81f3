package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	got    [][]byte
	err    error
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.got = append(c.got, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestPublish_QueuesEnvelope(t *testing.T) {
	h := NewHub(zap.NewNop())

	h.Publish(Event{Type: EventStockUpdate, Action: "reserved", Data: map[string]int{"stock": 4}})

	require.Len(t, h.Broadcast, 1)
	msg := <-h.Broadcast
	assert.Empty(t, msg.owner)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "stock_update", got["type"])
	assert.Equal(t, "reserved", got["action"])
	assert.NotContains(t, got, "message")
	assert.NotContains(t, got, "Owner")
}

func TestPublish_DropsWhenQueueFull(t *testing.T) {
	h := NewHub(zap.NewNop())
	for i := 0; i < cap(h.Broadcast)+10; i++ {
		h.Publish(Event{Type: EventOrderUpdate, Action: "created"})
	}
	assert.Equal(t, cap(h.Broadcast), len(h.Broadcast))
}

func TestPublish_NilHub(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Event{Type: EventStockUpdate}) })
}

func TestClientReceives(t *testing.T) {
	shopper := &Client{UserID: "u1"}
	staff := &Client{UserID: "admin", Staff: true}

	assert.True(t, shopper.Receives(""))
	assert.True(t, shopper.Receives("u1"))
	assert.False(t, shopper.Receives("u2"))
	assert.True(t, staff.Receives("u2"))
}

func TestRun_RoutesOrderEventsToOwnerAndStaff(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Run()

	owner, other, staff, broken := &fakeConn{}, &fakeConn{}, &fakeConn{}, &fakeConn{err: errors.New("gone")}
	h.Register <- &Client{Conn: owner, UserID: "u1"}
	h.Register <- &Client{Conn: other, UserID: "u2"}
	h.Register <- &Client{Conn: staff, UserID: "admin", Staff: true}
	h.Register <- &Client{Conn: broken, UserID: "u3"}

	h.Publish(Event{Type: EventOrderUpdate, Action: "paid", Owner: "u1"})
	h.Publish(Event{Type: EventStockUpdate, Action: "reserved"})

	require.Eventually(t, func() bool {
		return owner.count() == 2 && staff.count() == 2 && other.count() == 1
	}, time.Second, 5*time.Millisecond)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(other.got[0], &first))
	assert.Equal(t, "stock_update", first["type"])

	assert.Eventually(t, func() bool { return h.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	broken.mu.Lock()
	assert.True(t, broken.closed)
	broken.mu.Unlock()
}
