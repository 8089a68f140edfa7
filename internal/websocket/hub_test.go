package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ai-qa-rag-be/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub) *Client {
	return &Client{
		Id:     uuid.New(),
		Hub:    h,
		Send:   make(chan []byte, 8),
		done:   make(chan struct{}),
		logger: h.logger,
	}
}

func receive(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case raw := <-c.Send:
		var f Frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
		return Frame{}
	}
}

func TestHub_BroadcastLocal(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	a, b := newTestClient(hub), newTestClient(hub)
	hub.register <- a
	hub.register <- b
	assert.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(ctx, "document_ingested", map[string]interface{}{"title": "Handbook"})

	for _, c := range []*Client{a, b} {
		f := receive(t, c)
		assert.Equal(t, "event", f.Type)
		assert.Equal(t, "document_ingested", f.Event)
	}
}

func TestHub_UnregisterClosesDone(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient(hub)
	hub.register <- c
	hub.unregister <- c

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
	assert.False(t, c.enqueue([]byte("late")))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(rdb, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newTestClient(hub)
	hub.register <- c

	// the subscription starts asynchronously, so publish until a frame arrives
	assert.Eventually(t, func() bool {
		hub.Broadcast(ctx, "unanswered_question_recorded", map[string]interface{}{"question": "q"})
		select {
		case raw := <-c.Send:
			var f Frame
			return json.Unmarshal(raw, &f) == nil && f.Event == "unanswered_question_recorded"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
}
