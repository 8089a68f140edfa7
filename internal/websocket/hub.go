package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-qa-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "rag_cluster_events"

// Hub tracks connected ask clients and fans out event frames, across instances through Redis.
type Hub struct {
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication, optional
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			h.mu.Unlock()
			h.logger.Debug("WS", "Client registered", map[string]interface{}{"client_id": client.Id.String()})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.Id]; ok {
				delete(h.clients, client.Id)
				close(client.done)
			}
			h.mu.Unlock()
			h.logger.Debug("WS", "Client unregistered", map[string]interface{}{"client_id": client.Id.String()})
		}
	}
}

// ClientCount returns the number of locally connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event frame to every client on every instance.
func (h *Hub) Broadcast(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(Frame{Type: "event", Event: eventType, Data: payload})
	if err != nil {
		h.logger.Error("WS", "Failed to encode event frame", map[string]interface{}{"error": err.Error()})
		return
	}

	if h.rdb != nil {
		// every instance, this one included, delivers from the Redis subscription
		if err := h.rdb.Publish(ctx, clusterChannel, data).Err(); err == nil {
			return
		}
		h.logger.Warn("WS", "Redis publish failed, delivering locally only", nil)
	}
	h.deliverLocal(data)
}

func (h *Hub) deliverLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.enqueue(data) {
			h.logger.Warn("WS", "Client buffer full, dropping event", map[string]interface{}{"client_id": client.Id.String()})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliverLocal([]byte(msg.Payload))
	}
}
