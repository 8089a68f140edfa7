package websocket

import (
	"context"
	"encoding/json"
	"time"

	"ai-qa-rag-be/internal/dto"
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/pkg/serverutils"
	"ai-qa-rag-be/pkg/apperror"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	maxPendingAsks = 4
)

type Asker interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

// Frame is every server-to-client message.
type Frame struct {
	Type      string      `json:"type"` // "answer", "error" or "event"
	Event     string      `json:"event,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Id     uuid.UUID
	UserId string

	Hub   *Hub
	Conn  *websocket.Conn
	asker Asker

	// Buffered channel of outbound frames.
	Send chan []byte
	asks chan dto.AskRequest
	// done is closed by the hub on unregister; Send is never closed.
	done   chan struct{}
	logger logger.ILogger
}

// enqueue delivers a frame unless the client is gone or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) sendFrame(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		c.logger.Warn("WS", "Dropping frame for slow or closed client", map[string]interface{}{"client_id": c.Id.String()})
	}
}

func (c *Client) sendError(err error) {
	c.sendFrame(Frame{Type: "error", Error: err.Error(), ErrorKind: apperror.Kind(err)})
}

// readPump decodes one AskRequest per frame and hands it to askLoop.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WS", "Unexpected close", map[string]interface{}{"client_id": c.Id.String(), "error": err.Error()})
			}
			break
		}

		var req dto.AskRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.sendFrame(Frame{Type: "error", Error: "invalid ask frame", ErrorKind: "validation"})
			continue
		}
		req.UserId = c.UserId
		if err := serverutils.ValidateRequest(req); err != nil {
			c.sendError(err)
			continue
		}

		select {
		case c.asks <- req:
		default:
			c.sendFrame(Frame{Type: "error", Error: "too many pending questions", ErrorKind: "validation"})
		}
	}
}

// askLoop answers questions one at a time so replies keep the order of the questions.
func (c *Client) askLoop(ctx context.Context) {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.asks:
			res, err := c.asker.Ask(ctx, &req)
			if err != nil {
				c.sendError(err)
				continue
			}
			c.sendFrame(Frame{Type: "answer", Data: res})
		}
	}
}

// writePump pumps frames from Send to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs runs the client until the connection closes.
func ServeWs(hub *Hub, conn *websocket.Conn, asker Asker, userId string) {
	client := &Client{
		Id:     uuid.New(),
		UserId: userId,
		Hub:    hub,
		Conn:   conn,
		asker:  asker,
		Send:   make(chan []byte, 256),
		asks:   make(chan dto.AskRequest, maxPendingAsks),
		done:   make(chan struct{}),
		logger: hub.logger,
	}
	hub.register <- client

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.writePump()
	go client.askLoop(ctx)
	client.readPump()
}
