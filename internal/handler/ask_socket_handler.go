package handler

import (
	"ai-qa-rag-be/internal/pkg/logger"
	"ai-qa-rag-be/internal/pkg/serverutils"
	internalWS "ai-qa-rag-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// AskSocketHandler serves the streaming ask channel and pushes document events to connected clients.
type AskSocketHandler struct {
	hub       *internalWS.Hub
	asker     internalWS.Asker
	jwtSecret string
	logger    logger.ILogger
}

func NewAskSocketHandler(hub *internalWS.Hub, asker internalWS.Asker, jwtSecret string, log logger.ILogger) *AskSocketHandler {
	return &AskSocketHandler{
		hub:       hub,
		asker:     asker,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

func (h *AskSocketHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/ws/v1")
	g.Get("/ask", serverutils.OptionalUserMiddleware(h.jwtSecret), h.ServeWs)
	g.Get("/stats", h.Stats)
}

// ServeWs upgrades the connection. The optional user id is resolved before the upgrade.
func (h *AskSocketHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userId := serverutils.UserId(c)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("AskSocketHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userId})
		internalWS.ServeWs(h.hub, conn, h.asker, userId)
		h.logger.Info("AskSocketHandler", "WebSocket session ended", map[string]interface{}{"user_id": userId})
	})(c)
}

func (h *AskSocketHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Success get websocket stats", fiber.Map{
		"clients": h.hub.ClientCount(),
	}))
}
