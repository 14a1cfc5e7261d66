package handler

import (
	"freightchat/internal/pkg/logger"
	"freightchat/internal/service"
	internalWS "freightchat/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SnapshotHandler upgrades renderer connections and streams state snapshots.
type SnapshotHandler struct {
	agent  service.IAgentService
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewSnapshotHandler(agent service.IAgentService, hub *internalWS.Hub, log logger.ILogger) *SnapshotHandler {
	return &SnapshotHandler{agent: agent, hub: hub, logger: log}
}

func (h *SnapshotHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

// ServeWs pushes the current snapshot on connect, then every change after it.
func (h *SnapshotHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SnapshotHandler", "Starting WebSocket session", map[string]interface{}{"remote": conn.RemoteAddr().String()})
		internalWS.ServeWs(h.hub, conn, internalWS.Frame{Type: "snapshot", Data: h.agent.State()})
		h.logger.Info("SnapshotHandler", "WebSocket session ended", nil)
	})(c)
}
