package handlers

import (
	"net/http"
	"os"

	"arena_client/internal/http/middleware"
	"arena_client/internal/logger"
	"arena_client/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades an authenticated request and attaches the client to hub.
// Runs behind middleware.JWT, which accepts ?token= for browsers.
func (h *Handler) WS(hub *ws.Hub) gin.HandlerFunc {
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := ws.NewClient(c.GetString(middleware.IdentityKey), conn, hub, h)
		go client.Run()
	}
}
