package http

import (
	"time"

	"arena_client/internal/http/handlers"
	"arena_client/internal/http/middleware"
	"arena_client/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limits - per-window request ceilings of the UI API
type Limits struct {
	APIRequests int
	APIWindow   time.Duration
	Moves       int
	MoveWindow  time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		APIRequests: 120,
		APIWindow:   time.Minute,
		Moves:       30,
		MoveWindow:  time.Minute,
	}
}

// RegisterRoutes mounts the UI API. The local identity is the only one allowed in.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, limits Limits) {
	r.Use(middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := []gin.HandlerFunc{middleware.JWT(), middleware.RequireIdentity(h.Identity)}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(limits.APIRequests, limits.APIWindow))
	v1.Use(auth...)
	{
		v1.GET("/session", h.GetSession)
		v1.POST("/session/move", middleware.MoveRateLimit(limits.Moves, limits.MoveWindow), h.PostMove)
		v1.POST("/session/cancel", h.PostCancel)
		v1.GET("/moves", h.GetMoves)
		v1.GET("/results", h.GetResults)
	}

	r.GET("/ws", append(auth, h.WS(hub))...)
}
