package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"arena_client/internal/domain"
	"arena_client/internal/game"
	"arena_client/internal/logger"
	"arena_client/internal/session"
	"arena_client/internal/ws"

	"github.com/gin-gonic/gin"
)

// GetSession returns the latest status and the open move prompt, if any
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": h.Session.Status(),
		"prompt": h.Moves.Pending(),
	})
}

// PostMove answers the open prompt with a move id or a key code
func (h *Handler) PostMove(c *gin.Context) {
	var req ws.MovePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.SubmitMove(c.Request.Context(), req)
	switch {
	case err == nil:
		m, _ := h.Session.Catalog().ByID(id)
		c.JSON(http.StatusAccepted, gin.H{"move_id": id, "name": m.Name})
	case errors.Is(err, domain.ErrInvalidMove):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotAwaitingMove), errors.Is(err, session.ErrMoveQueued):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// SubmitMove resolves p and hands it to the waiting prompt
func (h *Handler) SubmitMove(_ context.Context, p ws.MovePayload) (uint8, error) {
	prompt := h.Moves.Pending()
	if prompt == nil {
		return 0, session.ErrNotAwaitingMove
	}

	// keys name a slot of the prompt, so they resolve against its moves
	m, err := h.Session.Catalog().Resolve(prompt.Moves, p.MoveID, p.Key)
	if err != nil {
		return 0, err
	}
	if !offered(prompt.Moves, m.ID) {
		return 0, domain.ErrInvalidMove
	}

	if err := h.Moves.Offer(m.ID); err != nil {
		return 0, err
	}
	logger.Info("move chosen", "move", m.Name, "reason", prompt.Reason)
	return m.ID, nil
}

func offered(moves []game.Move, id uint8) bool {
	if len(moves) == 0 {
		return true
	}
	for _, m := range moves {
		if m.ID == id {
			return true
		}
	}
	return false
}

// PostCancel ends the session, leaving the match pool when still searching
func (h *Handler) PostCancel(c *gin.Context) {
	if err := h.Cancel(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (h *Handler) Cancel(ctx context.Context) error {
	logger.Info("session cancel requested", "identity", h.Identity)
	return h.Session.Cancel(ctx)
}

// GetMoves returns the move catalog of the session variant.
// ?variant=pvb lists the player-vs-bot moves instead.
func (h *Handler) GetMoves(c *gin.Context) {
	cat := h.Session.Catalog()
	if c.Query("variant") == game.PvB().Variant() {
		cat = game.PvB()
	}
	c.JSON(http.StatusOK, gin.H{
		"variant": cat.Variant(),
		"moves":   cat.Moves(),
		"types":   game.PlayerTypes(),
	})
}

// GetResults returns the identity's finished arenas, newest first
func (h *Handler) GetResults(c *gin.Context) {
	if h.Results == nil {
		c.JSON(http.StatusOK, gin.H{"results": []*domain.ArenaResult{}})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	res, err := h.Results.ListByIdentity(c.Request.Context(), h.Identity, limit)
	if err != nil {
		logger.Error("list results failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load results"})
		return
	}
	if res == nil {
		res = []*domain.ArenaResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": res})
}
