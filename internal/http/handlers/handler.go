package handlers

import (
	"context"

	"arena_client/internal/domain"
	"arena_client/internal/game"
	"arena_client/internal/session"
)

// SessionAPI - the part of the running session the UI may touch
type SessionAPI interface {
	Status() session.Status
	Catalog() *game.Catalog
	Cancel(ctx context.Context) error
}

// ResultLister reads finished arenas
type ResultLister interface {
	ListByIdentity(ctx context.Context, identity string, limit int) ([]*domain.ArenaResult, error)
}

type Handler struct {
	Session  SessionAPI
	Moves    *session.MoveQueue
	Results  ResultLister // nil when no database is configured
	Identity string
}

func NewHandler(sess SessionAPI, moves *session.MoveQueue, results ResultLister, identity string) *Handler {
	return &Handler{
		Session:  sess,
		Moves:    moves,
		Results:  results,
		Identity: identity,
	}
}
