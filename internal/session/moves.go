package session

import (
	"context"
	"errors"
	"sync"

	"arena_client/internal/game"
)

var (
	ErrNotAwaitingMove = errors.New("no move is being asked for")
	ErrMoveQueued      = errors.New("a move is already queued")
)

// PromptReason - why a move is being asked for
type PromptReason string

const (
	PromptCommit PromptReason = "commit"
	// PromptRedeclare - the committed secret is lost, the same move must be chosen again
	PromptRedeclare PromptReason = "redeclare"
)

// MovePrompt describes the choice offered to the player
type MovePrompt struct {
	Reason  PromptReason `json:"reason"`
	ArenaID string       `json:"arena_id"`
	Round   uint64       `json:"round"`
	Moves   []game.Move  `json:"moves"`
	// Opened, when set, is called once the source accepts a move for this prompt
	Opened func() `json:"-"`
}

// MoveSource supplies the player's move. Implementations block until a move
// is chosen or ctx is done, and call p.Opened when they start accepting one.
type MoveSource interface {
	ChooseMove(ctx context.Context, p MovePrompt) (uint8, error)
}

// MoveQueue is a MoveSource fed from outside, e.g. by the HTTP API
type MoveQueue struct {
	mu     sync.Mutex
	prompt *MovePrompt
	ch     chan uint8
}

func NewMoveQueue() *MoveQueue {
	return &MoveQueue{}
}

func (q *MoveQueue) ChooseMove(ctx context.Context, p MovePrompt) (uint8, error) {
	ch := make(chan uint8, 1)
	q.mu.Lock()
	q.prompt = &p
	q.ch = ch
	q.mu.Unlock()

	if p.Opened != nil {
		p.Opened()
	}

	defer func() {
		q.mu.Lock()
		q.prompt = nil
		q.ch = nil
		q.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case id := <-ch:
		return id, nil
	}
}

// Offer hands moveID to the pending prompt
func (q *MoveQueue) Offer(moveID uint8) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch == nil {
		return ErrNotAwaitingMove
	}
	select {
	case q.ch <- moveID:
		return nil
	default:
		return ErrMoveQueued
	}
}

// Pending returns the open prompt, nil when none
func (q *MoveQueue) Pending() *MovePrompt {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.prompt == nil {
		return nil
	}
	p := *q.prompt
	return &p
}
