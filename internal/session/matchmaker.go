package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/domain"
	"arena_client/internal/logger"
)

// MatchReader - the chain reads matchmaking needs
type MatchReader interface {
	ExtensionStorage(ctx context.Context, kioskID string) (string, error)
	ActiveMatch(ctx context.Context, storageID string) (string, error)
	ArenaForMatch(ctx context.Context, poolID, matchID string) (string, error)
}

// Matchmaker finds an arena for a kiosk through the shared match pool
type Matchmaker struct {
	reader  MatchReader
	gateway Submitter
	builder *chain.Builder
	poll    time.Duration
}

func NewMatchmaker(reader MatchReader, gateway Submitter, builder *chain.Builder, poll time.Duration) *Matchmaker {
	if poll <= 0 {
		poll = DefaultIntervals().JoinWait
	}
	return &Matchmaker{
		reader:  reader,
		gateway: gateway,
		builder: builder,
		poll:    poll,
	}
}

// FindArena returns the arena of the kiosk's current match. Without one it
// enters the pool first, then waits until the pool pairs it.
func (m *Matchmaker) FindArena(ctx context.Context) (string, error) {
	log := logger.WithContext(ctx).With("component", "matchmaker")

	storage, err := m.reader.ExtensionStorage(ctx, m.builder.KioskID)
	if errors.Is(err, domain.ErrNoMatch) {
		return "", fmt.Errorf("%w: game extension is not installed in kiosk %s", domain.ErrNotParticipant, m.builder.KioskID)
	}
	if err != nil {
		return "", err
	}

	if _, err := m.reader.ActiveMatch(ctx, storage); errors.Is(err, domain.ErrNoMatch) {
		if ctx.Err() != nil {
			return "", domain.ErrCancelled
		}
		log.Info("entering match pool", "kiosk", m.builder.KioskID)
		if _, err := m.gateway.Submit(ctx, m.builder.Play()); err != nil {
			txTotal.WithLabelValues(string(chain.TxPlay), "error").Inc()
			return "", err
		}
		txTotal.WithLabelValues(string(chain.TxPlay), "ok").Inc()
	} else if err != nil {
		return "", err
	}

	for {
		arenaID, err := m.lookup(ctx, storage)
		if err == nil {
			log.Info("match found", "arena", arenaID)
			return arenaID, nil
		}
		if !errors.Is(err, domain.ErrNoMatch) {
			log.Warn("match lookup failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return "", domain.ErrCancelled
		case <-time.After(m.poll):
		}
	}
}

func (m *Matchmaker) lookup(ctx context.Context, storage string) (string, error) {
	matchID, err := m.reader.ActiveMatch(ctx, storage)
	if err != nil {
		return "", err
	}
	return m.reader.ArenaForMatch(ctx, m.builder.MatchPool.ObjectID, matchID)
}

// CancelSearch leaves the match pool
func (m *Matchmaker) CancelSearch(ctx context.Context) error {
	_, err := m.gateway.Submit(ctx, m.builder.CancelSearch())
	result := "ok"
	if err != nil {
		result = "error"
	}
	txTotal.WithLabelValues(string(chain.TxCancelSearch), result).Inc()
	return err
}
