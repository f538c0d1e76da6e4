package session

import (
	"sync"
	"time"

	"arena_client/internal/domain"
	"arena_client/internal/game"
)

// State - coarse phase of a session as shown to the UI
type State string

const (
	StateStarting      State = "starting"
	StateSearching     State = "searching"
	StatePolling       State = "polling"
	StateAwaitingMove  State = "awaiting_move"
	StateSubmitting    State = "submitting"
	StateSecretMissing State = "secret_missing"
	StateFinished      State = "finished"
	StateCancelled     State = "cancelled"
	StateFailed        State = "failed"
)

// Status - snapshot of a session published to subscribers
type Status struct {
	SessionID  string            `json:"session_id"`
	Variant    domain.Variant    `json:"variant"`
	Identity   string            `json:"identity"`
	ArenaID    string            `json:"arena_id,omitempty"`
	State      State             `json:"state"`
	Action     domain.TurnAction `json:"action"`
	Round      uint64            `json:"round"`
	MyHP       float64           `json:"my_hp"`
	OpponentHP float64           `json:"opponent_hp"`
	Moves      []game.Move       `json:"moves,omitempty"`
	LastTx     string            `json:"last_tx,omitempty"`
	Error      string            `json:"error,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// broadcaster fans status updates out to subscribers. Slow subscribers miss updates.
type broadcaster struct {
	mu     sync.RWMutex
	status Status
	subs   map[chan Status]struct{}
}

func newBroadcaster(initial Status) *broadcaster {
	return &broadcaster{status: initial, subs: make(map[chan Status]struct{})}
}

func (b *broadcaster) current() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *broadcaster) update(fn func(*Status)) Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.status)
	b.status.UpdatedAt = time.Now().UTC()
	st := b.status
	for ch := range b.subs {
		select {
		case ch <- st:
		default:
		}
	}
	return st
}

func (b *broadcaster) subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	ch <- b.status
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}
