package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"arena_client/internal/domain"
	"arena_client/internal/logger"
)

// Intervals - delays between polls, picked from the last action
type Intervals struct {
	JoinWait   time.Duration
	ActionWait time.Duration
	Idle       time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		JoinWait:   2500 * time.Millisecond,
		ActionWait: time.Second,
		Idle:       time.Second,
	}
}

// Next returns the delay before the poll following a. Commit and reveal
// re-poll right away since the transaction already waited for execution.
func (iv Intervals) Next(a domain.TurnAction) time.Duration {
	if a.NeedsTransaction() {
		return 0
	}
	switch a.Kind {
	case domain.ActionAwaitOpponentJoin:
		return iv.JoinWait
	case domain.ActionAwaitOpponentCommit, domain.ActionAwaitOpponentReveal:
		return iv.ActionWait
	default:
		return iv.Idle
	}
}

// TickFunc performs one poll and whatever the resulting action requires
type TickFunc func(ctx context.Context) (domain.TurnAction, error)

// Scheduler runs ticks strictly one after another until the game is over,
// a fatal error happens or the context is cancelled.
type Scheduler struct {
	Intervals   Intervals
	MaxFailures int // consecutive transient failures before giving up, 0 = never
	log         *slog.Logger
}

func NewScheduler(iv Intervals, maxFailures int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logger.Get()
	}
	return &Scheduler{Intervals: iv, MaxFailures: maxFailures, log: log}
}

// Handle controls a running loop
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	err  error
	last domain.TurnAction
}

// Cancel stops the loop. Safe to call more than once.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err is the reason the loop stopped: nil after game over, ErrCancelled after Cancel
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Last is the most recent action produced by a tick
func (h *Handle) Last() domain.TurnAction {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Wait blocks until the loop exits and returns Err
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

func (h *Handle) setLast(a domain.TurnAction) {
	h.mu.Lock()
	h.last = a
	h.mu.Unlock()
}

func (h *Handle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Start launches the poll loop. The first tick runs immediately.
func (s *Scheduler) Start(ctx context.Context, tick TickFunc) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		h.finish(s.run(ctx, h, tick))
	}()
	return h
}

func (s *Scheduler) run(ctx context.Context, h *Handle, tick TickFunc) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}

		action, err := tick(ctx)
		// anything that resolved after cancellation is discarded
		if ctx.Err() != nil {
			return domain.ErrCancelled
		}

		var delay time.Duration
		if err != nil {
			if domain.IsFatal(err) {
				s.log.Error("poll loop stopped", "error", err)
				return err
			}
			failures++
			pollFailures.Inc()
			if s.MaxFailures > 0 && failures >= s.MaxFailures {
				return fmt.Errorf("giving up after %d failures: %w", failures, err)
			}
			s.log.Warn("poll failed, retrying", "error", err, "failures", failures)
			delay = s.Intervals.Idle
		} else {
			failures = 0
			h.setLast(action)
			if action.IsTerminal() {
				s.log.Info("poll loop finished", "action", action.String())
				return nil
			}
			delay = s.Intervals.Next(action)
		}

		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.ErrCancelled
		case <-timer.C:
		}
	}
}
