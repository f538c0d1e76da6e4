// Package turn decides, from one arena snapshot, which step of the commit-reveal
// protocol the local player is in.
package turn

import (
	"arena_client/internal/domain"
)

// Seats resolves the local player and the opponent in snapshot.
// ok is false when id holds no seat.
func Seats(s *domain.ArenaSnapshot, id Identity) (me, opponent *domain.PlayerView, ok bool) {
	switch {
	case s.PlayerOne != nil && id.Matches(s.PlayerOne.Account):
		return s.PlayerOne, s.PlayerTwo, true
	case s.PlayerTwo != nil && id.Matches(s.PlayerTwo.Account):
		return s.PlayerTwo, s.PlayerOne, true
	}
	return nil, nil, false
}

// Evaluate computes the next action. It is pure: the same inputs always give the
// same action and nothing is read or written.
//
// Rules are checked in order, first match wins. HP exhaustion goes first because
// the pending-commit markers may be stale after a fatal round; a pending reveal is
// checked before a plain commit so a player with a commitment is never asked to
// commit twice.
//
// secret is reserved and may be nil: the on-chain markers alone decide the
// action. A reveal without a usable secret is reported by Machine.PrepareReveal.
func Evaluate(s *domain.ArenaSnapshot, id Identity, secret *domain.PendingSecret) (domain.TurnAction, error) {
	me, opponent, ok := Seats(s, id)
	if !ok {
		if s.Filled() == 2 {
			return domain.TurnAction{}, domain.ErrNotParticipant
		}
		return domain.TurnAction{}, domain.ErrNotJoined
	}

	if me.HP == 0 {
		return domain.GameOver(domain.WinnerOpponent), nil
	}
	if opponent != nil && opponent.HP == 0 {
		return domain.GameOver(domain.WinnerMe), nil
	}
	if s.IsOver {
		return domain.GameOver(domain.WinnerNone), nil
	}

	if opponent == nil {
		return domain.Action(domain.ActionAwaitOpponentJoin), nil
	}

	mine, theirs := me.HasPendingAttack(), opponent.HasPendingAttack()

	// the opponent moving on a round means this round's commitment must be opened now
	if (mine && theirs) || (mine && me.Round() < opponent.Round()) {
		return domain.Action(domain.ActionReveal), nil
	}
	if mine && !theirs {
		return domain.Action(domain.ActionAwaitOpponentCommit), nil
	}
	if !mine && me.Round() <= opponent.Round() {
		return domain.Action(domain.ActionCommit), nil
	}
	// already revealed this round, the opponent still has to open theirs
	if !mine && theirs {
		return domain.Action(domain.ActionAwaitOpponentReveal), nil
	}
	return domain.Action(domain.ActionIdle), nil
}
