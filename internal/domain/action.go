package domain

// ActionKind - what the local player should do after a poll
type ActionKind string

const (
	ActionAwaitOpponentJoin   ActionKind = "await_opponent_join"
	ActionCommit              ActionKind = "commit"
	ActionAwaitOpponentCommit ActionKind = "await_opponent_commit"
	ActionReveal              ActionKind = "reveal"
	ActionAwaitOpponentReveal ActionKind = "await_opponent_reveal"
	ActionGameOver            ActionKind = "game_over"
	ActionIdle                ActionKind = "idle"
)

// Winner of a finished arena, from the local player's point of view
type Winner string

const (
	WinnerMe       Winner = "me"
	WinnerOpponent Winner = "opponent"
	// WinnerNone - the contract closed the arena without exhausting anyone's HP
	WinnerNone Winner = "none"
)

// TurnAction - output of the turn state machine
type TurnAction struct {
	Kind   ActionKind `json:"kind"`
	Winner Winner     `json:"winner,omitempty"`
}

func (a TurnAction) String() string {
	if a.Kind == ActionGameOver {
		return string(a.Kind) + "(" + string(a.Winner) + ")"
	}
	return string(a.Kind)
}

// IsTerminal reports whether no further polls are needed
func (a TurnAction) IsTerminal() bool {
	return a.Kind == ActionGameOver
}

// NeedsTransaction reports whether the action makes the caller submit a transaction
func (a TurnAction) NeedsTransaction() bool {
	return a.Kind == ActionCommit || a.Kind == ActionReveal
}

func GameOver(w Winner) TurnAction {
	return TurnAction{Kind: ActionGameOver, Winner: w}
}

func Action(kind ActionKind) TurnAction {
	return TurnAction{Kind: kind}
}
