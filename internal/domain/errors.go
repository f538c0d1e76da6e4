package domain

import "errors"

var (
	// ErrNotFound - arena object does not exist
	ErrNotFound = errors.New("arena not found")
	// ErrMalformedState - arena object is missing required fields
	ErrMalformedState = errors.New("malformed arena state")
	// ErrNotParticipant - local identity holds neither seat of a full arena
	ErrNotParticipant = errors.New("local player not part of this game")
	// ErrNotJoined - local identity holds no seat but one is still free
	ErrNotJoined = errors.New("local player has not joined the arena")
	// ErrSecretMissing - a reveal is due but no committed move is stored locally
	ErrSecretMissing = errors.New("committed move not found; redeclare the same move")
	// ErrSecretUnrecoverable - secret lost and the salt cannot be rebuilt
	ErrSecretUnrecoverable = errors.New("committed secret lost and salt is not reproducible")
	// ErrCommitmentMismatch - a redeclared move does not open the on-chain commitment
	ErrCommitmentMismatch = errors.New("move does not match the committed hash")
	// ErrTxRejected - the transaction was executed but failed on chain
	ErrTxRejected = errors.New("transaction rejected")
	// ErrInvalidMove - move is not legal for this player
	ErrInvalidMove = errors.New("invalid move")
	// ErrCancelled - session was cancelled by the user
	ErrCancelled = errors.New("session cancelled")
	// ErrNoMatch - matchmaking has not produced an arena yet
	ErrNoMatch = errors.New("no active match")
)

// IsFatal reports whether err must stop the poll loop for good
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrSecretMissing) ||
		errors.Is(err, ErrSecretUnrecoverable) ||
		errors.Is(err, ErrCancelled)
}
