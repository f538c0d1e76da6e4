package domain

import "time"

// ArenaResult - record of a finished arena for the local identity
type ArenaResult struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  string    `db:"session_id" json:"session_id"`
	ArenaID    string    `db:"arena_id" json:"arena_id"`
	Identity   string    `db:"identity" json:"identity"`
	Variant    Variant   `db:"variant" json:"variant"`
	Winner     Winner    `db:"winner" json:"winner"`
	Rounds     uint64    `db:"rounds" json:"rounds"`
	MyHP       uint64    `db:"my_hp" json:"my_hp"`
	OpponentHP uint64    `db:"opponent_hp" json:"opponent_hp"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
