package domain

import (
	"encoding/hex"
	"time"
)

// Variant - arena flavour, decides the on-chain schema and how "me" is resolved
type Variant string

const (
	// VariantV1 is the simultaneous-join arena (arena_pvp), players identified by address
	VariantV1 Variant = "v1"
	// VariantV2 is the matched kiosk arena, players identified by kiosk id
	VariantV2 Variant = "v2"
)

// ParseVariant returns the variant for its config name
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case VariantV1, VariantV2:
		return Variant(s), true
	}
	return "", false
}

// Hash - commitment digest as stored on chain
type Hash []byte

func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// ArenaRef - everything needed to reference a shared arena in a transaction
type ArenaRef struct {
	ObjectID             string `json:"object_id"`
	InitialSharedVersion uint64 `json:"initial_shared_version"`
	Mutable              bool   `json:"mutable"`
}

// PlayerView - one seat of the arena as seen by the client
type PlayerView struct {
	Account        string  `json:"account"`
	HP             uint64  `json:"hp"`
	InitialHP      uint64  `json:"initial_hp"`
	MovesAvailable []uint8 `json:"moves_available,omitempty"`
	Types          []uint8 `json:"types,omitempty"`
	NextAttack     Hash    `json:"next_attack,omitempty"`
	NextRound      *uint64 `json:"next_round,omitempty"`
}

// HasPendingAttack reports whether the player committed and has not revealed yet
func (p *PlayerView) HasPendingAttack() bool {
	return p != nil && p.NextAttack != nil
}

// Round returns NextRound, missing value counts as 0
func (p *PlayerView) Round() uint64 {
	if p == nil || p.NextRound == nil {
		return 0
	}
	return *p.NextRound
}

// ArenaSnapshot - immutable arena state fetched on one poll
type ArenaSnapshot struct {
	ArenaID              string      `json:"arena_id"`
	Variant              Variant     `json:"variant"`
	Round                uint64      `json:"round"`
	IsOver               bool        `json:"is_over"`
	PlayerOne            *PlayerView `json:"player_one"`
	PlayerTwo            *PlayerView `json:"player_two"`
	InitialSharedVersion uint64      `json:"initial_shared_version"`
	FetchedAt            time.Time   `json:"fetched_at"`
}

// Ref builds the shared object reference used by transactions
func (s *ArenaSnapshot) Ref() ArenaRef {
	return ArenaRef{
		ObjectID:             s.ArenaID,
		InitialSharedVersion: s.InitialSharedVersion,
		Mutable:              true,
	}
}

// Filled returns how many seats are taken
func (s *ArenaSnapshot) Filled() int {
	n := 0
	if s.PlayerOne != nil {
		n++
	}
	if s.PlayerTwo != nil {
		n++
	}
	return n
}
