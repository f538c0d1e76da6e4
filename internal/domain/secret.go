package domain

import (
	"encoding/hex"
	"encoding/json"
	"time"
)

// PendingSecret - the committed move kept locally until it is revealed
type PendingSecret struct {
	ArenaID string    `json:"arena_id"`
	MoveID  uint8     `json:"move_id"`
	Salt    []byte    `json:"-"`
	SavedAt time.Time `json:"saved_at"`
}

type pendingSecretJSON struct {
	ArenaID string    `json:"arena_id"`
	MoveID  uint8     `json:"move_id"`
	Salt    string    `json:"salt"`
	SavedAt time.Time `json:"saved_at"`
}

// MarshalJSON stores the salt as hex
func (s PendingSecret) MarshalJSON() ([]byte, error) {
	return json.Marshal(pendingSecretJSON{
		ArenaID: s.ArenaID,
		MoveID:  s.MoveID,
		Salt:    hex.EncodeToString(s.Salt),
		SavedAt: s.SavedAt,
	})
}

func (s *PendingSecret) UnmarshalJSON(b []byte) error {
	var raw pendingSecretJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	salt, err := hex.DecodeString(raw.Salt)
	if err != nil {
		return err
	}
	s.ArenaID = raw.ArenaID
	s.MoveID = raw.MoveID
	s.Salt = salt
	s.SavedAt = raw.SavedAt
	return nil
}
