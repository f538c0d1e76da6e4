package ws

import "encoding/json"

// Envelope - every frame in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// client → server
type MovePayload struct {
	MoveID *uint8 `json:"move_id,omitempty"`
	Key    string `json:"key,omitempty"` // keyboard code, e.g. KeyQ
}

// server → client
type AckPayload struct {
	MoveID uint8 `json:"move_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(typ string, payload any) []byte {
	env := Envelope{Type: typ}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			b, _ = json.Marshal(ErrorPayload{Message: err.Error()})
			env.Type = MsgError
		}
		env.Payload = b
	}
	out, _ := json.Marshal(env)
	return out
}
