// Package commitment builds the hash a player commits to before revealing a move.
//
// The hash is blake2b-256 over the move id byte followed by the salt bytes; the
// contract recomputes it on reveal and rejects mismatches.
package commitment

import (
	"crypto/rand"
	"fmt"

	"arena_client/internal/domain"

	"golang.org/x/crypto/blake2b"
)

// Commit returns the commitment for moveID and salt
func Commit(moveID uint8, salt []byte) domain.Hash {
	data := make([]byte, 0, 1+len(salt))
	data = append(data, moveID)
	data = append(data, salt...)
	sum := blake2b.Sum256(data)
	return domain.Hash(sum[:])
}

// Reveal returns what has to be sent to the contract for secret
func Reveal(secret domain.PendingSecret) (uint8, []byte) {
	return secret.MoveID, secret.Salt
}

// Matches reports whether secret opens hash
func Matches(hash domain.Hash, secret domain.PendingSecret) bool {
	got := Commit(secret.MoveID, secret.Salt)
	if len(got) != len(hash) {
		return false
	}
	for i := range got {
		if got[i] != hash[i] {
			return false
		}
	}
	return true
}

// SaltSource produces the salt for a new commitment
type SaltSource interface {
	Salt() ([]byte, error)
	// Reproducible reports whether a lost salt can be regenerated
	Reproducible() bool
}

// DefaultSalt is the constant salt the deployed clients commit with
var DefaultSalt = []byte{1, 2, 3, 4}

// FixedSalt always returns the same bytes
type FixedSalt []byte

func (s FixedSalt) Salt() ([]byte, error) {
	out := make([]byte, len(s))
	copy(out, s)
	return out, nil
}

func (s FixedSalt) Reproducible() bool { return true }

// RandomSalt draws Size bytes from crypto/rand for each commitment
type RandomSalt struct {
	Size int
}

func (s RandomSalt) Salt() ([]byte, error) {
	n := s.Size
	if n <= 0 {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	return b, nil
}

func (s RandomSalt) Reproducible() bool { return false }

// NewSaltSource maps the SALT_MODE config value to a source
func NewSaltSource(mode string) (SaltSource, error) {
	switch mode {
	case "", "fixed":
		return FixedSalt(DefaultSalt), nil
	case "random":
		return RandomSalt{Size: 16}, nil
	default:
		return nil, fmt.Errorf("unknown salt mode: %s", mode)
	}
}
