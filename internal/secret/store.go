package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"arena_client/internal/domain"
)

// ErrKeyNotFound is returned by KV.Get when the key is absent
var ErrKeyNotFound = errors.New("key not found")

// KV is the durable key-value capability the store persists into
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store keeps the pending secret of one identity in one arena.
// A single slot per arena is enough: a player is only ever in one active arena.
type Store struct {
	kv      KV
	key     string
	arenaID string
	now     func() time.Time
}

// NewStore scopes a store to arenaID and identity
func NewStore(kv KV, arenaID, identity string) *Store {
	return &Store{
		kv:      kv,
		key:     Key(arenaID, identity),
		arenaID: arenaID,
		now:     time.Now,
	}
}

// Key format: arena:secret:<arena_id>:<identity>
func Key(arenaID, identity string) string {
	return "arena:secret:" + strings.ToLower(arenaID) + ":" + strings.ToLower(identity)
}

func (s *Store) Save(ctx context.Context, sec domain.PendingSecret) error {
	sec.ArenaID = s.arenaID
	if sec.SavedAt.IsZero() {
		sec.SavedAt = s.now().UTC()
	}
	b, err := json.Marshal(sec)
	if err != nil {
		return fmt.Errorf("encode secret: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("save secret: %w", err)
	}
	return nil
}

// Load returns nil, nil when nothing is stored
func (s *Store) Load(ctx context.Context) (*domain.PendingSecret, error) {
	b, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load secret: %w", err)
	}

	var sec domain.PendingSecret
	if err := json.Unmarshal(b, &sec); err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	// stale value from another arena is as good as missing
	if sec.ArenaID != "" && !strings.EqualFold(sec.ArenaID, s.arenaID) {
		return nil, nil
	}
	return &sec, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("clear secret: %w", err)
	}
	return nil
}
