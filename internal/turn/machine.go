package turn

import (
	"context"
	"fmt"
	"time"

	"arena_client/internal/commitment"
	"arena_client/internal/domain"
)

// SecretStore is the persistence the machine reads reveals from
type SecretStore interface {
	Save(ctx context.Context, s domain.PendingSecret) error
	Load(ctx context.Context) (*domain.PendingSecret, error)
	Clear(ctx context.Context) error
}

// Machine bundles Evaluate with the side-effecting preparation steps.
// It never submits transactions itself.
type Machine struct {
	identity Identity
	salts    commitment.SaltSource
	secrets  SecretStore
	now      func() time.Time
}

func NewMachine(id Identity, salts commitment.SaltSource, secrets SecretStore) *Machine {
	return &Machine{
		identity: id,
		salts:    salts,
		secrets:  secrets,
		now:      time.Now,
	}
}

func (m *Machine) Identity() Identity {
	return m.identity
}

// Evaluate evaluates snapshot for the machine's identity. The stored secret is
// only read when a reveal is due, so a storage outage never hides a game over.
func (m *Machine) Evaluate(_ context.Context, s *domain.ArenaSnapshot) (domain.TurnAction, error) {
	return Evaluate(s, m.identity, nil)
}

// PrepareCommit builds the commitment for moveID. The caller must persist the
// returned secret before submitting the hash: a restart between the two would
// otherwise leave a commitment nobody can open.
func (m *Machine) PrepareCommit(moveID uint8) (domain.Hash, domain.PendingSecret, error) {
	salt, err := m.salts.Salt()
	if err != nil {
		return nil, domain.PendingSecret{}, err
	}
	sec := domain.PendingSecret{MoveID: moveID, Salt: salt, SavedAt: m.now().UTC()}
	return commitment.Commit(moveID, salt), sec, nil
}

// CommitAndPersist runs PrepareCommit and saves the secret
func (m *Machine) CommitAndPersist(ctx context.Context, moveID uint8) (domain.Hash, error) {
	hash, sec, err := m.PrepareCommit(moveID)
	if err != nil {
		return nil, err
	}
	if err := m.secrets.Save(ctx, sec); err != nil {
		return nil, err
	}
	return hash, nil
}

// PrepareReveal returns the stored move and salt. A missing secret, or one that
// does not open the on-chain commitment, is ErrSecretMissing.
func (m *Machine) PrepareReveal(ctx context.Context, onChain domain.Hash) (domain.PendingSecret, error) {
	sec, err := m.secrets.Load(ctx)
	if err != nil {
		return domain.PendingSecret{}, err
	}
	if sec == nil {
		return domain.PendingSecret{}, domain.ErrSecretMissing
	}
	if len(onChain) > 0 && !commitment.Matches(onChain, *sec) {
		return domain.PendingSecret{}, fmt.Errorf("%w: stored move %d does not open %s",
			domain.ErrSecretMissing, sec.MoveID, onChain)
	}
	return *sec, nil
}

// Redeclare rebuilds a lost secret from the move the user says they committed.
// Only possible when the salt is reproducible. A move that does not open onChain
// is ErrCommitmentMismatch and nothing is saved.
func (m *Machine) Redeclare(ctx context.Context, moveID uint8, onChain domain.Hash) (domain.PendingSecret, error) {
	if !m.salts.Reproducible() {
		return domain.PendingSecret{}, domain.ErrSecretUnrecoverable
	}
	salt, err := m.salts.Salt()
	if err != nil {
		return domain.PendingSecret{}, err
	}
	sec := domain.PendingSecret{MoveID: moveID, Salt: salt, SavedAt: m.now().UTC()}
	if len(onChain) > 0 && !commitment.Matches(onChain, sec) {
		return domain.PendingSecret{}, fmt.Errorf("%w: move %d", domain.ErrCommitmentMismatch, moveID)
	}
	if err := m.secrets.Save(ctx, sec); err != nil {
		return domain.PendingSecret{}, fmt.Errorf("redeclare: %w", err)
	}
	return sec, nil
}

// Forget drops the secret once the reveal went through or the arena ended
func (m *Machine) Forget(ctx context.Context) error {
	return m.secrets.Clear(ctx)
}
