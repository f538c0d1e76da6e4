package repository

import (
	"context"
	"errors"

	"arena_client/internal/secret"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SecretRepository - Postgres backend for the secret store
type SecretRepository struct {
	db *pgxpool.Pool
}

func NewSecretRepository(db *pgxpool.Pool) *SecretRepository {
	return &SecretRepository{db: db}
}

func (r *SecretRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM pending_secrets WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, secret.ErrKeyNotFound
	}
	return value, err
}

func (r *SecretRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pending_secrets (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	return err
}

func (r *SecretRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM pending_secrets WHERE key = $1`, key)
	return err
}

var _ secret.KV = (*SecretRepository)(nil)
