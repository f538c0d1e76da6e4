package repository

import (
	"context"
	"strings"

	"arena_client/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResultRepository struct {
	db *pgxpool.Pool
}

func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create сохраняет итог арены. Повторная запись той же арены обновляет строку.
func (r *ResultRepository) Create(ctx context.Context, res *domain.ArenaResult) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO arena_results
			(session_id, arena_id, identity, variant, winner, rounds, my_hp, opponent_hp, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (arena_id, identity) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			winner = EXCLUDED.winner,
			rounds = EXCLUDED.rounds,
			my_hp = EXCLUDED.my_hp,
			opponent_hp = EXCLUDED.opponent_hp,
			finished_at = EXCLUDED.finished_at
		 RETURNING id`,
		res.SessionID,
		strings.ToLower(res.ArenaID),
		strings.ToLower(res.Identity),
		string(res.Variant),
		string(res.Winner),
		int64(res.Rounds),
		int64(res.MyHP),
		int64(res.OpponentHP),
		res.FinishedAt,
	).Scan(&res.ID)
}

// ListByIdentity возвращает последние результаты игрока
func (r *ResultRepository) ListByIdentity(ctx context.Context, identity string, limit int) ([]*domain.ArenaResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, session_id, arena_id, identity, variant, winner, rounds, my_hp, opponent_hp, finished_at
		 FROM arena_results
		 WHERE identity = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		strings.ToLower(identity), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]*domain.ArenaResult, error) {
	var res []*domain.ArenaResult
	for rows.Next() {
		var (
			a                     domain.ArenaResult
			variant, winner       string
			rounds, myHP, theirHP int64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ArenaID, &a.Identity, &variant, &winner,
			&rounds, &myHP, &theirHP, &a.FinishedAt); err != nil {
			return nil, err
		}
		a.Variant = domain.Variant(variant)
		a.Winner = domain.Winner(winner)
		a.Rounds = uint64(rounds)
		a.MyHP = uint64(myHP)
		a.OpponentHP = uint64(theirHP)
		res = append(res, &a)
	}
	return res, rows.Err()
}
