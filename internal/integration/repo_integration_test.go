package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"arena_client/internal/db"
	"arena_client/internal/domain"
	"arena_client/internal/migrations"
	"arena_client/internal/repository"
	"arena_client/internal/secret"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := db.Migrate(context.Background(), pool, migrations.FS); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)
	applyMigrations(t, pool)
	// second run is a no-op
	applyMigrations(t, pool)
	return pool
}

func TestResultRepository_Create_ListByIdentity(t *testing.T) {
	pool := connect(t)
	repo := repository.NewResultRepository(pool)
	ctx := context.Background()

	identity := "0x" + uuid.NewString()[:8]
	arenaID := "0xARENA" + uuid.NewString()[:8]

	res := &domain.ArenaResult{
		SessionID:  uuid.NewString(),
		ArenaID:    arenaID,
		Identity:   identity,
		Variant:    domain.VariantV1,
		Winner:     domain.WinnerMe,
		Rounds:     4,
		MyHP:       1_000_000_000,
		OpponentHP: 0,
		FinishedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("create result: %v", err)
	}
	if res.ID == 0 {
		t.Fatal("expected id to be set")
	}

	// same arena again updates the row
	res.Winner = domain.WinnerNone
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("upsert result: %v", err)
	}

	list, err := repo.ListByIdentity(ctx, identity, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 result, got %d", len(list))
	}
	got := list[0]
	if got.Winner != domain.WinnerNone || got.Rounds != 4 || got.MyHP != 1_000_000_000 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.ArenaID != "0xarena"+arenaID[7:] {
		t.Fatalf("arena id should be stored lowercased, got %s", got.ArenaID)
	}
}

func TestSecretRepository_BacksSecretStore(t *testing.T) {
	pool := connect(t)
	kv := repository.NewSecretRepository(pool)
	ctx := context.Background()

	store := secret.NewStore(kv, "0xarena-"+uuid.NewString(), "0xme")
	t.Cleanup(func() { _ = store.Clear(context.Background()) })

	sec, err := store.Load(ctx)
	if err != nil || sec != nil {
		t.Fatalf("empty store: %v %v", sec, err)
	}

	if err := store.Save(ctx, domain.PendingSecret{MoveID: 5, Salt: []byte{1, 2, 3, 4}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	sec, err = store.Load(ctx)
	if err != nil || sec == nil {
		t.Fatalf("load: %v %v", sec, err)
	}
	if sec.MoveID != 5 || len(sec.Salt) != 4 {
		t.Fatalf("unexpected secret: %+v", sec)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
	if sec, _ := store.Load(ctx); sec != nil {
		t.Fatalf("secret still present: %+v", sec)
	}
}
