package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/commitment"
	"arena_client/internal/config"
	"arena_client/internal/db"
	"arena_client/internal/domain"
	httpServer "arena_client/internal/http"
	"arena_client/internal/http/handlers"
	"arena_client/internal/http/middleware"
	"arena_client/internal/logger"
	"arena_client/internal/migrations"
	"arena_client/internal/repository"
	"arena_client/internal/secret"
	"arena_client/internal/service"
	"arena_client/internal/session"
	"arena_client/internal/turn"
	"arena_client/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

// secretTTL bounds how long an abandoned commitment is kept in Redis
const secretTTL = 7 * 24 * time.Hour

func main() {
	cfg := config.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT") == "json")
	service.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		client, err := secret.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("redis unavailable, rate limits fall back to memory", "error", err)
		} else {
			rdb = client
			defer rdb.Close()
			middleware.UseRedis(rdb)
		}
	}

	var pool *pgxpool.Pool
	var results session.ResultRecorder
	var lister handlers.ResultLister
	if cfg.DatabaseURL != "" {
		pool = db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		applied, err := db.Migrate(ctx, pool, migrations.FS)
		if err != nil {
			logger.Fatal("failed to migrate database", "error", err)
		}
		if len(applied) > 0 {
			logger.Info("database migrated", "applied", applied)
		}
		repo := repository.NewResultRepository(pool)
		results, lister = repo, repo
	}

	kv := secretBackend(cfg, rdb, pool)

	rpc := chain.NewClient(cfg.RPCURL, cfg.PackageID)
	gateway := chain.NewGateway(cfg.SignerURL, cfg.SignerKey)
	builder := &chain.Builder{
		PackageID: cfg.PackageID,
		Variant:   cfg.Variant,
		Sender:    cfg.AccountAddress,
		KioskID:   cfg.KioskID,
		KioskCap:  cfg.KioskCapID,
	}
	if cfg.MatchPoolID != "" {
		builder.MatchPool = matchPoolRef(ctx, rpc, cfg)
	}

	salts, err := commitment.NewSaltSource(cfg.SaltMode)
	if err != nil {
		logger.Fatal("invalid SALT_MODE", "error", err)
	}
	identity := turn.IdentityFor(cfg.Variant, cfg.AccountAddress, cfg.KioskID)

	var matcher *session.Matchmaker
	if cfg.ArenaID == "" {
		matcher = session.NewMatchmaker(rpc, gateway, builder, cfg.JoinWait)
	}

	moves := session.NewMoveQueue()
	sess, err := session.New(session.Options{
		Variant: cfg.Variant,
		ArenaID: cfg.ArenaID,
		Intervals: session.Intervals{
			JoinWait:   cfg.JoinWait,
			ActionWait: cfg.ActionWait,
			Idle:       cfg.IdlePoll,
		},
		MaxFailures: cfg.MaxFailures,
	}, session.Deps{
		Reader:   rpc,
		Gateway:  gateway,
		Builder:  builder,
		Identity: identity,
		Salts:    salts,
		Secrets: func(arenaID string) turn.SecretStore {
			return secret.NewStore(kv, arenaID, identity.ID())
		},
		Moves:      moves,
		Matchmaker: matcher,
		Results:    results,
	})
	if err != nil {
		logger.Fatal("failed to create session", "error", err)
	}

	token, err := service.GenerateJWT(identity.ID())
	if err != nil {
		logger.Fatal("failed to issue ui token", "error", err)
	}
	fmt.Printf("UI token (valid %s): %s\n", service.TokenTTL, token)

	hub := ws.NewHub()
	h := handlers.NewHandler(sess, moves, lister, identity.ID())
	health := handlers.NewHealthHandler(version, healthChecks(rpc, rdb, pool))

	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, h, health, hub, httpServer.Limits{
		APIRequests: 120,
		APIWindow:   time.Minute,
		Moves:       cfg.MoveRateLimit,
		MoveWindow:  time.Duration(cfg.MoveRateWindow) * time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx, sess)
		return nil
	})

	g.Go(func() error {
		logger.Info("session started", "session", sess.ID(), "variant", cfg.Variant, "identity", identity.ID())
		err := sess.Run(gctx)
		switch {
		case err == nil:
			logger.Info("session finished", "winner", sess.Status().Action.Winner)
		case errors.Is(err, domain.ErrCancelled):
			logger.Info("session cancelled")
		default:
			logger.Error("session stopped", "error", err)
		}
		// the server keeps running so the UI can show the final status
		return nil
	})

	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

func secretBackend(cfg *config.Config, rdb *redis.Client, pool *pgxpool.Pool) secret.KV {
	switch cfg.SecretBackend {
	case "redis":
		if rdb == nil {
			logger.Fatal("SECRET_BACKEND=redis requires a reachable REDIS_ADDR")
		}
		return secret.NewRedisKV(rdb, secretTTL)
	case "postgres":
		if pool == nil {
			logger.Fatal("SECRET_BACKEND=postgres requires DATABASE_URL")
		}
		return repository.NewSecretRepository(pool)
	case "memory":
		logger.Warn("secrets kept in memory; a restart before reveal loses the committed move")
		return secret.NewMemoryKV()
	default:
		logger.Fatal("unknown SECRET_BACKEND", "value", cfg.SecretBackend)
		return nil
	}
}

// matchPoolRef uses the configured shared version, reading it from the node when absent
func matchPoolRef(ctx context.Context, rpc *chain.Client, cfg *config.Config) domain.ArenaRef {
	if cfg.MatchPoolVersion > 0 {
		return domain.ArenaRef{ObjectID: cfg.MatchPoolID, InitialSharedVersion: cfg.MatchPoolVersion, Mutable: true}
	}
	ref, err := rpc.ArenaRef(ctx, cfg.MatchPoolID)
	if err != nil {
		logger.Fatal("failed to read match pool", "id", cfg.MatchPoolID, "error", err)
	}
	return ref
}

func healthChecks(rpc *chain.Client, rdb *redis.Client, pool *pgxpool.Pool) map[string]handlers.Check {
	checks := map[string]handlers.Check{
		"rpc": func(ctx context.Context) error {
			_, err := rpc.Ping(ctx)
			return err
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if pool != nil {
		checks["database"] = pool.Ping
	}
	return checks
}
