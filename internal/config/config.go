package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/domain"
	"arena_client/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort   string
	RPCURL    string
	SignerURL string
	SignerKey string
	JWTSecret string

	// Game
	Variant          domain.Variant
	PackageID        string
	MatchPoolID      string
	MatchPoolVersion uint64
	AccountAddress   string
	KioskID          string
	KioskCapID       string
	ArenaID          string // empty: v1 waits for one, v2 goes through matchmaking
	SaltMode         string

	// Storage
	SecretBackend string // redis | postgres | memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string

	// Polling
	JoinWait    time.Duration
	ActionWait  time.Duration
	IdlePoll    time.Duration
	MaxFailures int

	// UI limits
	MoveRateLimit  int
	MoveRateWindow int
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	variant, ok := domain.ParseVariant(envOr("GAME_VARIANT", string(domain.VariantV2)))
	if !ok {
		logger.Fatal("GAME_VARIANT must be v1 or v2", "value", os.Getenv("GAME_VARIANT"))
	}

	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		rpcURL = chain.FullnodeURL(chain.Network(envOr("SUI_NETWORK", string(chain.NetworkDevnet))))
	}

	signerURL := os.Getenv("SIGNER_URL")
	if signerURL == "" {
		logger.Fatal("SIGNER_URL is not set")
	}

	packageID := os.Getenv("PACKAGE_ID")
	if packageID == "" {
		logger.Fatal("PACKAGE_ID is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	cfg := &Config{
		AppPort:          envOr("APP_PORT", "8080"),
		RPCURL:           rpcURL,
		SignerURL:        signerURL,
		SignerKey:        os.Getenv("SIGNER_API_KEY"),
		JWTSecret:        jwtSecret,
		Variant:          variant,
		PackageID:        packageID,
		MatchPoolID:      os.Getenv("MATCH_POOL_ID"),
		MatchPoolVersion: uint64(envInt("MATCH_POOL_VERSION", 0)),
		AccountAddress:   os.Getenv("ACCOUNT_ADDRESS"),
		KioskID:          os.Getenv("KIOSK_ID"),
		KioskCapID:       os.Getenv("KIOSK_CAP_ID"),
		ArenaID:          strings.TrimSpace(os.Getenv("ARENA_ID")),
		SaltMode:         envOr("SALT_MODE", "fixed"),
		SecretBackend:    envOr("SECRET_BACKEND", "redis"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          envInt("REDIS_DB", 0),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JoinWait:         envMillis("POLL_JOIN_WAIT_MS", 2500*time.Millisecond),
		ActionWait:       envMillis("POLL_ACTION_WAIT_MS", time.Second),
		IdlePoll:         envMillis("POLL_IDLE_MS", time.Second),
		MaxFailures:      envInt("POLL_MAX_FAILURES", 0), // 0 = retry forever
		MoveRateLimit:    envInt("MOVE_RATE_LIMIT", 30),
		MoveRateWindow:   envInt("MOVE_RATE_WINDOW", 60),
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal(err.Error())
	}

	return cfg
}

// validate checks the identity and arena settings the chosen variant needs
func (c *Config) validate() error {
	if c.AccountAddress == "" {
		return errors.New("ACCOUNT_ADDRESS is not set")
	}
	// kiosk identity and the pool are mandatory for the matched arena
	if c.Variant == domain.VariantV2 {
		if c.KioskID == "" || c.KioskCapID == "" {
			return errors.New("KIOSK_ID and KIOSK_CAP_ID are required for v2")
		}
		if c.MatchPoolID == "" {
			return errors.New("MATCH_POOL_ID is required for v2")
		}
	}
	if c.Variant == domain.VariantV1 && c.ArenaID == "" {
		return errors.New("ARENA_ID is required for v1")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
