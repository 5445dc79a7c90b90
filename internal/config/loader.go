package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FIGGIE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and loads defaults plus overrides only.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FIGGIE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators point a fixed round file at a different store or bus
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.LogLevel, "FIGGIE_LOG_LEVEL")

	setFloat64(&cfg.Game.GameDuration, "FIGGIE_GAME_DURATION")
	setInt(&cfg.Game.Turns, "FIGGIE_GAME_TURNS")
	setStr(&cfg.Game.GameVariant, "FIGGIE_GAME_VARIANT")

	setFloat64(&cfg.Engine.InitialCash, "FIGGIE_ENGINE_INITIAL_CASH")
	setFloat64(&cfg.Engine.Pot, "FIGGIE_ENGINE_POT")
	setStr(&cfg.Engine.Belief, "FIGGIE_ENGINE_BELIEF")
	setInt(&cfg.Engine.Particles, "FIGGIE_ENGINE_PARTICLES")
	setUint64(&cfg.Engine.Seed, "FIGGIE_ENGINE_SEED")

	setBool(&cfg.Store.Enabled, "FIGGIE_STORE_ENABLED")
	setStr(&cfg.Store.Path, "FIGGIE_STORE_PATH")

	setBool(&cfg.Postgres.Enabled, "FIGGIE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "FIGGIE_POSTGRES_DSN")
	setInt(&cfg.Postgres.PoolMaxConns, "FIGGIE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FIGGIE_POSTGRES_POOL_MIN_CONNS")

	setBool(&cfg.Redis.Enabled, "FIGGIE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "FIGGIE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FIGGIE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FIGGIE_REDIS_DB")
	setStr(&cfg.Redis.Channel, "FIGGIE_REDIS_CHANNEL")

	setBool(&cfg.Server.Enabled, "FIGGIE_SERVER_ENABLED")
	setStr(&cfg.Server.Addr, "FIGGIE_SERVER_ADDR")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
