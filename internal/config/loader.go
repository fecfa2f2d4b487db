package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads configuration in three layers: defaults, the TOML file at path
// (optional, skipped if empty or missing), and finally BETPOOL_* environment
// variables. A .env file in the working directory is honoured if present.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: decode %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides cfg fields from BETPOOL_* environment variables.
func applyEnv(cfg *Config) {
	setStr("BETPOOL_MODE", &cfg.Mode)
	setStr("BETPOOL_LOG_LEVEL", &cfg.LogLevel)

	setStr("BETPOOL_AUTHORITY", &cfg.Engine.Authority)
	setStrSlice("BETPOOL_ADMINS", &cfg.Engine.Admins)

	setStr("BETPOOL_POSTGRES_DSN", &cfg.Postgres.DSN)
	setStr("BETPOOL_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("BETPOOL_POSTGRES_PORT", &cfg.Postgres.Port)
	setStr("BETPOOL_POSTGRES_DB", &cfg.Postgres.Database)
	setStr("BETPOOL_POSTGRES_USER", &cfg.Postgres.User)
	setStr("BETPOOL_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setBool("BETPOOL_POSTGRES_MIGRATE", &cfg.Postgres.RunMigrations)

	setStr("BETPOOL_REDIS_ADDR", &cfg.Redis.Addr)
	setStr("BETPOOL_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("BETPOOL_REDIS_DB", &cfg.Redis.DB)
	setBool("BETPOOL_REDIS_TLS", &cfg.Redis.TLSEnabled)

	setStr("BETPOOL_S3_ENDPOINT", &cfg.S3.Endpoint)
	setStr("BETPOOL_S3_REGION", &cfg.S3.Region)
	setStr("BETPOOL_S3_BUCKET", &cfg.S3.Bucket)
	setStr("BETPOOL_S3_ACCESS_KEY", &cfg.S3.AccessKey)
	setStr("BETPOOL_S3_SECRET_KEY", &cfg.S3.SecretKey)

	setBool("BETPOOL_ARCHIVE_ENABLED", &cfg.Archive.Enabled)
	setInt("BETPOOL_ARCHIVE_RETENTION_DAYS", &cfg.Archive.RetentionDays)
	setDuration("BETPOOL_ARCHIVE_INTERVAL", &cfg.Archive.Interval)

	setBool("BETPOOL_SERVER_ENABLED", &cfg.Server.Enabled)
	setInt("BETPOOL_SERVER_PORT", &cfg.Server.Port)
	setStr("BETPOOL_API_KEY", &cfg.Server.APIKey)
}

func setStr(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setStrSlice(key string, dst *[]string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(key string, dst *duration) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
