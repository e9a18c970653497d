package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reviewharvest/internal/domain"
)

type Config struct {
	AppEnv         string
	MetricsAddr    string // ops server; empty disables it
	GoogleBase     string
	AppStoreBase   string
	RawDir         string
	ProcessedDir   string
	RedisAddr      string // empty disables cursor checkpoints
	RedisDB        int
	RedisPass      string
	MySQLDSN       string // empty disables the archive
	BatchSize      int
	MaxRetries     int
	RequestsPerSec int
	CursorTTL      time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		GoogleBase:     env("GOOGLE_REVIEWS_BASE_URL", "https://play-gateway.googleapis.com/v1"),
		AppStoreBase:   env("APPSTORE_BASE_URL", "https://itunes.apple.com"),
		RawDir:         env("RAW_DIR", "data/raw"),
		ProcessedDir:   env("PROCESSED_DIR", "data/processed"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		MySQLDSN:       env("MYSQL_DSN", ""),
		BatchSize:      atoi("FETCH_BATCH_SIZE", 200),
		MaxRetries:     atoi("FETCH_MAX_RETRIES", 5),
		RequestsPerSec: atoi("FETCH_RPS", 5),
		CursorTTL:      time.Duration(atoi("CURSOR_TTL_SECONDS", 86400)) * time.Second,
	}
	if c.BatchSize <= 0 {
		log.Warn().Int("batch_size", c.BatchSize).Msg("FETCH_BATCH_SIZE invalid, using 200")
		c.BatchSize = 200
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// ValidateAppID checks the identifier format for the chosen platform before
// any network call is made. Google: dotted package name with at least two
// non-empty segments. Apple: numeric id of at least six digits.
func ValidateAppID(p domain.Platform, appID string) error {
	switch p {
	case domain.PlatformGoogle:
		parts := strings.Split(appID, ".")
		if len(parts) < 2 {
			return domain.ErrInvalidAppID
		}
		for _, seg := range parts {
			if seg == "" {
				return domain.ErrInvalidAppID
			}
		}
		return nil
	case domain.PlatformApple:
		if len(appID) < 6 {
			return domain.ErrInvalidAppID
		}
		for _, r := range appID {
			if r < '0' || r > '9' {
				return domain.ErrInvalidAppID
			}
		}
		return nil
	}
	return domain.ErrInvalidAppID
}
