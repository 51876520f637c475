package store

import (
	"context"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
)

// Store defines the session persistence behaviour required by the auth
// manager. Get reports absence through the boolean rather than an error so
// callers can distinguish "no session" from a backend failure.
type Store interface {
	Put(ctx context.Context, session model.Session) error
	Get(ctx context.Context, token string) (model.Session, bool, error)
	Remove(ctx context.Context, token string) error
	List(ctx context.Context) ([]string, error)
	CleanupExpired(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Config describes the high level store selection parameters.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  *RedisConfig
	SQLite *SQLiteConfig
	Memory *MemoryConfig
}

// MemoryConfig holds in-memory tuning knobs.
type MemoryConfig struct {
	GCInterval time.Duration
}

// SQLiteConfig marks the sqlite driver; the database handle itself comes in
// through Dependencies.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
