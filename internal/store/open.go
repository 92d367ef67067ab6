package store

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/weather-dashboard/internal/session"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options selects and configures a session store backend.
type Options struct {
	Backend    string
	RedisURL   string
	SQLitePath string
	MaxAge     time.Duration
}

// Open builds the session store named by opts.Backend.
func Open(ctx context.Context, opts Options) (session.Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryStore(opts.MaxAge), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, opts.MaxAge)
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Backend)
	}
}
