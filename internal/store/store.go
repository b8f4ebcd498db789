// Package store is the key/value persistence behind the chart cache.
package store

import (
	"context"
	"errors"
	"fmt"

	"TradeCouncil/internal/apperr"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("store: key not found")

// Store persists opaque values under string keys. Usage counts key and value
// bytes; a write that would push usage past the quota fails with a
// quota_exceeded error and leaves the store unchanged.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Usage(ctx context.Context) (int64, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend    string // memory, file, sqlite, redis
	Quota      int64  // bytes; zero disables the check
	FilePath   string
	SQLitePath string
	Redis      RedisConfig
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(cfg.Quota), nil
	case "file":
		return NewFile(cfg.FilePath, cfg.Quota)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath, cfg.Quota)
	case "redis":
		return NewRedis(ctx, cfg.Redis, cfg.Quota)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

// checkQuota reports a quota error when replacing a key of oldSize bytes with
// newSize bytes would exceed quota.
func checkQuota(key string, usage, oldSize, newSize, quota int64) error {
	if quota <= 0 {
		return nil
	}
	if need := usage - oldSize + newSize; need > quota {
		return apperr.QuotaExceeded("set "+key, need, quota)
	}
	return nil
}
