package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeCouncil/internal/apperr"
)

// RedisConfig addresses a Redis server. Prefix namespaces every key.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis stores entries as plain strings under Prefix.
type Redis struct {
	client *redis.Client
	prefix string
	quota  int64
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig, quota int64) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return &Redis{client: client, prefix: cfg.Prefix, quota: quota}, nil
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r.quota > 0 {
		usage, err := r.Usage(ctx)
		if err != nil {
			return err
		}
		var oldSize int64
		if n, err := r.client.StrLen(ctx, r.key(key)).Result(); err == nil && n > 0 {
			oldSize = int64(len(key)) + n
		}
		if err := checkQuota(key, usage, oldSize, entrySize(key, value), r.quota); err != nil {
			return err
		}
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return mapRedisErr("set "+key, int64(len(value)), r.quota, err)
	}
	return nil
}

// mapRedisErr turns a maxmemory rejection into a quota error. Redis reports
// it as an error reply with the OOM prefix.
func mapRedisErr(op string, need, quota int64, err error) error {
	if redis.HasErrorPrefix(err, "OOM") {
		return apperr.QuotaExceeded(op, need, quota)
	}
	return fmt.Errorf("redis %s: %w", op, err)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Usage sums key and value lengths of every key under the prefix.
func (r *Redis) Usage(ctx context.Context) (int64, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	pipe := r.client.Pipeline()
	lens := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		lens[i] = pipe.StrLen(ctx, r.key(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis usage: %w", err)
	}
	var usage int64
	for i, k := range keys {
		usage += int64(len(k)) + lens[i].Val()
	}
	return usage, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
