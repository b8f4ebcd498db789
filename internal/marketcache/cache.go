// Package marketcache keeps recently fetched chart data in a size-bounded,
// persisted cache and remembers recent provider failures.
package marketcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/store"
)

// ChartKey is the store key holding the whole chart map.
const ChartKey = "chart-cache"

const (
	DefaultTTL          = time.Hour
	DefaultSizeBudget   = 4 << 20
	DefaultAssumedQuota = 5 << 20

	proactiveThreshold = 0.9
	proactiveKeep      = 0.7
)

// retryKeepRatios are tried in order when the store rejects a write for quota.
var retryKeepRatios = []float64{0.7, 0.5, 0.3}

type entry struct {
	Ticker       string        `json:"ticker"`
	Timeframe    string        `json:"timeframe"`
	Data         []model.OHLCV `json:"data"`
	GeneratedAt  int64         `json:"generatedAt"`
	LastAccessed int64         `json:"lastAccessed"`
}

// Options tunes the cache. Zero values take the defaults.
type Options struct {
	TTL          time.Duration
	SizeBudget   int64
	AssumedQuota int64
	Log          *logrus.Entry
}

// Cache maps "{TICKER}-{TIMEFRAME}" to chart series. One mutex guards the map
// and its persistence, so concurrent writers are last-write-wins.
type Cache struct {
	store store.Store
	opts  Options
	log   *logrus.Entry
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New loads any persisted chart map from s.
func New(ctx context.Context, s store.Store, opts Options) (*Cache, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SizeBudget <= 0 {
		opts.SizeBudget = DefaultSizeBudget
	}
	if opts.AssumedQuota <= 0 {
		opts.AssumedQuota = DefaultAssumedQuota
	}
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	c := &Cache{
		store:   s,
		opts:    opts,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*entry),
	}

	raw, err := s.Get(ctx, ChartKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load chart cache: %w", err)
	default:
		if err := json.Unmarshal(raw, &c.entries); err != nil {
			log.WithError(err).Warn("discarding unreadable chart cache")
			c.entries = make(map[string]*entry)
		}
	}
	return c, nil
}

// Key builds the cache key for a ticker and timeframe.
func Key(ticker, timeframe string) string {
	return strings.ToUpper(ticker) + "-" + timeframe
}

// Get returns cached bars younger than the TTL. A hit refreshes the entry's
// access time; an expired entry is removed.
func (c *Cache) Get(ctx context.Context, ticker, timeframe string) ([]model.OHLCV, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(ticker, timeframe)
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.Sub(time.UnixMilli(e.GeneratedAt)) >= c.opts.TTL {
		delete(c.entries, key)
		if err := c.persistLocked(ctx); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("persist after expiry failed")
		}
		return nil, false
	}
	e.LastAccessed = now.UnixMilli()
	if err := c.persistLocked(ctx); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("persist access time failed")
	}
	return append([]model.OHLCV(nil), e.Data...), true
}

// Put stores bars for ticker and timeframe and persists the cache.
func (c *Cache) Put(ctx context.Context, ticker, timeframe string, data []model.OHLCV) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixMilli()
	c.entries[Key(ticker, timeframe)] = &entry{
		Ticker:       strings.ToUpper(ticker),
		Timeframe:    timeframe,
		Data:         append([]model.OHLCV(nil), data...),
		GeneratedAt:  now,
		LastAccessed: now,
	}
	return c.persistLocked(ctx)
}

// Len returns the number of cached series.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached series.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	return c.store.Delete(ctx, ChartKey)
}

// Evict keeps the floor(n*keepRatio) most recently used series.
func (c *Cache) Evict(ctx context.Context, keepRatio float64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.evictLocked(keepCount(len(c.entries), keepRatio))
	return removed, c.persistLocked(ctx)
}

// persistLocked writes the map, evicting first when it nears the size budget
// and again when the store reports quota exhaustion. If every retry fails the
// cache is cleared and the quota error returned. Caller holds mu.
func (c *Cache) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode chart cache: %w", err)
	}

	if float64(len(raw)) > proactiveThreshold*float64(c.opts.SizeBudget) {
		// The last entry is only dropped when it alone exceeds the budget.
		before := len(c.entries)
		keep := max(keepCount(before, proactiveKeep), 1)
		for {
			c.evictLocked(keep)
			if raw, err = json.Marshal(c.entries); err != nil {
				return fmt.Errorf("encode chart cache: %w", err)
			}
			if int64(len(raw)) <= c.opts.SizeBudget || len(c.entries) == 0 {
				break
			}
			keep = len(c.entries) - 1
		}
		if len(c.entries) < before {
			c.log.WithFields(logrus.Fields{"before": before, "after": len(c.entries)}).Info("evicted charts near size budget")
		}
	}

	err = c.store.Set(ctx, ChartKey, raw)
	if err == nil || !apperr.Is(err, apperr.KindQuotaExceeded) {
		return err
	}

	// Every ratio applies to the count before the first retry.
	n := len(c.entries)
	for _, ratio := range retryKeepRatios {
		c.evictLocked(keepCount(n, ratio))
		if raw, err = json.Marshal(c.entries); err != nil {
			return fmt.Errorf("encode chart cache: %w", err)
		}
		err = c.store.Set(ctx, ChartKey, raw)
		if err == nil {
			c.log.WithFields(logrus.Fields{"keep_ratio": ratio, "kept": len(c.entries)}).Warn("evicted charts after quota error")
			return nil
		}
		if !apperr.Is(err, apperr.KindQuotaExceeded) {
			return err
		}
	}

	c.log.WithError(err).Error("chart cache still over quota, clearing")
	c.entries = make(map[string]*entry)
	if derr := c.store.Delete(ctx, ChartKey); derr != nil {
		c.log.WithError(derr).Warn("delete chart cache failed")
	}
	return err
}

// evictLocked keeps the keep highest ranked entries and returns how many were
// dropped. Ranking is by lastAccessed, then generatedAt, both descending,
// then by key so equal timestamps evict in a fixed order.
func (c *Cache) evictLocked(keep int) int {
	if keep >= len(c.entries) {
		return 0
	}
	if keep < 0 {
		keep = 0
	}
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := c.entries[keys[i]], c.entries[keys[j]]
		if a.LastAccessed != b.LastAccessed {
			return a.LastAccessed > b.LastAccessed
		}
		if a.GeneratedAt != b.GeneratedAt {
			return a.GeneratedAt > b.GeneratedAt
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys[keep:] {
		delete(c.entries, k)
	}
	return len(keys) - keep
}

func keepCount(n int, ratio float64) int {
	return int(float64(n) * ratio)
}
