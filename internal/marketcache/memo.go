package marketcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"TradeCouncil/internal/store"
)

// Failure reasons recorded in the memo.
const (
	ReasonRateLimit = "rate_limit"
	ReasonError     = "error"
)

const (
	rateLimitSuppression = 5 * time.Minute
	errorSuppression     = time.Minute
)

type failureMemo struct {
	Timestamp int64  `json:"timestamp"`
	Reason    string `json:"reason"`
}

func memoKey(ticker, timeframe string) string {
	return "failure-" + Key(ticker, timeframe)
}

// RecordFailure remembers that fetching ticker/timeframe just failed.
func (c *Cache) RecordFailure(ctx context.Context, ticker, timeframe, reason string) error {
	raw, err := json.Marshal(failureMemo{Timestamp: c.now().UnixMilli(), Reason: reason})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, memoKey(ticker, timeframe), raw)
}

// Suppressed reports whether a recent failure still blocks refetching. Rate
// limits block for five minutes, other failures for one. Stale memos are removed.
func (c *Cache) Suppressed(ctx context.Context, ticker, timeframe string) (string, bool) {
	key := memoKey(ticker, timeframe)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.WithError(err).WithField("key", key).Warn("read failure memo")
		}
		return "", false
	}
	var m failureMemo
	if err := json.Unmarshal(raw, &m); err != nil {
		_ = c.store.Delete(ctx, key)
		return "", false
	}

	window := errorSuppression
	if m.Reason == ReasonRateLimit {
		window = rateLimitSuppression
	}
	if c.now().Sub(time.UnixMilli(m.Timestamp)) < window {
		return m.Reason, true
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("delete stale failure memo")
	}
	return "", false
}
