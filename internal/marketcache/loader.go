package marketcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/provider"
	"TradeCouncil/internal/ticker"
)

// Loader serves chart data from the cache and falls back to a bar source.
type Loader struct {
	cache *Cache
	bars  provider.BarSource
	log   *logrus.Entry
}

func NewLoader(cache *Cache, bars provider.BarSource) *Loader {
	return &Loader{cache: cache, bars: bars, log: cache.log.WithField("source", bars.Name())}
}

// FetchMarketData returns bars for sym at interval over timeframe. A recent
// failure for the same key short-circuits without a network call. A failed
// cache write is logged and the fetched data still returned.
func (l *Loader) FetchMarketData(ctx context.Context, sym, interval, timeframe string) ([]model.OHLCV, error) {
	if bars, ok := l.cache.Get(ctx, sym, timeframe); ok {
		return bars, nil
	}

	if reason, ok := l.cache.Suppressed(ctx, sym, timeframe); ok {
		msg := fmt.Errorf("%s %s suppressed after recent %s", sym, timeframe, reason)
		if reason == ReasonRateLimit {
			return nil, apperr.RateLimited(l.bars.Name(), "chart", msg)
		}
		return nil, apperr.Provider(l.bars.Name(), "chart", 0, msg)
	}

	defInterval, rng := ticker.ChartParams(timeframe)
	if interval == "" {
		interval = defInterval
	}

	bars, err := l.bars.FetchBars(ctx, sym, interval, rng)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		reason := ReasonError
		if apperr.Is(err, apperr.KindRateLimited) {
			reason = ReasonRateLimit
		}
		if merr := l.cache.RecordFailure(ctx, sym, timeframe, reason); merr != nil {
			l.log.WithError(merr).Warn("record failure memo")
		}
		return nil, fmt.Errorf("fetch %s %s: %w", sym, timeframe, err)
	}

	if err := l.cache.Put(ctx, sym, timeframe, bars); err != nil {
		l.log.WithError(err).WithField("key", Key(sym, timeframe)).Warn("cache put failed")
	}
	return bars, nil
}
