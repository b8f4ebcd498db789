// Package quote resolves a live price through an ordered chain of providers.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/provider"
)

// Acquirer tries quote sources in priority order.
type Acquirer struct {
	sources []provider.QuoteSource
	log     *logrus.Entry
}

// NewAcquirer builds a chain. The order of sources is their priority.
func NewAcquirer(log *logrus.Entry, sources ...provider.QuoteSource) *Acquirer {
	if log == nil {
		log = logger.Discard()
	}
	return &Acquirer{sources: sources, log: log}
}

// Sources returns the names of the chain in priority order.
func (a *Acquirer) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Get returns the first valid quote. Unconfigured providers are skipped
// silently; every other failure is collected and reported if the chain runs dry.
func (a *Acquirer) Get(ctx context.Context, symbol string) (model.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var failures []apperr.Failure

	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return model.Quote{}, err
		}
		q, err := src.Quote(ctx, symbol)
		if err != nil {
			if apperr.Is(err, apperr.KindProviderUnavailable) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return model.Quote{}, err
			}
			a.log.WithFields(logrus.Fields{"source": src.Name(), "symbol": symbol}).WithError(err).Warn("quote source failed")
			failures = append(failures, apperr.Failure{Provider: src.Name(), Err: err})
			continue
		}
		if !q.Valid() {
			failures = append(failures, apperr.Failure{
				Provider: src.Name(),
				Err:      fmt.Errorf("invalid quote: price %.4f symbol %q", q.Price, q.Symbol),
			})
			continue
		}
		return q, nil
	}
	return model.Quote{}, apperr.Exhausted("quote "+symbol, failures)
}
