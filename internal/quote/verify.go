package quote

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// MaxReliableSpread is the largest cross-source spread, in percent, that still
// counts as agreement.
const MaxReliableSpread = 0.5

// Verification compares quotes from every source for the same symbol.
type Verification struct {
	Symbol        string           `json:"symbol"`
	Quotes        []model.Quote    `json:"quotes"`
	Failures      []apperr.Failure `json:"-"`
	MaxPrice      float64          `json:"maxPrice"`
	MinPrice      float64          `json:"minPrice"`
	SpreadPercent float64          `json:"spreadPercent"`
	Reliable      bool             `json:"reliable"`
}

// Verify queries all sources concurrently and reports how closely they agree.
// Fewer than two valid quotes is never reliable.
func (a *Acquirer) Verify(ctx context.Context, symbol string) Verification {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	results := make([]model.Quote, len(a.sources))
	errs := make([]error, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			results[i], errs[i] = src.Quote(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	v := Verification{Symbol: symbol}
	for i, src := range a.sources {
		switch {
		case errs[i] != nil:
			if !apperr.Is(errs[i], apperr.KindProviderUnavailable) {
				v.Failures = append(v.Failures, apperr.Failure{Provider: src.Name(), Err: errs[i]})
			}
		case results[i].Valid():
			v.Quotes = append(v.Quotes, results[i])
		}
	}

	for i, q := range v.Quotes {
		if i == 0 || q.Price > v.MaxPrice {
			v.MaxPrice = q.Price
		}
		if i == 0 || q.Price < v.MinPrice {
			v.MinPrice = q.Price
		}
	}
	if v.MinPrice > 0 {
		v.SpreadPercent = (v.MaxPrice - v.MinPrice) / v.MinPrice * 100
	}
	v.Reliable = len(v.Quotes) >= 2 && v.SpreadPercent < MaxReliableSpread
	return v
}
