// Package agent holds the independent analysts. Each one scores a single
// dimension of a ticker and degrades to a neutral, zero-confidence result
// when its upstream data is unavailable.
package agent

import (
	"context"
	"errors"
	"fmt"
	"math"

	"TradeCouncil/internal/model"
	"TradeCouncil/internal/ticker"
)

// Request is the shared input of every agent.
type Request struct {
	Ticker     string
	Timeframe  string
	AssetClass model.AssetClass
	Quote      model.Quote
}

// Crypto reports whether the request is on the crypto branch.
func (r Request) Crypto() bool { return r.AssetClass == model.AssetCrypto }

// Base returns the ticker without a "-USD" suffix.
func (r Request) Base() string { return ticker.BaseSymbol(r.Ticker) }

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func unavailable(what string, err error) string {
	return fmt.Sprintf("%s unavailable: %v", what, err)
}

// signalOf maps a point balance to a direction.
func signalOf(balance int) model.Signal {
	switch {
	case balance > 0:
		return model.SignalBullish
	case balance < 0:
		return model.SignalBearish
	default:
		return model.SignalNeutral
	}
}

// balanceConfidence is 50 plus 10 per net point, capped.
func balanceConfidence(balance int, limit float64) float64 {
	return math.Min(limit, 50+10*math.Abs(float64(balance)))
}
