package agent

import (
	"context"
	"fmt"

	"TradeCouncil/internal/calculator"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/provider"
)

// Options is the options flow analyst. Unlike the other agents it returns
// upstream errors; callers decide whether options data is optional.
type Options struct {
	src provider.OptionsSource
}

func NewOptions(src provider.OptionsSource) *Options {
	return &Options{src: src}
}

func (o *Options) Analyze(ctx context.Context, req Request) (*model.OptionsAnalysis, error) {
	chain, err := o.src.OptionsChain(ctx, req.Ticker)
	if err != nil {
		return nil, fmt.Errorf("options chain %s: %w", req.Ticker, err)
	}
	return scoreOptions(chain, req.Quote.Price), nil
}

func scoreOptions(chain []model.OptionContract, price float64) *model.OptionsAnalysis {
	out := &model.OptionsAnalysis{Signal: model.SignalNeutral, Contracts: len(chain)}
	if len(chain) == 0 {
		out.Summary = "no listed options"
		return out
	}
	out.PutCallRatio = calculator.PutCallRatio(chain)
	out.MaxPain = calculator.MaxPain(chain)
	out.AvgImpliedVol = calculator.AverageIV(chain)

	out.Confidence = 40
	switch {
	case out.PutCallRatio > 0 && out.PutCallRatio < 0.7:
		out.Signal = model.SignalBullish
		out.Confidence = 60
	case out.PutCallRatio > 1.0:
		out.Signal = model.SignalBearish
		out.Confidence = 60
	}
	// Price tends to drift toward max pain into expiry.
	if price > 0 && out.MaxPain > 0 {
		if (out.Signal == model.SignalBullish && out.MaxPain > price) ||
			(out.Signal == model.SignalBearish && out.MaxPain < price) {
			out.Confidence += 10
		}
	}
	out.Summary = fmt.Sprintf("put/call %.2f, max pain %.2f, avg IV %.0f%%",
		out.PutCallRatio, out.MaxPain, out.AvgImpliedVol*100)
	return out
}
