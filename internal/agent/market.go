package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/calculator"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
)

// BarLoader supplies chart history, normally through the chart cache.
type BarLoader interface {
	FetchMarketData(ctx context.Context, sym, interval, timeframe string) ([]model.OHLCV, error)
}

// Market is the technical analyst.
type Market struct {
	bars BarLoader
	log  *logrus.Entry
}

func NewMarket(bars BarLoader, log *logrus.Entry) *Market {
	if log == nil {
		log = logger.Discard()
	}
	return &Market{bars: bars, log: log.WithField("agent", "market")}
}

// Analyze scores trend, momentum and RSI extremes for the request.
func (m *Market) Analyze(ctx context.Context, req Request) (*model.MarketAnalysis, error) {
	sym := req.Ticker
	if req.Crypto() {
		sym = req.Base() + "-USD"
	}

	bars, err := m.bars.FetchMarketData(ctx, sym, "", req.Timeframe)
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		m.log.WithError(err).WithField("ticker", sym).Warn("market data unavailable")
		return &model.MarketAnalysis{Signal: model.SignalNeutral, Summary: unavailable("market data", err)}, nil
	}
	ind, err := calculator.Compute(bars, req.Quote.Price)
	if err != nil {
		return &model.MarketAnalysis{Signal: model.SignalNeutral, Summary: unavailable("indicators", err)}, nil
	}

	return scoreMarket(ind, req.Quote.ChangePercent, len(bars)), nil
}

func scoreMarket(ind *model.MarketIndicators, changePct float64, n int) *model.MarketAnalysis {
	out := &model.MarketAnalysis{
		RSI:           ind.RSI,
		SMA20:         ind.SMA20,
		SMA50:         ind.SMA50,
		Support:       ind.Support,
		Resistance:    ind.Resistance,
		RangePosition: ind.RangePosition,
		Bars:          n,
	}
	var notes []string
	balance := 0

	switch {
	case changePct > 2 && ind.RangePosition >= 0.7:
		out.Momentum = string(model.SignalBullish)
		balance++
		notes = append(notes, fmt.Sprintf("up %.1f%% near the top of its range", changePct))
	case changePct < -2 && ind.RangePosition <= 0.3:
		out.Momentum = string(model.SignalBearish)
		balance--
		notes = append(notes, fmt.Sprintf("down %.1f%% near the bottom of its range", -changePct))
	default:
		out.Momentum = string(model.SignalNeutral)
	}

	p := ind.CurrentPrice
	switch {
	case p > ind.SMA20 && ind.SMA20 > ind.SMA50:
		out.Trend = "uptrend"
		balance++
		notes = append(notes, "price above SMA20 above SMA50")
	case p < ind.SMA20 && ind.SMA20 < ind.SMA50:
		out.Trend = "downtrend"
		balance--
		notes = append(notes, "price below SMA20 below SMA50")
	default:
		out.Trend = "sideways"
	}

	switch {
	case ind.RSI < 30:
		balance++
		notes = append(notes, fmt.Sprintf("RSI %.0f oversold", ind.RSI))
	case ind.RSI > 70:
		balance--
		notes = append(notes, fmt.Sprintf("RSI %.0f overbought", ind.RSI))
	}

	out.Signal = signalOf(balance)
	out.Confidence = balanceConfidence(balance, 90)
	if len(notes) == 0 {
		notes = append(notes, fmt.Sprintf("no clear technical edge, RSI %.0f", ind.RSI))
	}
	out.Summary = strings.Join(notes, "; ")
	return out
}
