package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/provider"
)

// CryptoFundamental replaces the equity valuation analyst for coins.
type CryptoFundamental struct {
	src provider.CryptoSource
	log *logrus.Entry
}

func NewCryptoFundamental(src provider.CryptoSource, log *logrus.Entry) *CryptoFundamental {
	if log == nil {
		log = logger.Discard()
	}
	return &CryptoFundamental{src: src, log: log.WithField("agent", "crypto_fundamental")}
}

func (c *CryptoFundamental) Analyze(ctx context.Context, req Request) (*model.FundamentalAnalysis, error) {
	m, err := c.src.CryptoMarket(ctx, req.Base())
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		c.log.WithError(err).WithField("ticker", req.Ticker).Warn("coin market data unavailable")
		return &model.FundamentalAnalysis{
			Signal:    model.SignalNeutral,
			Valuation: "unknown",
			Summary:   unavailable("coin market data", err),
		}, nil
	}
	return scoreCrypto(m), nil
}

func scoreCrypto(m model.CryptoMarket) *model.FundamentalAnalysis {
	out := &model.FundamentalAnalysis{MarketCapRank: m.MarketCapRank}
	if m.MarketCap > 0 {
		out.VolumeToMarketCap = m.TotalVolume / m.MarketCap
	}
	var notes []string
	balance := 0

	switch {
	case m.MarketCapRank > 0 && m.MarketCapRank <= 10:
		out.Valuation = "large cap"
		balance++
		notes = append(notes, fmt.Sprintf("top-10 coin (rank %d)", m.MarketCapRank))
	case m.MarketCapRank > 100 || m.MarketCapRank == 0:
		out.Valuation = "small cap"
		balance--
		notes = append(notes, "outside the top 100 by market cap")
	default:
		out.Valuation = "mid cap"
	}

	change := 0
	switch {
	case m.ChangePercent > 5:
		change = 1
		notes = append(notes, fmt.Sprintf("up %.1f%% in 24h", m.ChangePercent))
	case m.ChangePercent < -5:
		change = -1
		notes = append(notes, fmt.Sprintf("down %.1f%% in 24h", -m.ChangePercent))
	}
	balance += change
	// Heavy turnover confirms whichever way the day is moving.
	if out.VolumeToMarketCap > 0.15 && change != 0 {
		balance += change
		notes = append(notes, fmt.Sprintf("volume is %.0f%% of market cap", out.VolumeToMarketCap*100))
	}

	out.Signal = signalOf(balance)
	out.Confidence = balanceConfidence(balance, 85)
	if len(notes) == 0 {
		notes = append(notes, "coin metrics are unremarkable")
	}
	out.Summary = strings.Join(notes, "; ")
	return out
}
