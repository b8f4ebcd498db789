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

// Fundamental is the equity valuation analyst.
type Fundamental struct {
	src provider.FundamentalsSource
	log *logrus.Entry
}

func NewFundamental(src provider.FundamentalsSource, log *logrus.Entry) *Fundamental {
	if log == nil {
		log = logger.Discard()
	}
	return &Fundamental{src: src, log: log.WithField("agent", "fundamental")}
}

func (f *Fundamental) Analyze(ctx context.Context, req Request) (*model.FundamentalAnalysis, error) {
	fm, err := f.src.Fundamentals(ctx, req.Ticker)
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		f.log.WithError(err).WithField("ticker", req.Ticker).Warn("fundamentals unavailable")
		return &model.FundamentalAnalysis{
			Signal:    model.SignalNeutral,
			Valuation: "unknown",
			Summary:   unavailable("fundamentals", err),
		}, nil
	}
	return scoreFundamentals(fm), nil
}

func scoreFundamentals(fm model.Fundamentals) *model.FundamentalAnalysis {
	out := &model.FundamentalAnalysis{
		PE:            fm.PE,
		RevenueGrowth: fm.RevenueGrowth,
		ROE:           fm.ROE,
		DebtToEquity:  fm.DebtToEquity,
		Valuation:     "fair",
	}
	var notes []string
	balance := 0

	switch {
	case fm.PE > 0 && fm.PE < 15:
		out.Valuation = "undervalued"
		balance++
		notes = append(notes, fmt.Sprintf("P/E %.1f looks cheap", fm.PE))
	case fm.PE > 35:
		out.Valuation = "overvalued"
		balance--
		notes = append(notes, fmt.Sprintf("P/E %.1f looks stretched", fm.PE))
	case fm.PE <= 0:
		out.Valuation = "unknown"
	}

	switch {
	case fm.RevenueGrowth > 10:
		balance++
		notes = append(notes, fmt.Sprintf("revenue growing %.1f%%", fm.RevenueGrowth))
	case fm.RevenueGrowth < 0:
		balance--
		notes = append(notes, fmt.Sprintf("revenue shrinking %.1f%%", fm.RevenueGrowth))
	}

	if fm.ROE > 15 {
		balance++
		notes = append(notes, fmt.Sprintf("ROE %.1f%% is strong", fm.ROE))
	}
	if fm.DebtToEquity > 2 {
		balance--
		notes = append(notes, fmt.Sprintf("debt/equity %.2f is high", fm.DebtToEquity))
	}

	out.Signal = signalOf(balance)
	out.Confidence = balanceConfidence(balance, 90)
	if len(notes) == 0 {
		notes = append(notes, "valuation metrics are unremarkable")
	}
	out.Summary = strings.Join(notes, "; ")
	return out
}
