package debate

import (
	"strings"
	"testing"

	"TradeCouncil/internal/model"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		bull, bear float64
		want       model.Winner
	}{
		{80, 50, model.WinnerBull},
		{60, 55, model.WinnerNeutral},
		{50, 75, model.WinnerBear},
		{70, 50, model.WinnerNeutral}, // exactly 20 is not enough
		{50, 70, model.WinnerNeutral},
	}
	for _, tt := range tests {
		if got := Decide(tt.bull, tt.bear); got != tt.want {
			t.Errorf("Decide(%.0f, %.0f) = %s, want %s", tt.bull, tt.bear, got, tt.want)
		}
	}
}

func bullishInputs() Inputs {
	return Inputs{
		Market:      &model.MarketAnalysis{Signal: model.SignalBullish, Trend: "uptrend", Momentum: "bullish", RSI: 55, Bars: 60},
		Fundamental: &model.FundamentalAnalysis{Signal: model.SignalBullish, Valuation: "undervalued"},
		News:        &model.NewsAnalysis{Signal: model.SignalBullish, ArticleCount: 8},
		Social:      &model.SocialAnalysis{Signal: model.SignalBearish, PositiveRatio: 0.3},
	}
}

func TestRun_BullWins(t *testing.T) {
	got := Run(bullishInputs())

	// 50 + technical 15 + valuation 10 + news 10
	if got.BullCase.Confidence != 85 {
		t.Errorf("bull confidence = %.0f, want 85", got.BullCase.Confidence)
	}
	// 50 + social 5
	if got.BearCase.Confidence != 55 {
		t.Errorf("bear confidence = %.0f, want 55", got.BearCase.Confidence)
	}
	if got.DebateScore != 30 || got.Winner != model.WinnerBull {
		t.Errorf("score %.0f winner %s, want 30 bull", got.DebateScore, got.Winner)
	}
	if len(got.BullCase.Arguments) != 3 || !strings.HasPrefix(got.BullCase.Arguments[0], "technicals") {
		t.Errorf("bull arguments = %v", got.BullCase.Arguments)
	}
	if !strings.Contains(got.Consensus, "technicals") || !strings.Contains(got.Consensus, "social") {
		t.Errorf("consensus %q should cite both cases", got.Consensus)
	}
}

func TestRun_Symmetric(t *testing.T) {
	in := bullishInputs()
	flip := func(s model.Signal) model.Signal {
		switch s {
		case model.SignalBullish:
			return model.SignalBearish
		case model.SignalBearish:
			return model.SignalBullish
		}
		return s
	}
	mirrored := Inputs{
		Market:      &model.MarketAnalysis{Signal: flip(in.Market.Signal), RSI: 45, Bars: 60},
		Fundamental: &model.FundamentalAnalysis{Signal: flip(in.Fundamental.Signal)},
		News:        &model.NewsAnalysis{Signal: flip(in.News.Signal)},
		Social:      &model.SocialAnalysis{Signal: flip(in.Social.Signal)},
	}
	a, b := Run(in), Run(mirrored)
	if a.BullCase.Confidence != b.BearCase.Confidence || a.BearCase.Confidence != b.BullCase.Confidence {
		t.Errorf("cases not symmetric: %+v vs %+v", a, b)
	}
	if b.Winner != model.WinnerBear {
		t.Errorf("mirrored winner = %s, want bear", b.Winner)
	}
}

func TestRun_ExtremesAndCap(t *testing.T) {
	in := Inputs{
		Market:      &model.MarketAnalysis{Signal: model.SignalBullish, RSI: 25, Bars: 60},
		Fundamental: &model.FundamentalAnalysis{Signal: model.SignalBullish},
		News:        &model.NewsAnalysis{Signal: model.SignalBullish},
		Social:      &model.SocialAnalysis{Signal: model.SignalBullish},
		Options:     &model.OptionsAnalysis{Signal: model.SignalBullish},
	}
	got := Run(in)
	// 50 + 15 + 10 + 10 + 10 + 5 + 5 = 105, capped
	if got.BullCase.Confidence != 95 {
		t.Errorf("bull confidence = %.0f, want 95", got.BullCase.Confidence)
	}
	if got.BearCase.Confidence != 50 || len(got.BearCase.Arguments) != 0 {
		t.Errorf("bear case = %+v, want bare 50", got.BearCase)
	}
	if !strings.Contains(got.Consensus, "no supporting evidence") {
		t.Errorf("consensus %q should note the empty bear case", got.Consensus)
	}
}

func TestRun_DegradedMarketAddsNoExtreme(t *testing.T) {
	// A degraded market analysis has zero bars and RSI 0; it must not read as oversold.
	got := Run(Inputs{Market: &model.MarketAnalysis{Signal: model.SignalNeutral}})
	if got.BullCase.Confidence != 50 || got.Winner != model.WinnerNeutral {
		t.Errorf("got %+v", got)
	}
}
