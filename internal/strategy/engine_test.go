package strategy

import (
	"testing"

	"TradeCouncil/internal/model"
)

func analyses(ms, fs, ns model.Signal, conf float64) (*model.MarketAnalysis, *model.FundamentalAnalysis, *model.NewsAnalysis) {
	return &model.MarketAnalysis{Signal: ms, Confidence: conf, Support: 95, Resistance: 120, Summary: "m"},
		&model.FundamentalAnalysis{Signal: fs, Confidence: conf, Summary: "f"},
		&model.NewsAnalysis{Signal: ns, Confidence: conf, Summary: "n"}
}

func TestSynthesize_Buy(t *testing.T) {
	m, f, n := analyses(model.SignalBullish, model.SignalBullish, model.SignalNeutral, 70)
	s := Synthesize(model.Quote{Price: 100}, m, f, n, "1D")

	if s.Recommendation != model.RecommendBuy {
		t.Fatalf("expected BUY, got %s", s.Recommendation)
	}
	if s.Confidence != 80 {
		t.Errorf("expected confidence 80, got %.1f", s.Confidence)
	}
	if s.TargetPrice != 120 || s.StopLoss != 95 {
		t.Errorf("expected target 120 stop 95, got %.2f / %.2f", s.TargetPrice, s.StopLoss)
	}
	if s.RiskReward != 4 {
		t.Errorf("expected R/R 4, got %.2f", s.RiskReward)
	}
	if s.PositionSize != Tiers[1].Sizing {
		t.Errorf("expected tier 70 sizing, got %+v", s.PositionSize)
	}
	if len(s.KeyPoints) != 3 || s.Timeframe != "1D" {
		t.Errorf("unexpected key points %v / timeframe %s", s.KeyPoints, s.Timeframe)
	}
}

func TestSynthesize_SellMirrorsLevels(t *testing.T) {
	m, f, n := analyses(model.SignalBearish, model.SignalBearish, model.SignalBearish, 90)
	s := Synthesize(model.Quote{Price: 100}, m, f, n, "1D")

	if s.Recommendation != model.RecommendSell {
		t.Fatalf("expected SELL, got %s", s.Recommendation)
	}
	if s.Confidence != 95 {
		t.Errorf("expected capped confidence 95, got %.1f", s.Confidence)
	}
	if s.TargetPrice != 95 || s.StopLoss != 120 {
		t.Errorf("expected target 95 stop 120, got %.2f / %.2f", s.TargetPrice, s.StopLoss)
	}
	if s.RiskReward != 0.25 {
		t.Errorf("expected R/R 0.25, got %.2f", s.RiskReward)
	}
}

func TestSynthesize_HoldHasNoSizing(t *testing.T) {
	m, f, n := analyses(model.SignalBullish, model.SignalBearish, model.SignalNeutral, 60)
	s := Synthesize(model.Quote{Price: 100}, m, f, n, "4H")

	if s.Recommendation != model.RecommendHold {
		t.Fatalf("expected HOLD, got %s", s.Recommendation)
	}
	if s.Confidence != 60 {
		t.Errorf("HOLD confidence should not be boosted, got %.1f", s.Confidence)
	}
	if s.PositionSize != (model.PositionSizing{}) {
		t.Errorf("expected zero sizing, got %+v", s.PositionSize)
	}
	if s.TargetPrice != 120 || s.StopLoss != 95 {
		t.Errorf("HOLD should carry BUY reference levels, got %.2f / %.2f", s.TargetPrice, s.StopLoss)
	}
}

func TestSynthesize_NilAnalysesAreNeutral(t *testing.T) {
	s := Synthesize(model.Quote{Price: 50}, nil, nil, nil, "1D")
	if s.Recommendation != model.RecommendHold || s.Confidence != 0 {
		t.Errorf("expected HOLD at 0, got %s %.1f", s.Recommendation, s.Confidence)
	}
	if s.TargetPrice != 55 || s.StopLoss != 47.5 {
		t.Errorf("expected default levels 55 / 47.5, got %.2f / %.2f", s.TargetPrice, s.StopLoss)
	}
}

func TestLevels_WrongSideIsMissing(t *testing.T) {
	tests := []struct {
		name                string
		rec                 model.Recommendation
		support, resistance float64
		target, stop        float64
	}{
		{"buy with levels", model.RecommendBuy, 90, 115, 115, 90},
		{"buy without levels", model.RecommendBuy, 0, 0, 110, 95},
		{"buy support above entry", model.RecommendBuy, 105, 98, 110, 95},
		{"sell with levels", model.RecommendSell, 90, 115, 90, 115},
		{"sell without levels", model.RecommendSell, 0, 0, 90, 105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, stop := Levels(tt.rec, 100, tt.support, tt.resistance)
			if round(target, 2) != tt.target || round(stop, 2) != tt.stop {
				t.Errorf("got %.2f / %.2f, want %.2f / %.2f", target, stop, tt.target, tt.stop)
			}
		})
	}
}

func TestRiskReward(t *testing.T) {
	if rr := RiskReward(100, 110, 95); rr != 2 {
		t.Errorf("expected 2, got %.2f", rr)
	}
	if rr := RiskReward(100, 110, 100); rr != 0 {
		t.Errorf("expected 0 for zero risk, got %.2f", rr)
	}
	if rr := RiskReward(100, 107, 97); rr != 2.33 {
		t.Errorf("expected 2.33, got %.2f", rr)
	}
}

func TestMapTier(t *testing.T) {
	tests := []struct {
		conf float64
		want model.PositionSizing
	}{
		{95, Tiers[0].Sizing},
		{85, Tiers[0].Sizing},
		{84.9, Tiers[1].Sizing},
		{55, Tiers[2].Sizing},
		{40, DefaultTier},
	}
	for _, tt := range tests {
		if got := mapTier(tt.conf); got != tt.want {
			t.Errorf("mapTier(%.1f) = %+v, want %+v", tt.conf, got, tt.want)
		}
	}
}
