package risk

import (
	"testing"

	"TradeCouncil/internal/model"
)

func buy(conf, rr float64) model.TradingStrategy {
	return model.TradingStrategy{
		Recommendation: model.RecommendBuy,
		Confidence:     conf,
		EntryPrice:     100,
		TargetPrice:    120,
		StopLoss:       92,
		RiskReward:     rr,
		PositionSize:   model.PositionSizing{Conservative: 3, Moderate: 5, Aggressive: 8},
	}
}

func votes(ds ...model.Decision) []model.RiskPerspective {
	out := make([]model.RiskPerspective, len(ds))
	for i, d := range ds {
		out[i] = model.RiskPerspective{Recommendation: d}
	}
	return out
}

func TestMajority(t *testing.T) {
	a, r, m := model.DecisionApprove, model.DecisionReject, model.DecisionModify
	tests := []struct {
		name string
		in   []model.RiskPerspective
		want model.Decision
	}{
		{"two approve", votes(a, a, r), a},
		{"all approve", votes(a, a, a), a},
		{"two reject", votes(r, m, r), r},
		{"split", votes(a, r, m), m},
		{"all modify", votes(m, m, m), m},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Majority(tt.in); got != tt.want {
				t.Errorf("Majority = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReview_Approve(t *testing.T) {
	ra := Review(buy(80, 2.5), model.DebateResult{Winner: model.WinnerBull})

	for _, p := range ra.Perspectives() {
		if p.Recommendation != model.DecisionApprove {
			t.Errorf("%s voted %s, want APPROVE", p.Name, p.Recommendation)
		}
	}
	if ra.FinalDecision != model.DecisionApprove || ra.AdjustedStrategy != nil {
		t.Errorf("final %s adjusted %v, want APPROVE without adjustment", ra.FinalDecision, ra.AdjustedStrategy)
	}
	adj := ra.Aggressive.Adjustments
	if adj == nil || adj.TargetPrice != 130 || adj.PositionScale != 1.5 {
		t.Errorf("aggressive adjustments = %+v, want target 130 scale 1.5", adj)
	}
}

func TestReview_Reject(t *testing.T) {
	ra := Review(buy(40, 1.5), model.DebateResult{Winner: model.WinnerBear})
	if ra.Aggressive.Recommendation != model.DecisionModify {
		t.Errorf("aggressive = %s, want MODIFY on disagreement", ra.Aggressive.Recommendation)
	}
	if ra.Neutral.Recommendation != model.DecisionReject || ra.Conservative.Recommendation != model.DecisionReject {
		t.Errorf("neutral %s conservative %s, want both REJECT", ra.Neutral.Recommendation, ra.Conservative.Recommendation)
	}
	if ra.FinalDecision != model.DecisionReject {
		t.Errorf("final = %s, want REJECT", ra.FinalDecision)
	}
}

func TestReview_SplitMergesNeutralAdjustments(t *testing.T) {
	// aggressive APPROVE, neutral MODIFY, conservative REJECT on R/R below 2
	s := buy(60, 1.8)
	ra := Review(s, model.DebateResult{Winner: model.WinnerBull})

	if ra.FinalDecision != model.DecisionModify {
		t.Fatalf("final = %s, want MODIFY", ra.FinalDecision)
	}
	adj := ra.AdjustedStrategy
	if adj == nil {
		t.Fatal("expected adjusted strategy")
	}
	// stop 92 -> 100 - 8*0.75 = 94
	if adj.StopLoss != 94 || adj.TargetPrice != 120 {
		t.Errorf("adjusted levels %.2f / %.2f, want 94 / 120", adj.StopLoss, adj.TargetPrice)
	}
	if adj.RiskReward != 3.33 {
		t.Errorf("adjusted R/R = %.2f, want 3.33", adj.RiskReward)
	}
	if adj.PositionSize.Moderate != 3.75 {
		t.Errorf("adjusted moderate size = %.2f, want 3.75", adj.PositionSize.Moderate)
	}
	if s.StopLoss != 92 {
		t.Error("Review must not mutate the input strategy")
	}
}

func TestConservative(t *testing.T) {
	bull := model.DebateResult{Winner: model.WinnerBull}
	tests := []struct {
		name string
		s    model.TradingStrategy
		d    model.DebateResult
		want model.Decision
	}{
		{"strong", buy(80, 2), bull, model.DecisionApprove},
		{"poor risk reward", buy(90, 1.9), bull, model.DecisionReject},
		{"inconclusive debate", buy(90, 3), model.DebateResult{Winner: model.WinnerNeutral}, model.DecisionReject},
		{"low confidence", buy(70, 3), bull, model.DecisionModify},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := conservative(tt.s, tt.d).Recommendation; got != tt.want {
				t.Errorf("conservative = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAggressive_HoldAgreesWithNeutralDebate(t *testing.T) {
	s := model.TradingStrategy{Recommendation: model.RecommendHold}
	p := aggressive(s, model.DebateResult{Winner: model.WinnerNeutral})
	if p.Recommendation != model.DecisionApprove || p.Adjustments != nil {
		t.Errorf("got %+v, want plain APPROVE", p)
	}
}
