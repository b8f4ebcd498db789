// Package risk runs three reviewers with different risk appetites over a
// strategy and settles their votes by majority.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"TradeCouncil/internal/model"
	"TradeCouncil/internal/strategy"
)

const (
	neutralApprove      = 70
	neutralReject       = 50
	conservativeApprove = 75
	minRiskReward       = 2

	aggressiveScale   = 1.5
	aggressiveStretch = 1.5
	neutralScale      = 0.75
	conservativeScale = 0.5

	// neutralStopKeep is the share of the entry-to-stop distance the neutral
	// reviewer keeps when tightening.
	neutralStopKeep = 0.75
)

// Review evaluates the strategy from all three perspectives.
func Review(s model.TradingStrategy, d model.DebateResult) model.RiskAssessment {
	ra := model.RiskAssessment{
		Aggressive:   aggressive(s, d),
		Neutral:      neutral(s),
		Conservative: conservative(s, d),
	}
	ra.FinalDecision = Majority(ra.Perspectives())
	ra.Consensus = consensus(ra)
	if ra.FinalDecision == model.DecisionModify {
		adj := neutralAdjustments(s)
		adjusted := Apply(s, adj)
		ra.AdjustedStrategy = &adjusted
	}
	return ra
}

// Majority returns APPROVE or REJECT when at least two reviewers agree on it,
// MODIFY otherwise.
func Majority(votes []model.RiskPerspective) model.Decision {
	var approve, reject int
	for _, v := range votes {
		switch v.Recommendation {
		case model.DecisionApprove:
			approve++
		case model.DecisionReject:
			reject++
		}
	}
	switch {
	case approve >= 2:
		return model.DecisionApprove
	case reject >= 2:
		return model.DecisionReject
	default:
		return model.DecisionModify
	}
}

func agrees(rec model.Recommendation, w model.Winner) bool {
	switch rec {
	case model.RecommendBuy:
		return w == model.WinnerBull
	case model.RecommendSell:
		return w == model.WinnerBear
	default:
		return w == model.WinnerNeutral
	}
}

func aggressive(s model.TradingStrategy, d model.DebateResult) model.RiskPerspective {
	p := model.RiskPerspective{Name: "aggressive"}
	if !agrees(s.Recommendation, d.Winner) {
		p.Recommendation = model.DecisionModify
		p.Reasoning = fmt.Sprintf("%s runs against a %s debate; wants the call realigned before sizing up", s.Recommendation, d.Winner)
		return p
	}
	p.Recommendation = model.DecisionApprove
	p.Reasoning = fmt.Sprintf("%s agrees with the %s debate; press the position", s.Recommendation, d.Winner)
	if s.Recommendation != model.RecommendHold {
		stretched := s.EntryPrice + (s.TargetPrice-s.EntryPrice)*aggressiveStretch
		p.Adjustments = &model.StrategyAdjustments{
			TargetPrice:   roundCents(stretched),
			PositionScale: aggressiveScale,
		}
	}
	return p
}

func neutral(s model.TradingStrategy) model.RiskPerspective {
	p := model.RiskPerspective{Name: "neutral"}
	switch {
	case s.Confidence >= neutralApprove:
		p.Recommendation = model.DecisionApprove
		p.Reasoning = fmt.Sprintf("confidence %.0f is solid", s.Confidence)
	case s.Confidence < neutralReject:
		p.Recommendation = model.DecisionReject
		p.Reasoning = fmt.Sprintf("confidence %.0f is too low to act on", s.Confidence)
	default:
		p.Recommendation = model.DecisionModify
		p.Reasoning = fmt.Sprintf("confidence %.0f is middling; tighten the stop and size moderately", s.Confidence)
		adj := neutralAdjustments(s)
		p.Adjustments = &adj
	}
	return p
}

func conservative(s model.TradingStrategy, d model.DebateResult) model.RiskPerspective {
	p := model.RiskPerspective{Name: "conservative"}
	switch {
	case s.RiskReward < minRiskReward:
		p.Recommendation = model.DecisionReject
		p.Reasoning = fmt.Sprintf("risk/reward %.2f is below %d", s.RiskReward, minRiskReward)
	case d.Winner == model.WinnerNeutral:
		p.Recommendation = model.DecisionReject
		p.Reasoning = "the debate was inconclusive"
	case s.Confidence >= conservativeApprove:
		p.Recommendation = model.DecisionApprove
		p.Reasoning = fmt.Sprintf("confidence %.0f with risk/reward %.2f", s.Confidence, s.RiskReward)
	default:
		p.Recommendation = model.DecisionModify
		p.Reasoning = fmt.Sprintf("confidence %.0f is under %d; halve the size", s.Confidence, conservativeApprove)
		p.Adjustments = &model.StrategyAdjustments{PositionScale: conservativeScale}
	}
	return p
}

// neutralAdjustments pulls the stop toward entry and keeps the target.
func neutralAdjustments(s model.TradingStrategy) model.StrategyAdjustments {
	stop := s.EntryPrice - (s.EntryPrice-s.StopLoss)*neutralStopKeep
	return model.StrategyAdjustments{
		StopLoss:      roundCents(stop),
		TargetPrice:   s.TargetPrice,
		PositionScale: neutralScale,
	}
}

// Apply returns a copy of s with the adjustments merged and risk/reward recomputed.
func Apply(s model.TradingStrategy, adj model.StrategyAdjustments) model.TradingStrategy {
	out := s
	out.KeyPoints = append([]string(nil), s.KeyPoints...)
	if adj.StopLoss > 0 {
		out.StopLoss = adj.StopLoss
	}
	if adj.TargetPrice > 0 {
		out.TargetPrice = adj.TargetPrice
	}
	if adj.PositionScale > 0 {
		out.PositionSize = model.PositionSizing{
			Conservative: scale(s.PositionSize.Conservative, adj.PositionScale),
			Moderate:     scale(s.PositionSize.Moderate, adj.PositionScale),
			Aggressive:   scale(s.PositionSize.Aggressive, adj.PositionScale),
		}
	}
	out.RiskReward = strategy.RiskReward(out.EntryPrice, out.TargetPrice, out.StopLoss)
	out.KeyPoints = append(out.KeyPoints, fmt.Sprintf("Risk panel adjusted stop to %.2f and target to %.2f", out.StopLoss, out.TargetPrice))
	return out
}

func consensus(ra model.RiskAssessment) string {
	counts := map[model.Decision]int{}
	for _, p := range ra.Perspectives() {
		counts[p.Recommendation]++
	}
	return fmt.Sprintf("%s (approve %d, reject %d, modify %d)",
		ra.FinalDecision, counts[model.DecisionApprove], counts[model.DecisionReject], counts[model.DecisionModify])
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func scale(v, by float64) float64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromFloat(by)).Round(2).InexactFloat64()
}
