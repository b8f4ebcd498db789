// Package strategy turns the primary analyst signals into a directional call
// with entry, target, stop and position sizing.
package strategy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"TradeCouncil/internal/model"
)

// Tiers maps strategy confidence to percent-of-portfolio sizing.
var Tiers = []struct {
	MinConfidence float64
	Sizing        model.PositionSizing
}{
	{85, model.PositionSizing{Conservative: 5, Moderate: 8, Aggressive: 12}},
	{70, model.PositionSizing{Conservative: 3, Moderate: 5, Aggressive: 8}},
	{55, model.PositionSizing{Conservative: 2, Moderate: 3, Aggressive: 5}},
}

// DefaultTier is the sizing for confidences below every tier.
var DefaultTier = model.PositionSizing{Conservative: 1, Moderate: 2, Aggressive: 3}

const (
	signalThreshold = 2
	directionBoost  = 10
	maxConfidence   = 95

	defaultTargetPct = 0.10
	defaultStopPct   = 0.05
)

// mapTier maps a confidence to its sizing tier.
func mapTier(confidence float64) model.PositionSizing {
	for _, t := range Tiers {
		if confidence >= t.MinConfidence {
			return t.Sizing
		}
	}
	return DefaultTier
}

// Synthesize combines the three primary analysts into a trading strategy.
// Nil analyses count as neutral with zero confidence.
func Synthesize(q model.Quote, market *model.MarketAnalysis, fundamental *model.FundamentalAnalysis, news *model.NewsAnalysis, timeframe string) model.TradingStrategy {
	type vote struct {
		name       string
		signal     model.Signal
		confidence float64
		summary    string
	}
	votes := []vote{{name: "Technical", signal: model.SignalNeutral}, {name: "Fundamental", signal: model.SignalNeutral}, {name: "News", signal: model.SignalNeutral}}
	if market != nil {
		votes[0] = vote{"Technical", market.Signal, market.Confidence, market.Summary}
	}
	if fundamental != nil {
		votes[1] = vote{"Fundamental", fundamental.Signal, fundamental.Confidence, fundamental.Summary}
	}
	if news != nil {
		votes[2] = vote{"News", news.Signal, news.Confidence, news.Summary}
	}

	total := 0
	sum := 0.0
	keyPoints := make([]string, 0, len(votes))
	for _, v := range votes {
		total += v.signal.Score()
		sum += v.confidence
		if v.summary != "" {
			keyPoints = append(keyPoints, fmt.Sprintf("%s (%s): %s", v.name, v.signal, v.summary))
		}
	}
	confidence := sum / float64(len(votes))

	rec := model.RecommendHold
	switch {
	case total >= signalThreshold:
		rec = model.RecommendBuy
	case total <= -signalThreshold:
		rec = model.RecommendSell
	}
	if rec != model.RecommendHold {
		confidence = math.Min(confidence+directionBoost, maxConfidence)
	}

	var support, resistance float64
	if market != nil {
		support, resistance = market.Support, market.Resistance
	}
	entry := q.Price
	target, stop := Levels(rec, entry, support, resistance)

	s := model.TradingStrategy{
		Recommendation: rec,
		Confidence:     round(confidence, 1),
		EntryPrice:     round(entry, 2),
		TargetPrice:    round(target, 2),
		StopLoss:       round(stop, 2),
		Timeframe:      timeframe,
		KeyPoints:      keyPoints,
	}
	s.RiskReward = RiskReward(s.EntryPrice, s.TargetPrice, s.StopLoss)
	if rec != model.RecommendHold {
		s.PositionSize = mapTier(s.Confidence)
	}
	s.Reasoning = reasoning(rec, total, s)
	return s
}

// Levels picks target and stop for a direction. A level of zero or on the
// wrong side of entry is treated as missing and replaced by a fixed percent.
// HOLD uses the BUY levels for reference.
func Levels(rec model.Recommendation, entry, support, resistance float64) (target, stop float64) {
	hasSupport := support > 0 && support < entry
	hasResistance := resistance > entry

	if rec == model.RecommendSell {
		target = entry * (1 - defaultTargetPct)
		if hasSupport {
			target = support
		}
		stop = entry * (1 + defaultStopPct)
		if hasResistance {
			stop = resistance
		}
		return target, stop
	}

	target = entry * (1 + defaultTargetPct)
	if hasResistance {
		target = resistance
	}
	stop = entry * (1 - defaultStopPct)
	if hasSupport {
		stop = support
	}
	return target, stop
}

// RiskReward is |target-entry| / |entry-stop|, rounded to two places.
// It returns 0 when the stop sits on the entry.
func RiskReward(entry, target, stop float64) float64 {
	risk := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop)).Abs()
	if risk.IsZero() {
		return 0
	}
	reward := decimal.NewFromFloat(target).Sub(decimal.NewFromFloat(entry)).Abs()
	return reward.DivRound(risk, 2).InexactFloat64()
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func reasoning(rec model.Recommendation, total int, s model.TradingStrategy) string {
	switch rec {
	case model.RecommendBuy:
		return fmt.Sprintf("Net signal %+d favors buying at %.2f toward %.2f with a stop at %.2f (R/R %.2f).",
			total, s.EntryPrice, s.TargetPrice, s.StopLoss, s.RiskReward)
	case model.RecommendSell:
		return fmt.Sprintf("Net signal %+d favors selling at %.2f toward %.2f with a stop at %.2f (R/R %.2f).",
			total, s.EntryPrice, s.TargetPrice, s.StopLoss, s.RiskReward)
	default:
		return fmt.Sprintf("Net signal %+d is not decisive; hold. Reference levels %.2f / %.2f.",
			total, s.TargetPrice, s.StopLoss)
	}
}
