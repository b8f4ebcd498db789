package model

// Signal is the tri-state direction every analyst emits.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// Score maps the signal to +1, -1 or 0.
func (s Signal) Score() int {
	switch s {
	case SignalBullish:
		return 1
	case SignalBearish:
		return -1
	default:
		return 0
	}
}

// Recommendation is the strategy direction.
type Recommendation string

const (
	RecommendBuy  Recommendation = "BUY"
	RecommendSell Recommendation = "SELL"
	RecommendHold Recommendation = "HOLD"
)

// Decision is a risk reviewer's vote.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
	DecisionModify  Decision = "MODIFY"
)

// Winner is the outcome of the bull/bear debate.
type Winner string

const (
	WinnerBull    Winner = "bull"
	WinnerBear    Winner = "bear"
	WinnerNeutral Winner = "neutral"
)
