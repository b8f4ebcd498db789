package model

import "time"

// DebateCase is one side of the bull/bear debate.
type DebateCase struct {
	Arguments  []string `json:"arguments"`
	Confidence float64  `json:"confidence"`
}

// DebateResult is the outcome of the adversarial debate.
type DebateResult struct {
	BullCase    DebateCase `json:"bullCase"`
	BearCase    DebateCase `json:"bearCase"`
	Winner      Winner     `json:"winner"`
	DebateScore float64    `json:"debateScore"`
	Consensus   string     `json:"consensus"`
}

// PositionSizing holds percent-of-portfolio allocations per risk appetite.
type PositionSizing struct {
	Conservative float64 `json:"conservative"`
	Moderate     float64 `json:"moderate"`
	Aggressive   float64 `json:"aggressive"`
}

// TradingStrategy is the synthesized directional call.
type TradingStrategy struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	EntryPrice     float64        `json:"entryPrice"`
	TargetPrice    float64        `json:"targetPrice"`
	StopLoss       float64        `json:"stopLoss"`
	RiskReward     float64        `json:"riskReward"`
	PositionSize   PositionSizing `json:"positionSize"`
	Timeframe      string         `json:"timeframe"`
	Reasoning      string         `json:"reasoning"`
	KeyPoints      []string       `json:"keyPoints"`
}

// StrategyAdjustments are a reviewer's proposed changes to a strategy.
type StrategyAdjustments struct {
	StopLoss      float64 `json:"stopLoss,omitempty"`
	TargetPrice   float64 `json:"targetPrice,omitempty"`
	PositionScale float64 `json:"positionScale,omitempty"`
}

// RiskPerspective is one reviewer's vote.
type RiskPerspective struct {
	Name           string               `json:"name"`
	Recommendation Decision             `json:"recommendation"`
	Reasoning      string               `json:"reasoning"`
	Adjustments    *StrategyAdjustments `json:"adjustments,omitempty"`
}

// RiskAssessment is the risk panel's verdict.
type RiskAssessment struct {
	Aggressive       RiskPerspective  `json:"aggressive"`
	Neutral          RiskPerspective  `json:"neutral"`
	Conservative     RiskPerspective  `json:"conservative"`
	FinalDecision    Decision         `json:"finalDecision"`
	Consensus        string           `json:"consensus"`
	AdjustedStrategy *TradingStrategy `json:"adjustedStrategy,omitempty"`
}

// Perspectives returns the three reviewers in fixed order.
func (r RiskAssessment) Perspectives() []RiskPerspective {
	return []RiskPerspective{r.Aggressive, r.Neutral, r.Conservative}
}

// ComprehensiveAnalysis is the terminal artifact of one orchestration run.
type ComprehensiveAnalysis struct {
	ID          string               `json:"id"`
	Ticker      string               `json:"ticker"`
	Timeframe   string               `json:"timeframe"`
	AssetClass  AssetClass           `json:"assetClass"`
	Quote       Quote                `json:"quote"`
	Market      *MarketAnalysis      `json:"market"`
	Fundamental *FundamentalAnalysis `json:"fundamental"`
	News        *NewsAnalysis        `json:"news"`
	Social      *SocialAnalysis      `json:"social"`
	Options     *OptionsAnalysis     `json:"options,omitempty"`
	Debate      DebateResult         `json:"debate"`
	Strategy    TradingStrategy      `json:"strategy"`
	Risk        RiskAssessment       `json:"risk"`
	GeneratedAt time.Time            `json:"generatedAt"`
}
