// Package recorder keeps a history of analysis runs and quota checks.
package recorder

import (
	"time"

	"TradeCouncil/internal/model"
)

// QuotaEvent is one quota monitor sample.
type QuotaEvent struct {
	Usage   int64
	Quota   int64
	Percent float64
	Evicted int
}

// RunSummary is the flattened row of a recorded analysis.
type RunSummary struct {
	ID             string
	Timestamp      time.Time
	Ticker         string
	Timeframe      string
	Price          float64
	Recommendation model.Recommendation
	Confidence     float64
	RiskReward     float64
	Winner         model.Winner
	FinalDecision  model.Decision
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordAnalysis(a *model.ComprehensiveAnalysis) error
	RecordQuota(evt *QuotaEvent) error
	// RecentRuns returns the newest runs first. An empty ticker matches all.
	RecentRuns(ticker string, limit int) ([]RunSummary, error)
	Close() error
}
