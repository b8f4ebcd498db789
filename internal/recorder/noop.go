package recorder

import "TradeCouncil/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *model.ComprehensiveAnalysis) error { return nil }
func (n *NoopRecorder) RecordQuota(_ *QuotaEvent) error                     { return nil }
func (n *NoopRecorder) RecentRuns(_ string, _ int) ([]RunSummary, error)    { return nil, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
