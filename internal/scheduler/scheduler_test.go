package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"TradeCouncil/internal/marketcache"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/ratelimit"
	"TradeCouncil/internal/recorder"
)

type fakeAnalyzer struct {
	fail map[string]bool
	seen []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, info model.TickerInfo) (*model.ComprehensiveAnalysis, error) {
	f.seen = append(f.seen, info.Ticker+"/"+info.Timeframe)
	if f.fail[info.Ticker] {
		return nil, errors.New("all providers exhausted")
	}
	return &model.ComprehensiveAnalysis{ID: "id-" + info.Ticker, Ticker: info.Ticker, Timeframe: info.Timeframe}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	runs   []string
	quotas []recorder.QuotaEvent
}

func (f *fakeRecorder) RecordAnalysis(a *model.ComprehensiveAnalysis) error {
	f.runs = append(f.runs, a.ID)
	return nil
}

func (f *fakeRecorder) RecordQuota(evt *recorder.QuotaEvent) error {
	f.quotas = append(f.quotas, *evt)
	return nil
}

type fakeQuota struct {
	report marketcache.QuotaReport
	err    error
}

func (f fakeQuota) CheckQuota(context.Context) (marketcache.QuotaReport, error) {
	return f.report, f.err
}

type fakeLimits struct{ calls int }

func (f *fakeLimits) Snapshot() map[string]ratelimit.Status {
	f.calls++
	return map[string]ratelimit.Status{"alpha_vantage": {Count: 5, ApproachingLimit: true}}
}

func TestRunWatchlist(t *testing.T) {
	an := &fakeAnalyzer{fail: map[string]bool{"MSFT": true}}
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	s := NewScheduler(context.Background(), Options{Analyzer: an, Notifier: n, Recorder: rec})

	s.RunWatchlist([]string{"AAPL", "MSFT", "BTC-USD"})

	if strings.Join(an.seen, ",") != "AAPL/1D,MSFT/1D,BTC-USD/1D" {
		t.Errorf("analyzed %v", an.seen)
	}
	if len(n.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(n.sent))
	}
	if !strings.Contains(n.sent[1], "analysis failed") {
		t.Errorf("failure message = %q", n.sent[1])
	}
	if strings.Join(rec.runs, ",") != "id-AAPL,id-BTC-USD" {
		t.Errorf("recorded %v", rec.runs)
	}
}

func TestRunWatchlist_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	an := &fakeAnalyzer{}
	s := NewScheduler(ctx, Options{Analyzer: an, Notifier: &fakeNotifier{}})
	s.RunWatchlist([]string{"AAPL"})
	if len(an.seen) != 0 {
		t.Errorf("analyzed %v after cancel", an.seen)
	}
}

func TestQuotaTask(t *testing.T) {
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	limits := &fakeLimits{}
	q := fakeQuota{report: marketcache.QuotaReport{Usage: 4_600_000, Quota: 5_000_000, Percent: 92, Evicted: 4}}
	s := NewScheduler(context.Background(), Options{Quota: q, Notifier: n, Recorder: rec, Limits: limits})

	s.RunQuotaCheckNow()

	if len(rec.quotas) != 1 || rec.quotas[0].Evicted != 4 {
		t.Errorf("recorded %+v", rec.quotas)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "evicted 4") {
		t.Errorf("sent %v", n.sent)
	}
	if limits.calls != 1 {
		t.Errorf("limiter snapshot taken %d times", limits.calls)
	}
}

func TestQuotaTask_QuietBelowThreshold(t *testing.T) {
	n := &fakeNotifier{}
	q := fakeQuota{report: marketcache.QuotaReport{Usage: 100, Quota: 5_000_000}}
	s := NewScheduler(context.Background(), Options{Quota: q, Notifier: n})
	s.RunQuotaCheckNow()
	if len(n.sent) != 0 {
		t.Errorf("unexpected alert %v", n.sent)
	}
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(context.Background(), Options{Quota: fakeQuota{}})
	if err := s.RegisterAll("0 30 21 * * 1-5", "0 */10 * * * *", []string{"AAPL"}); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}

	empty := NewScheduler(context.Background(), Options{})
	if err := empty.RegisterAll("0 30 21 * * 1-5", "", nil); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if got := len(empty.cron.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0 without a watchlist", got)
	}

	bad := NewScheduler(context.Background(), Options{})
	if err := bad.RegisterAll("not a cron", "", []string{"AAPL"}); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}
