// Package scheduler runs the daemon's periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/marketcache"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/notifier"
	"TradeCouncil/internal/ratelimit"
	"TradeCouncil/internal/recorder"
	"TradeCouncil/internal/ticker"
)

const sendRetries = 3

type Analyzer interface {
	Analyze(ctx context.Context, info model.TickerInfo) (*model.ComprehensiveAnalysis, error)
}

type QuotaChecker interface {
	CheckQuota(ctx context.Context) (marketcache.QuotaReport, error)
}

type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// LimitReporter exposes rate limiter state for the quota job's log line.
type LimitReporter interface {
	Snapshot() map[string]ratelimit.Status
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron     *cron.Cron
	analyzer Analyzer
	quota    QuotaChecker
	notifier Notifier
	recorder recorder.Recorder
	limits   LimitReporter
	log      *logrus.Entry
	ctx      context.Context

	// running guards against a slow watchlist pass overlapping the next one.
	running sync.Mutex
}

// Options wires a Scheduler. Limits is optional.
type Options struct {
	Analyzer Analyzer
	Quota    QuotaChecker
	Notifier Notifier
	Recorder recorder.Recorder
	Limits   LimitReporter
	Log      *logrus.Entry
}

// NewScheduler creates a new Scheduler. Jobs run under ctx.
func NewScheduler(ctx context.Context, opts Options) *Scheduler {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		analyzer: opts.Analyzer,
		quota:    opts.Quota,
		notifier: opts.Notifier,
		recorder: rec,
		limits:   opts.Limits,
		log:      log,
		ctx:      ctx,
	}
}

// RegisterAll registers the watchlist and quota jobs. An empty cron expression skips a job.
func (s *Scheduler) RegisterAll(watchlistCron, quotaCron string, watchlist []string) error {
	if watchlistCron != "" && len(watchlist) > 0 {
		list := append([]string(nil), watchlist...)
		if _, err := s.cron.AddFunc(watchlistCron, func() { s.RunWatchlist(list) }); err != nil {
			return fmt.Errorf("register watchlist task: %w", err)
		}
	}
	if quotaCron != "" {
		if _, err := s.cron.AddFunc(quotaCron, s.quotaTask); err != nil {
			return fmt.Errorf("register quota task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunWatchlist analyzes each symbol in turn, delivering and recording every
// result. A pass already in progress makes this call a no-op.
func (s *Scheduler) RunWatchlist(symbols []string) {
	if !s.running.TryLock() {
		s.log.Warn("watchlist pass still running, skipping")
		return
	}
	defer s.running.Unlock()

	s.log.WithField("symbols", len(symbols)).Info("running watchlist analysis")
	for _, sym := range symbols {
		if s.ctx.Err() != nil {
			return
		}
		s.analyzeOne(sym)
	}
}

func (s *Scheduler) analyzeOne(sym string) {
	log := s.log.WithField("ticker", sym)
	a, err := s.analyzer.Analyze(s.ctx, model.TickerInfo{Ticker: sym, Timeframe: ticker.DefaultTimeframe})
	if err != nil {
		log.WithError(err).Error("watchlist analysis failed")
		s.trySend(notifier.FormatFailure(sym, err))
		return
	}
	s.trySend(notifier.FormatAnalysis(a))
	if err := s.recorder.RecordAnalysis(a); err != nil {
		log.WithError(err).Error("record analysis")
	}
}

func (s *Scheduler) quotaTask() {
	if s.limits != nil {
		for name, st := range s.limits.Snapshot() {
			if st.ApproachingLimit {
				s.log.WithFields(logrus.Fields{"provider": name, "count": st.Count, "queued": st.QueueSize}).
					Warn("provider near rate limit")
			}
		}
	}

	r, err := s.quota.CheckQuota(s.ctx)
	if err != nil {
		s.log.WithError(err).Error("quota check failed")
	}
	if r.Quota == 0 {
		return
	}
	if err := s.recorder.RecordQuota(&recorder.QuotaEvent{
		Usage: r.Usage, Quota: r.Quota, Percent: r.Percent, Evicted: r.Evicted,
	}); err != nil {
		s.log.WithError(err).Error("record quota check")
	}
	if r.Evicted > 0 {
		s.trySend(notifier.FormatQuotaWarning(r.Usage, r.Quota, r.Percent, r.Evicted))
	}
}

// RunQuotaCheckNow executes the quota job immediately.
func (s *Scheduler) RunQuotaCheckNow() {
	s.quotaTask()
}

func (s *Scheduler) trySend(text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendWithRetry(s.ctx, text, sendRetries); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
