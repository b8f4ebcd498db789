// Package ratelimit throttles outbound provider calls with a sliding window
// and a FIFO queue of waiting callers.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/logger"
)

// ApproachingThreshold is the share of the window budget at which Status
// reports the limiter as close to its limit.
const ApproachingThreshold = 0.8

// Config is the budget of one limiter. MaxWait of zero waits without bound.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Buffer      time.Duration
	MaxWait     time.Duration
}

// Status is a snapshot of limiter usage.
type Status struct {
	Count            int  `json:"count"`
	Remaining        int  `json:"remaining"`
	QueueSize        int  `json:"queueSize"`
	ApproachingLimit bool `json:"approachingLimit"`
}

type waiter struct {
	ready    chan struct{}
	admitted bool
}

// Limiter admits at most MaxRequests calls in any trailing Window. Callers
// that cannot be admitted immediately wait in submission order.
type Limiter struct {
	name string
	cfg  Config
	log  *logrus.Entry

	mu       sync.Mutex
	stamps   []time.Time
	queue    []*waiter
	draining bool
}

// New creates a limiter. A nil log discards status messages.
func New(name string, cfg Config, log *logrus.Entry) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Limiter{
		name: name,
		cfg:  cfg,
		log:  log.WithField("limiter", name),
	}
}

// Acquire blocks until the caller may issue one request. It returns the
// context error if ctx ends first, or a deadline error once MaxWait elapses.
// Either way the caller's queue slot is released.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	l.prune(now)
	// Skipping ahead of queued callers would break FIFO order.
	if len(l.queue) == 0 && len(l.stamps) < l.cfg.MaxRequests {
		l.admit(now)
		l.mu.Unlock()
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	l.queue = append(l.queue, w)
	if !l.draining {
		l.draining = true
		go l.drain()
	}
	queued := len(l.queue)
	l.mu.Unlock()

	l.log.WithField("queue", queued).Debug("request queued")

	var timeout <-chan time.Time
	if l.cfg.MaxWait > 0 {
		t := time.NewTimer(l.cfg.MaxWait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		if l.abandon(w) {
			return ctx.Err()
		}
		return nil
	case <-timeout:
		if l.abandon(w) {
			return apperr.Deadline("rate limit "+l.name, fmt.Errorf("waited %s", l.cfg.MaxWait))
		}
		return nil
	}
}

// drain admits queued callers as capacity frees up. Only one runs at a time.
func (l *Limiter) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.draining = false
			l.mu.Unlock()
			return
		}
		now := time.Now()
		l.prune(now)
		if len(l.stamps) < l.cfg.MaxRequests {
			w := l.queue[0]
			l.queue = l.queue[1:]
			w.admitted = true
			l.admit(now)
			close(w.ready)
			l.mu.Unlock()
			continue
		}
		wait := l.stamps[0].Add(l.cfg.Window).Sub(now) + l.cfg.Buffer
		l.mu.Unlock()
		time.Sleep(wait)
	}
}

// abandon drops w from the queue. It reports false when w was already admitted,
// in which case the caller owns the slot and should proceed.
func (l *Limiter) abandon(w *waiter) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w.admitted {
		return false
	}
	for i, q := range l.queue {
		if q == w {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	return true
}

// admit records one admission. Caller holds mu.
func (l *Limiter) admit(now time.Time) {
	l.stamps = append(l.stamps, now)
	if l.approaching(len(l.stamps), ApproachingThreshold) {
		l.log.WithFields(logrus.Fields{
			"count": len(l.stamps),
			"max":   l.cfg.MaxRequests,
		}).Warn("approaching rate limit")
	}
}

// prune drops timestamps that have left the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	l.stamps = l.stamps[i:]
}

func (l *Limiter) approaching(count int, threshold float64) bool {
	return float64(count) >= threshold*float64(l.cfg.MaxRequests)
}

// Status reports current window usage and queue depth.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(time.Now())
	count := len(l.stamps)
	remaining := l.cfg.MaxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Count:            count,
		Remaining:        remaining,
		QueueSize:        len(l.queue),
		ApproachingLimit: l.approaching(count, ApproachingThreshold),
	}
}

// IsApproachingLimit reports whether usage is at or above threshold of the budget.
func (l *Limiter) IsApproachingLimit(threshold float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(time.Now())
	return l.approaching(len(l.stamps), threshold)
}

// Name returns the provider the limiter guards.
func (l *Limiter) Name() string { return l.name }
