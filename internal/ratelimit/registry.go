package ratelimit

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultConfig applies to providers the registry was not configured with.
var DefaultConfig = Config{MaxRequests: 100, Window: time.Minute, Buffer: time.Second}

// Registry holds one limiter per provider name.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	log      *logrus.Entry
}

// NewRegistry builds limiters for every configured provider.
func NewRegistry(configs map[string]Config, log *logrus.Entry) *Registry {
	r := &Registry{limiters: make(map[string]*Limiter, len(configs)), log: log}
	for name, cfg := range configs {
		r.limiters[name] = New(name, cfg, log)
	}
	return r
}

// Get returns the limiter for name, creating a default one on first use.
func (r *Registry) Get(name string) *Limiter {
	r.mu.RLock()
	l, ok := r.limiters[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[name]; ok {
		return l
	}
	l = New(name, DefaultConfig, r.log)
	r.limiters[name] = l
	return l
}

// Snapshot returns the status of every limiter keyed by provider name.
func (r *Registry) Snapshot() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Status, len(r.limiters))
	for name, l := range r.limiters {
		out[name] = l.Status()
	}
	return out
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
