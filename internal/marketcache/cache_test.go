package marketcache

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T, s store.Store, opts Options) (*Cache, *clock) {
	t.Helper()
	c, err := New(context.Background(), s, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clk := &clock{t: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func sampleBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{Open: 100, High: 101, Low: 99, Close: 100 + float64(i), Volume: 1000}
	}
	return bars
}

// entryLimitStore rejects chart map writes holding more than max entries, or
// every chart map write once full is set.
type entryLimitStore struct {
	store.Store
	max  int
	full bool
}

func (s *entryLimitStore) Set(ctx context.Context, key string, value []byte) error {
	if key == ChartKey {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(value, &m); s.full || (err == nil && len(m) > s.max) {
			return apperr.QuotaExceeded("set "+key, int64(len(value)), 0)
		}
	}
	return s.Store.Set(ctx, key, value)
}

func storedEntries(t *testing.T, s store.Store) map[string]*entry {
	t.Helper()
	raw, err := s.Get(context.Background(), ChartKey)
	if err != nil {
		t.Fatalf("read chart map: %v", err)
	}
	var m map[string]*entry
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode chart map: %v", err)
	}
	return m
}

func TestCache_HitMissAndTTL(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(0)
	c, clk := newTestCache(t, s, Options{TTL: time.Hour})

	if _, ok := c.Get(ctx, "AAPL", "1D"); ok {
		t.Fatal("empty cache should miss")
	}
	if err := c.Put(ctx, "aapl", "1D", sampleBars(3)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.advance(30 * time.Minute)
	bars, ok := c.Get(ctx, "AAPL", "1D")
	if !ok || len(bars) != 3 {
		t.Fatalf("expected hit with 3 bars, got %v %d", ok, len(bars))
	}
	if got := storedEntries(t, s)["AAPL-1D"].LastAccessed; got != clk.now().UnixMilli() {
		t.Errorf("hit should persist lastAccessed, got %d", got)
	}

	clk.advance(31 * time.Minute)
	if _, ok := c.Get(ctx, "AAPL", "1D"); ok {
		t.Error("entry older than TTL should miss")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be removed")
	}
}

func TestCache_GetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(t, store.NewMemory(0), Options{})
	want := sampleBars(4)
	if err := c.Put(ctx, "NVDA", "1D", want); err != nil {
		t.Fatal(err)
	}

	clk.advance(time.Minute)
	first, ok1 := c.Get(ctx, "NVDA", "1D")
	clk.advance(time.Minute)
	second, ok2 := c.Get(ctx, "NVDA", "1D")
	if !ok1 || !ok2 {
		t.Fatal("both reads should hit")
	}
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, want) {
		t.Errorf("reads differ: %v vs %v", first, second)
	}

	first[0].Close = -1
	if third, _ := c.Get(ctx, "NVDA", "1D"); !reflect.DeepEqual(third, want) {
		t.Error("mutating a returned slice must not change the cache")
	}
}

func TestCache_Reload(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(0)
	c, _ := newTestCache(t, s, Options{})
	if err := c.Put(ctx, "MSFT", "4H", sampleBars(2)); err != nil {
		t.Fatal(err)
	}
	reopened, err := New(ctx, s, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 1 {
		t.Errorf("reloaded cache has %d entries, want 1", reopened.Len())
	}
}

func TestCache_EvictionRanking(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(t, store.NewMemory(0), Options{})
	for i := 0; i < 4; i++ {
		if err := c.Put(ctx, fmt.Sprintf("T%d", i), "1D", sampleBars(1)); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Second)
	}
	// Touch the oldest so it ranks first.
	if _, ok := c.Get(ctx, "T0", "1D"); !ok {
		t.Fatal("T0 should hit")
	}

	removed, err := c.Evict(ctx, 0.5)
	if err != nil || removed != 2 {
		t.Fatalf("Evict = %d, %v; want 2", removed, err)
	}
	for _, key := range []string{"T0", "T3"} {
		if _, ok := c.Get(ctx, key, "1D"); !ok {
			t.Errorf("%s should survive eviction", key)
		}
	}
	for _, key := range []string{"T1", "T2"} {
		if _, ok := c.Get(ctx, key, "1D"); ok {
			t.Errorf("%s should have been evicted", key)
		}
	}
}

func TestCache_EvictionTieBreak(t *testing.T) {
	ctx := context.Background()
	build := func() *Cache {
		c, _ := newTestCache(t, store.NewMemory(0), Options{})
		// Same clock for every put, so timestamps tie.
		for _, k := range []string{"D", "B", "A", "C"} {
			if err := c.Put(ctx, k, "1D", sampleBars(1)); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := c.Evict(ctx, 0.5); err != nil {
			t.Fatal(err)
		}
		return c
	}
	for i := 0; i < 5; i++ {
		c := build()
		_, okA := c.entries["A-1D"]
		_, okB := c.entries["B-1D"]
		if len(c.entries) != 2 || !okA || !okB {
			t.Fatalf("run %d kept %v, want A and B", i, c.entries)
		}
	}
}

func TestCache_QuotaRetry(t *testing.T) {
	ctx := context.Background()
	s := &entryLimitStore{Store: store.NewMemory(0), max: 5}
	c, clk := newTestCache(t, s, Options{})
	for i := 0; i < 5; i++ {
		if err := c.Put(ctx, fmt.Sprintf("T%d", i), "1D", sampleBars(1)); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Second)
	}

	// Six entries are rejected; keeping floor(6*0.7)=4 fits.
	if err := c.Put(ctx, "NEW", "1D", sampleBars(1)); err != nil {
		t.Fatalf("Put should recover by evicting: %v", err)
	}
	m := storedEntries(t, s)
	if len(m) != 4 {
		t.Errorf("stored %d entries, want 4", len(m))
	}
	if _, ok := m["NEW-1D"]; !ok {
		t.Error("most recent entry must survive eviction")
	}
}

func TestCache_QuotaRetryRatiosUseInitialCount(t *testing.T) {
	ctx := context.Background()
	s := &entryLimitStore{Store: store.NewMemory(0), max: 100}
	c, clk := newTestCache(t, s, Options{})
	for i := 0; i < 10; i++ {
		if err := c.Put(ctx, fmt.Sprintf("T%d", i), "1D", sampleBars(1)); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Second)
	}

	// Eleven entries: 0.7 keeps 7 (rejected), 0.5 keeps 5 of the original 11.
	s.max = 5
	if err := c.Put(ctx, "NEW", "1D", sampleBars(1)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	m := storedEntries(t, s)
	if len(m) != 5 {
		t.Errorf("stored %d entries, want 5", len(m))
	}
	if _, ok := m["NEW-1D"]; !ok {
		t.Error("most recent entry must survive eviction")
	}
}

func TestCache_QuotaRetryExhaustedClears(t *testing.T) {
	ctx := context.Background()
	s := &entryLimitStore{Store: store.NewMemory(0), max: 1}
	c, clk := newTestCache(t, s, Options{})
	if err := c.Put(ctx, "A", "1D", sampleBars(1)); err != nil {
		t.Fatal(err)
	}
	clk.advance(time.Second)

	s.full = true
	err := c.Put(ctx, "B", "1D", sampleBars(1))
	if !apperr.Is(err, apperr.KindQuotaExceeded) {
		t.Fatalf("expected quota_exceeded, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("cache should be cleared, has %d entries", c.Len())
	}
	if _, err := s.Get(ctx, ChartKey); err == nil {
		t.Error("persisted chart map should be deleted")
	}
}

func TestCache_ProactiveEviction(t *testing.T) {
	ctx := context.Background()
	one, _ := json.Marshal(map[string]*entry{"T00-1D": {Ticker: "T00", Timeframe: "1D", Data: sampleBars(5), GeneratedAt: 1e12, LastAccessed: 1e12}})
	budget := int64(len(one) * 3)

	s := store.NewMemory(0)
	c, clk := newTestCache(t, s, Options{SizeBudget: budget})
	putAt := map[string]int64{}
	for i := 0; i < 10; i++ {
		ticker := fmt.Sprintf("T%02d", i)
		if err := c.Put(ctx, ticker, "1D", sampleBars(5)); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		putAt[Key(ticker, "1D")] = clk.now().UnixMilli()
		clk.advance(time.Second)
	}
	raw, err := s.Get(ctx, ChartKey)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(raw)) > budget {
		t.Errorf("persisted size %d exceeds budget %d", len(raw), budget)
	}
	if _, ok := storedEntries(t, s)["T09-1D"]; !ok {
		t.Error("latest put must be kept")
	}
	if c.Len() >= 10 {
		t.Error("expected entries to be evicted")
	}

	kept := storedEntries(t, s)
	oldestKept := int64(-1)
	for _, e := range kept {
		if oldestKept < 0 || e.LastAccessed < oldestKept {
			oldestKept = e.LastAccessed
		}
	}
	for key, at := range putAt {
		if _, ok := kept[key]; !ok && at > oldestKept {
			t.Errorf("discarded %s (accessed %d) is newer than a kept entry (%d)", key, at, oldestKept)
		}
	}
}

func TestCache_ProactiveKeepsSingleFittingEntry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(0)
	c, _ := newTestCache(t, s, Options{})
	bars := sampleBars(60)
	if err := c.Put(ctx, "AAPL", "1D", bars); err != nil {
		t.Fatal(err)
	}
	raw, err := s.Get(ctx, ChartKey)
	if err != nil {
		t.Fatal(err)
	}

	// One entry at about 95% of the budget: over the proactive threshold but it fits.
	c.opts.SizeBudget = int64(len(raw)) * 100 / 95
	if err := c.Put(ctx, "AAPL", "1D", bars); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, ok := c.Get(ctx, "AAPL", "1D"); !ok || len(got) != 60 {
		t.Fatalf("single fitting entry was evicted: ok=%v len=%d", ok, len(got))
	}
}

func TestCache_ProactiveDropsOversizedSingleEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, store.NewMemory(0), Options{SizeBudget: 64})
	if err := c.Put(ctx, "AAPL", "1D", sampleBars(60)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("entry larger than the budget should not be kept, len=%d", c.Len())
	}
}

func TestCheckQuota(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(0)
	c, clk := newTestCache(t, s, Options{AssumedQuota: 1 << 20})
	for i := 0; i < 10; i++ {
		if err := c.Put(ctx, fmt.Sprintf("T%d", i), "1D", sampleBars(2)); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Second)
	}

	r, err := c.CheckQuota(ctx)
	if err != nil || r.Evicted != 0 {
		t.Fatalf("under quota: %+v, %v", r, err)
	}

	usage, _ := s.Usage(ctx)
	c.opts.AssumedQuota = usage // now at 100%
	r, err = c.CheckQuota(ctx)
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if r.Evicted != 7 || c.Len() != 3 {
		t.Errorf("evicted %d, kept %d; want 7 and 3", r.Evicted, c.Len())
	}
}
