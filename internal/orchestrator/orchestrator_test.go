package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"TradeCouncil/internal/agent"
	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

type fakeQuotes struct {
	q     model.Quote
	err   error
	calls atomic.Int32
}

func (f *fakeQuotes) Get(_ context.Context, symbol string) (model.Quote, error) {
	f.calls.Add(1)
	q := f.q
	q.Symbol = symbol
	return q, f.err
}

func (f *fakeQuotes) CryptoQuote(ctx context.Context, symbol string) (model.Quote, error) {
	return f.Get(ctx, symbol)
}

type fakeMarket struct {
	block bool
	err   error
}

func (f *fakeMarket) Analyze(ctx context.Context, _ agent.Request) (*model.MarketAnalysis, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.MarketAnalysis{Signal: model.SignalBullish, Confidence: 80, Support: 95, Resistance: 125, Bars: 60, RSI: 55}, nil
}

type fakeFundamental struct {
	valuation string
	calls     atomic.Int32
}

func (f *fakeFundamental) Analyze(context.Context, agent.Request) (*model.FundamentalAnalysis, error) {
	f.calls.Add(1)
	return &model.FundamentalAnalysis{Signal: model.SignalBullish, Confidence: 70, Valuation: f.valuation}, nil
}

type fakeNews struct{}

func (fakeNews) Analyze(context.Context, agent.Request) (*model.NewsAnalysis, error) {
	return &model.NewsAnalysis{Signal: model.SignalBullish, Confidence: 60, ArticleCount: 6}, nil
}

type fakeSocial struct{}

func (fakeSocial) Analyze(context.Context, agent.Request) (*model.SocialAnalysis, error) {
	return &model.SocialAnalysis{Signal: model.SignalNeutral}, nil
}

type fakeOptions struct {
	err   error
	calls atomic.Int32
}

func (f *fakeOptions) Analyze(context.Context, agent.Request) (*model.OptionsAnalysis, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &model.OptionsAnalysis{Signal: model.SignalBullish, PutCallRatio: 0.5}, nil
}

type fixture struct {
	quotes  *fakeQuotes
	equity  *fakeFundamental
	crypto  *fakeFundamental
	options *fakeOptions
	market  *fakeMarket
}

func newFixture() *fixture {
	return &fixture{
		quotes:  &fakeQuotes{q: model.Quote{Price: 100, Source: "finnhub"}},
		equity:  &fakeFundamental{valuation: "undervalued"},
		crypto:  &fakeFundamental{valuation: "large cap"},
		options: &fakeOptions{},
		market:  &fakeMarket{},
	}
}

func (f *fixture) orchestrator(timeout time.Duration) *Orchestrator {
	return New(Deps{
		Quotes:            f.quotes,
		CryptoQuotes:      f.quotes,
		Market:            f.market,
		Fundamental:       f.equity,
		CryptoFundamental: f.crypto,
		News:              fakeNews{},
		Social:            fakeSocial{},
		Options:           f.options,
	}, timeout, nil)
}

func TestAnalyze_Equity(t *testing.T) {
	f := newFixture()
	got, err := f.orchestrator(time.Second).Analyze(context.Background(), model.TickerInfo{Ticker: "aapl", Timeframe: "1d"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.ID == "" || got.Ticker != "AAPL" || got.Timeframe != "1D" {
		t.Errorf("header = %s %s %s", got.ID, got.Ticker, got.Timeframe)
	}
	if got.AssetClass != model.AssetEquity {
		t.Errorf("asset = %s", got.AssetClass)
	}
	if got.Options == nil || f.options.calls.Load() != 1 {
		t.Error("options analysis missing for equity")
	}
	if got.Strategy.Recommendation != model.RecommendBuy {
		t.Errorf("recommendation = %s, want BUY", got.Strategy.Recommendation)
	}
	if got.Debate.Winner != model.WinnerBull {
		t.Errorf("winner = %s, want bull", got.Debate.Winner)
	}
	if got.Risk.FinalDecision == "" || got.GeneratedAt.IsZero() {
		t.Errorf("risk %q generated %v", got.Risk.FinalDecision, got.GeneratedAt)
	}
}

func TestAnalyze_OptionsFailureIsAbsorbed(t *testing.T) {
	f := newFixture()
	f.options.err = apperr.Unavailable("polygon", "no api key")
	got, err := f.orchestrator(time.Second).Analyze(context.Background(), model.TickerInfo{Ticker: "MSFT"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Options != nil {
		t.Errorf("options = %+v, want nil", got.Options)
	}
	if got.Timeframe != "1D" {
		t.Errorf("timeframe = %s, want default 1D", got.Timeframe)
	}
}

func TestAnalyze_CryptoBranch(t *testing.T) {
	f := newFixture()
	got, err := f.orchestrator(time.Second).Analyze(context.Background(), model.TickerInfo{Ticker: "BTC-USD", Timeframe: "4h"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.AssetClass != model.AssetCrypto {
		t.Errorf("asset = %s, want crypto", got.AssetClass)
	}
	if got.Quote.Symbol != "BTC-USD" {
		t.Errorf("quote symbol = %s", got.Quote.Symbol)
	}
	if f.crypto.calls.Load() != 1 || f.equity.calls.Load() != 0 {
		t.Errorf("fundamental calls crypto=%d equity=%d", f.crypto.calls.Load(), f.equity.calls.Load())
	}
	if f.options.calls.Load() != 0 || got.Options != nil {
		t.Error("options must be skipped for crypto")
	}
	if got.Fundamental.Valuation != "large cap" {
		t.Errorf("valuation = %s", got.Fundamental.Valuation)
	}
}

func TestAnalyze_RequiredAgentFailureFails(t *testing.T) {
	f := newFixture()
	f.market.err = context.Canceled
	_, err := f.orchestrator(time.Second).Analyze(context.Background(), model.TickerInfo{Ticker: "AAPL"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	f := newFixture()
	f.market.block = true
	start := time.Now()
	_, err := f.orchestrator(30*time.Millisecond).Analyze(context.Background(), model.TickerInfo{Ticker: "AAPL"})
	if !apperr.Is(err, apperr.KindDeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
}

func TestAnalyze_QuoteExhausted(t *testing.T) {
	f := newFixture()
	f.quotes.err = apperr.Exhausted("quote AAPL", []apperr.Failure{{Provider: "finnhub", Err: errors.New("boom")}})
	_, err := f.orchestrator(time.Second).Analyze(context.Background(), model.TickerInfo{Ticker: "AAPL"})
	if !apperr.Is(err, apperr.KindAllProvidersExhausted) {
		t.Errorf("err = %v, want exhausted", err)
	}
}

func TestAnalyze_Validation(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(time.Second)
	if _, err := o.Analyze(context.Background(), model.TickerInfo{Ticker: "NOT A TICKER"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad ticker err = %v", err)
	}
	if _, err := o.Analyze(context.Background(), model.TickerInfo{Ticker: "AAPL", Timeframe: "soon"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("bad timeframe err = %v", err)
	}
	if f.quotes.calls.Load() != 0 {
		t.Error("validation must fail before any quote fetch")
	}
}

func TestAnalyzeText(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(time.Second)

	got, err := o.AnalyzeText(context.Background(), "AAPL 1D: breakout above $180")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if got.Ticker != "AAPL" || got.Timeframe != "1D" {
		t.Errorf("got %s %s", got.Ticker, got.Timeframe)
	}

	if _, err := o.AnalyzeText(context.Background(), "the big day ahead"); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}
