// Package orchestrator runs one full analysis: quote, analyst fan-out,
// debate, strategy and risk review.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"TradeCouncil/internal/agent"
	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/debate"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/risk"
	"TradeCouncil/internal/strategy"
	"TradeCouncil/internal/ticker"
)

// DefaultTimeout bounds a run when none is configured.
const DefaultTimeout = 90 * time.Second

type QuoteGetter interface {
	Get(ctx context.Context, symbol string) (model.Quote, error)
}

type CryptoQuoter interface {
	CryptoQuote(ctx context.Context, symbol string) (model.Quote, error)
}

type MarketAnalyst interface {
	Analyze(ctx context.Context, req agent.Request) (*model.MarketAnalysis, error)
}

type FundamentalAnalyst interface {
	Analyze(ctx context.Context, req agent.Request) (*model.FundamentalAnalysis, error)
}

type NewsAnalyst interface {
	Analyze(ctx context.Context, req agent.Request) (*model.NewsAnalysis, error)
}

type SocialAnalyst interface {
	Analyze(ctx context.Context, req agent.Request) (*model.SocialAnalysis, error)
}

type OptionsAnalyst interface {
	Analyze(ctx context.Context, req agent.Request) (*model.OptionsAnalysis, error)
}

// Deps are the collaborators of an Orchestrator. All are required.
type Deps struct {
	Quotes            QuoteGetter
	CryptoQuotes      CryptoQuoter
	Market            MarketAnalyst
	Fundamental       FundamentalAnalyst
	CryptoFundamental FundamentalAnalyst
	News              NewsAnalyst
	Social            SocialAnalyst
	Options           OptionsAnalyst
}

// Orchestrator is safe for concurrent use when its dependencies are.
type Orchestrator struct {
	deps    Deps
	timeout time.Duration
	log     *logrus.Entry
	now     func() time.Time
}

func New(deps Deps, timeout time.Duration, log *logrus.Entry) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{deps: deps, timeout: timeout, log: log, now: time.Now}
}

// AnalyzeText extracts a ticker from free text and analyzes it.
func (o *Orchestrator) AnalyzeText(ctx context.Context, text string) (*model.ComprehensiveAnalysis, error) {
	info, err := ticker.Parse(text)
	if err != nil {
		return nil, err
	}
	return o.Analyze(ctx, info)
}

// Analyze produces the comprehensive analysis for one ticker. Only an options
// failure is tolerated; any other stage failing fails the run.
func (o *Orchestrator) Analyze(ctx context.Context, info model.TickerInfo) (*model.ComprehensiveAnalysis, error) {
	sym := strings.ToUpper(strings.TrimSpace(info.Ticker))
	if err := ticker.ValidateSymbol(sym); err != nil {
		return nil, err
	}
	tf := info.Timeframe
	if tf == "" {
		tf = ticker.DefaultTimeframe
	}
	tf, err := ticker.NormalizeTimeframe(tf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := o.now()
	class := ticker.ClassifyAsset(sym)
	log := o.log.WithFields(logrus.Fields{"ticker": sym, "timeframe": tf, "asset": class})

	q, err := o.quote(ctx, sym, class)
	if err != nil {
		return nil, o.fail(ctx, sym, "quote", err)
	}

	req := agent.Request{Ticker: sym, Timeframe: tf, AssetClass: class, Quote: q}
	out := &model.ComprehensiveAnalysis{
		ID:         uuid.NewString(),
		Ticker:     sym,
		Timeframe:  tf,
		AssetClass: class,
		Quote:      q,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := o.deps.Market.Analyze(gctx, req)
		out.Market = res
		return wrap("market", err)
	})
	fundamental := o.deps.Fundamental
	if class == model.AssetCrypto {
		fundamental = o.deps.CryptoFundamental
	}
	g.Go(func() error {
		res, err := fundamental.Analyze(gctx, req)
		out.Fundamental = res
		return wrap("fundamental", err)
	})
	g.Go(func() error {
		res, err := o.deps.News.Analyze(gctx, req)
		out.News = res
		return wrap("news", err)
	})
	g.Go(func() error {
		res, err := o.deps.Social.Analyze(gctx, req)
		out.Social = res
		return wrap("social", err)
	})
	if class == model.AssetEquity {
		g.Go(func() error {
			res, err := o.deps.Options.Analyze(gctx, req)
			if err != nil {
				log.WithError(err).Warn("options analysis skipped")
				return nil
			}
			out.Options = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, o.fail(ctx, sym, "agents", err)
	}

	out.Debate = debate.Run(debate.Inputs{
		Market:      out.Market,
		Fundamental: out.Fundamental,
		News:        out.News,
		Social:      out.Social,
		Options:     out.Options,
	})
	out.Strategy = strategy.Synthesize(q, out.Market, out.Fundamental, out.News, tf)
	out.Risk = risk.Review(out.Strategy, out.Debate)
	out.GeneratedAt = o.now()

	log.WithFields(logrus.Fields{
		"recommendation": out.Strategy.Recommendation,
		"decision":       out.Risk.FinalDecision,
		"winner":         out.Debate.Winner,
		"elapsed":        o.now().Sub(start).Round(time.Millisecond),
	}).Info("analysis complete")
	return out, nil
}

func (o *Orchestrator) quote(ctx context.Context, sym string, class model.AssetClass) (model.Quote, error) {
	if class == model.AssetCrypto {
		q, err := o.deps.CryptoQuotes.CryptoQuote(ctx, ticker.BaseSymbol(sym))
		if err != nil {
			return model.Quote{}, err
		}
		q.Symbol = sym
		return q, nil
	}
	return o.deps.Quotes.Get(ctx, sym)
}

// fail tags a run that ran out of time as DeadlineExceeded.
func (o *Orchestrator) fail(ctx context.Context, sym, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		err = apperr.Deadline("analyze "+sym, err)
	}
	o.log.WithError(err).WithFields(logrus.Fields{"ticker": sym, "stage": stage}).Error("analysis failed")
	return fmt.Errorf("analyze %s: %s: %w", sym, stage, err)
}

func wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s agent: %w", stage, err)
}
