package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/agent"
	"TradeCouncil/internal/config"
	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/marketcache"
	"TradeCouncil/internal/notifier"
	"TradeCouncil/internal/orchestrator"
	"TradeCouncil/internal/provider"
	"TradeCouncil/internal/quote"
	"TradeCouncil/internal/ratelimit"
	"TradeCouncil/internal/recorder"
	"TradeCouncil/internal/store"
)

// app is the process-wide object graph, built once and passed by reference.
type app struct {
	limits   *ratelimit.Registry
	store    store.Store
	cache    *marketcache.Cache
	quotes   *quote.Acquirer
	orch     *orchestrator.Orchestrator
	notifier *notifier.TelegramNotifier
	recorder recorder.Recorder
}

func buildApp(ctx context.Context, cfg *config.Config, base *logrus.Logger) (*app, error) {
	limitCfgs := make(map[string]ratelimit.Config)
	for name, rl := range cfg.RateLimits() {
		limitCfgs[name] = ratelimit.Config{
			MaxRequests: rl.MaxRequests,
			Window:      rl.Window,
			Buffer:      rl.Buffer,
			MaxWait:     rl.MaxWait,
		}
	}
	limits := ratelimit.NewRegistry(limitCfgs, logger.WithComponent(base, "ratelimit"))

	providerLog := logger.WithComponent(base, "provider")
	opts := func(name string, p config.Provider) provider.Options {
		return provider.Options{
			BaseURL:    p.BaseURL,
			APIKey:     p.APIKey,
			Timeout:    cfg.HTTP.Timeout,
			RetryCount: cfg.HTTP.RetryCount,
			RetryWait:  cfg.HTTP.RetryWait,
			Proxy:      cfg.HTTP.Proxy,
			Limiter:    limits.Get(name),
			Log:        providerLog,
		}
	}
	finnhub := provider.NewFinnhub(opts("finnhub", cfg.Providers.Finnhub))
	alpha := provider.NewAlphaVantage(opts("alpha_vantage", cfg.Providers.AlphaVantage))
	polygon := provider.NewPolygon(opts("polygon", cfg.Providers.Polygon))
	yahoo := provider.NewYahoo(opts("yahoo", cfg.Providers.Yahoo))
	gecko := provider.NewCoinGecko(opts("coingecko", cfg.Providers.CoinGecko))

	st, err := store.Open(ctx, store.Config{
		Backend:    cfg.Cache.Backend,
		Quota:      cfg.Cache.AssumedQuota,
		FilePath:   cfg.Cache.FilePath,
		SQLitePath: cfg.Cache.SQLitePath,
		Redis: store.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Cache.Backend, err)
	}
	cache, err := marketcache.New(ctx, st, marketcache.Options{
		TTL:          cfg.Cache.TTL,
		SizeBudget:   cfg.Cache.SizeBudget,
		AssumedQuota: cfg.Cache.AssumedQuota,
		Log:          logger.WithComponent(base, "cache"),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load chart cache: %w", err)
	}
	loader := marketcache.NewLoader(cache, yahoo)

	quotes := quote.NewAcquirer(logger.WithComponent(base, "quote"), finnhub, alpha, polygon)
	agentLog := logger.WithComponent(base, "agent")
	orch := orchestrator.New(orchestrator.Deps{
		Quotes:            quotes,
		CryptoQuotes:      gecko,
		Market:            agent.NewMarket(loader, agentLog),
		Fundamental:       agent.NewFundamental(finnhub, agentLog),
		CryptoFundamental: agent.NewCryptoFundamental(gecko, agentLog),
		News:              agent.NewNews(alpha, agentLog),
		Social:            agent.NewSocial(finnhub, agentLog),
		Options:           agent.NewOptions(polygon),
	}, cfg.Orchestrator.Timeout, logger.WithComponent(base, "orchestrator"))

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.WithComponent(base, "recorder"))
		if err != nil {
			base.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.HTTP.Proxy,
		logger.WithComponent(base, "notifier"))

	return &app{
		limits:   limits,
		store:    st,
		cache:    cache,
		quotes:   quotes,
		orch:     orch,
		notifier: tn,
		recorder: rec,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.recorder.Close(), a.store.Close())
}
