package provider

import (
	"context"

	"TradeCouncil/internal/model"
)

// QuoteSource returns a live quote for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}

// BarSource returns OHLCV history for a symbol.
type BarSource interface {
	FetchBars(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error)
	Name() string
}

// NewsSource returns recent articles scored for a ticker.
type NewsSource interface {
	News(ctx context.Context, ticker string) ([]model.NewsArticle, error)
}

// SocialSource returns aggregated social mention counts.
type SocialSource interface {
	SocialSentiment(ctx context.Context, symbol string) (model.SocialSentiment, error)
}

// FundamentalsSource returns valuation metrics for an equity.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, error)
}

// OptionsSource returns the current options chain of an underlying.
type OptionsSource interface {
	OptionsChain(ctx context.Context, underlying string) ([]model.OptionContract, error)
}

// CryptoSource returns quotes and coin market data for crypto assets.
type CryptoSource interface {
	CryptoQuote(ctx context.Context, symbol string) (model.Quote, error)
	CryptoMarket(ctx context.Context, symbol string) (model.CryptoMarket, error)
}
