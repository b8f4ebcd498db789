package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// CoinGecko serves crypto quotes and market data. The public tier needs no
// key; a demo key is sent when configured.
type CoinGecko struct {
	http *httpClient
	key  string
}

// NewCoinGecko creates a CoinGecko client.
func NewCoinGecko(opts Options) *CoinGecko {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGecko{http: newHTTPClient("coingecko", opts), key: opts.APIKey}
}

func (c *CoinGecko) Name() string { return "coingecko" }

type geckoMarket struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	MarketCapRank     int     `json:"market_cap_rank"`
	TotalVolume       float64 `json:"total_volume"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	PriceChange24h    float64 `json:"price_change_24h"`
	PriceChangePct24h float64 `json:"price_change_percentage_24h"`
	CirculatingSupply float64 `json:"circulating_supply"`
	MaxSupply         float64 `json:"max_supply"`
	LastUpdated       string  `json:"last_updated"`
}

func (c *CoinGecko) market(ctx context.Context, op, symbol string) (geckoMarket, error) {
	base := strings.ToLower(strings.TrimSuffix(strings.ToUpper(symbol), "-USD"))
	params := map[string]string{"vs_currency": "usd", "symbols": base}
	if c.key != "" {
		params["x_cg_demo_api_key"] = c.key
	}
	var markets []geckoMarket
	if err := c.http.getJSON(ctx, op, "/coins/markets", params, &markets); err != nil {
		return geckoMarket{}, err
	}
	// Several coins can share a symbol; the best ranked one wins.
	var best *geckoMarket
	for i := range markets {
		m := &markets[i]
		if !strings.EqualFold(m.Symbol, base) {
			continue
		}
		if best == nil || (m.MarketCapRank > 0 && (best.MarketCapRank == 0 || m.MarketCapRank < best.MarketCapRank)) {
			best = m
		}
	}
	if best == nil {
		return geckoMarket{}, apperr.Provider(c.Name(), op, 0, fmt.Errorf("unknown coin %s", symbol))
	}
	return *best, nil
}

// CryptoQuote returns the USD quote of a coin.
func (c *CoinGecko) CryptoQuote(ctx context.Context, symbol string) (model.Quote, error) {
	m, err := c.market(ctx, "quote", symbol)
	if err != nil {
		return model.Quote{}, err
	}
	ts := time.Now()
	if t, err := time.Parse(time.RFC3339, m.LastUpdated); err == nil {
		ts = t
	}
	prev := m.CurrentPrice - m.PriceChange24h
	return model.Quote{
		Symbol:        strings.ToUpper(m.Symbol),
		Price:         m.CurrentPrice,
		Change:        m.PriceChange24h,
		ChangePercent: m.PriceChangePct24h,
		Volume:        m.TotalVolume,
		MarketCap:     m.MarketCap,
		High:          m.High24h,
		Low:           m.Low24h,
		PreviousClose: prev,
		Source:        c.Name(),
		Timestamp:     ts,
	}, nil
}

// Quote lets CoinGecko sit in a quote chain.
func (c *CoinGecko) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	return c.CryptoQuote(ctx, symbol)
}

// CryptoMarket returns rank, volume and supply data of a coin.
func (c *CoinGecko) CryptoMarket(ctx context.Context, symbol string) (model.CryptoMarket, error) {
	m, err := c.market(ctx, "market", symbol)
	if err != nil {
		return model.CryptoMarket{}, err
	}
	var circPct float64
	if m.MaxSupply > 0 {
		circPct = m.CirculatingSupply / m.MaxSupply * 100
	}
	return model.CryptoMarket{
		Symbol:         strings.ToUpper(m.Symbol),
		Name:           m.Name,
		Price:          m.CurrentPrice,
		MarketCap:      m.MarketCap,
		MarketCapRank:  m.MarketCapRank,
		TotalVolume:    m.TotalVolume,
		ChangePercent:  m.PriceChangePct24h,
		CirculatingPct: circPct,
	}, nil
}
