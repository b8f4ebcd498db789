package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Quote is a point-in-time price snapshot from a single provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        float64   `json:"volume"`
	MarketCap     float64   `json:"marketCap,omitempty"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Open          float64   `json:"open"`
	PreviousClose float64   `json:"previousClose"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// Valid reports whether the quote is structurally usable.
func (q Quote) Valid() bool {
	return q.Symbol != "" && q.Price > 0
}

// AssetClass selects the analysis branch for a ticker.
type AssetClass string

const (
	AssetEquity AssetClass = "equity"
	AssetCrypto AssetClass = "crypto"
)

// TickerInfo is a validated symbol plus a normalized timeframe such as 1D, 4H or 15min.
type TickerInfo struct {
	Ticker    string `json:"ticker"`
	Timeframe string `json:"timeframe"`
}

// CryptoMarket holds coin-level market data used by the crypto fundamental agent.
type CryptoMarket struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	MarketCap      float64 `json:"marketCap"`
	MarketCapRank  int     `json:"marketCapRank"`
	TotalVolume    float64 `json:"totalVolume"`
	ChangePercent  float64 `json:"changePercent24h"`
	CirculatingPct float64 `json:"circulatingPct,omitempty"`
}
