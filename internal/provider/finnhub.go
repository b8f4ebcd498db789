package provider

import (
	"context"
	"fmt"
	"time"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// Finnhub serves quotes, basic metrics and social sentiment.
type Finnhub struct {
	http  *httpClient
	token string
}

// NewFinnhub creates a Finnhub client. An empty API key leaves it unavailable.
func NewFinnhub(opts Options) *Finnhub {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://finnhub.io/api/v1"
	}
	return &Finnhub{http: newHTTPClient("finnhub", opts), token: opts.APIKey}
}

func (f *Finnhub) Name() string { return "finnhub" }

func (f *Finnhub) params(symbol string) (map[string]string, error) {
	if f.token == "" {
		return nil, apperr.Unavailable(f.Name(), "api key not configured")
	}
	return map[string]string{"symbol": symbol, "token": f.token}, nil
}

type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Time          int64   `json:"t"`
}

// Quote fetches the latest price from /quote.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	params, err := f.params(symbol)
	if err != nil {
		return model.Quote{}, err
	}
	var q finnhubQuote
	if err := f.http.getJSON(ctx, "quote", "/quote", params, &q); err != nil {
		return model.Quote{}, err
	}
	if q.Current <= 0 {
		return model.Quote{}, apperr.Provider(f.Name(), "quote", 0, fmt.Errorf("no price for %s", symbol))
	}
	ts := time.Now()
	if q.Time > 0 {
		ts = time.Unix(q.Time, 0)
	}
	return model.Quote{
		Symbol:        symbol,
		Price:         q.Current,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		High:          q.High,
		Low:           q.Low,
		Open:          q.Open,
		PreviousClose: q.PreviousClose,
		Source:        f.Name(),
		Timestamp:     ts,
	}, nil
}

type finnhubMetrics struct {
	Metric map[string]any `json:"metric"`
}

// Fundamentals reads valuation ratios from /stock/metric.
func (f *Finnhub) Fundamentals(ctx context.Context, symbol string) (model.Fundamentals, error) {
	params, err := f.params(symbol)
	if err != nil {
		return model.Fundamentals{}, err
	}
	params["metric"] = "all"
	var m finnhubMetrics
	if err := f.http.getJSON(ctx, "fundamentals", "/stock/metric", params, &m); err != nil {
		return model.Fundamentals{}, err
	}
	if len(m.Metric) == 0 {
		return model.Fundamentals{}, apperr.Provider(f.Name(), "fundamentals", 0, fmt.Errorf("no metrics for %s", symbol))
	}
	return model.Fundamentals{
		PE:            metricValue(m.Metric, "peTTM", "peBasicExclExtraTTM"),
		RevenueGrowth: metricValue(m.Metric, "revenueGrowthTTMYoy", "revenueGrowthQuarterlyYoy"),
		ROE:           metricValue(m.Metric, "roeTTM", "roeRfy"),
		DebtToEquity:  metricValue(m.Metric, "totalDebt/totalEquityQuarterly", "totalDebt/totalEquityAnnual"),
	}, nil
}

// metricValue returns the first numeric value among keys.
func metricValue(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k].(float64); ok {
			return v
		}
	}
	return 0
}

type finnhubSocial struct {
	Reddit  []finnhubMention `json:"reddit"`
	Twitter []finnhubMention `json:"twitter"`
}

type finnhubMention struct {
	Mention         int `json:"mention"`
	PositiveMention int `json:"positiveMention"`
	NegativeMention int `json:"negativeMention"`
}

// SocialSentiment sums Reddit and Twitter mentions from /stock/social-sentiment.
func (f *Finnhub) SocialSentiment(ctx context.Context, symbol string) (model.SocialSentiment, error) {
	params, err := f.params(symbol)
	if err != nil {
		return model.SocialSentiment{}, err
	}
	var s finnhubSocial
	if err := f.http.getJSON(ctx, "social", "/stock/social-sentiment", params, &s); err != nil {
		return model.SocialSentiment{}, err
	}
	var out model.SocialSentiment
	for _, m := range append(s.Reddit, s.Twitter...) {
		out.Mentions += m.Mention
		out.PositiveMentions += m.PositiveMention
		out.NegativeMentions += m.NegativeMention
	}
	return out, nil
}
