package provider

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// Yahoo serves OHLCV history from the public chart API. It needs no key.
type Yahoo struct {
	http      *httpClient
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahoo creates a Yahoo Finance chart client.
func NewYahoo(opts Options) *Yahoo {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://query1.finance.yahoo.com"
	}
	return &Yahoo{
		http: newHTTPClient("yahoo", opts),
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
			"NDX":   "^NDX",
			"DJI":   "^DJI",
			"VIX":   "^VIX",
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// FetchBars returns bars for interval (1d, 60m, 1wk...) over range (6mo, 1y...),
// oldest first.
func (y *Yahoo) FetchBars(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	path := "/v8/finance/chart/" + url.PathEscape(y.yahooSymbol(symbol))
	var chart yahooChart
	err := y.http.getJSON(ctx, "chart", path, map[string]string{"interval": interval, "range": rng}, &chart)
	if err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, apperr.Provider(y.Name(), "chart", 0, fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperr.Provider(y.Name(), "chart", 0, fmt.Errorf("no data returned for %s", symbol))
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars on market holidays
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
