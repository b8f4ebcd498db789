package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// AlphaVantage serves global quotes and ticker-scored news.
type AlphaVantage struct {
	http *httpClient
	key  string
}

// NewAlphaVantage creates an Alpha Vantage client. An empty API key leaves it unavailable.
func NewAlphaVantage(opts Options) *AlphaVantage {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.alphavantage.co"
	}
	c := newHTTPClient("alpha_vantage", opts)
	c.rc.AddRetryCondition(throttled)
	return &AlphaVantage{http: c, key: opts.APIKey}
}

func (a *AlphaVantage) Name() string { return "alpha_vantage" }

// avNotice captures the throttle messages Alpha Vantage returns with status 200.
type avNotice struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`
	Error       string `json:"Error Message"`
}

func (n avNotice) check(op string) error {
	switch {
	case n.Note != "":
		return apperr.RateLimited("alpha_vantage", op, errors.New(n.Note))
	case n.Information != "":
		return apperr.RateLimited("alpha_vantage", op, errors.New(n.Information))
	case n.Error != "":
		return apperr.Provider("alpha_vantage", op, 0, errors.New(n.Error))
	}
	return nil
}

// throttled retries a 200 response carrying a throttle notice, within the
// same bounded retry budget as 429s.
func throttled(resp *resty.Response, err error) bool {
	if err != nil || resp == nil || !resp.IsSuccess() {
		return false
	}
	var n avNotice
	if json.Unmarshal(resp.Body(), &n) != nil {
		return false
	}
	return n.Note != "" || n.Information != ""
}

func (a *AlphaVantage) query(ctx context.Context, op string, params map[string]string, out any) error {
	if a.key == "" {
		return apperr.Unavailable(a.Name(), "api key not configured")
	}
	params["apikey"] = a.key
	return a.http.getJSON(ctx, op, "/query", params, out)
}

type avGlobalQuote struct {
	avNotice
	Quote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Quote fetches GLOBAL_QUOTE.
func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	var g avGlobalQuote
	err := a.query(ctx, "quote", map[string]string{"function": "GLOBAL_QUOTE", "symbol": symbol}, &g)
	if err != nil {
		return model.Quote{}, err
	}
	if err := g.check("quote"); err != nil {
		return model.Quote{}, err
	}
	price := parseNum(g.Quote.Price)
	if price <= 0 {
		return model.Quote{}, apperr.Provider(a.Name(), "quote", 0, fmt.Errorf("no price for %s", symbol))
	}
	sym := g.Quote.Symbol
	if sym == "" {
		sym = symbol
	}
	return model.Quote{
		Symbol:        sym,
		Price:         price,
		Change:        parseNum(g.Quote.Change),
		ChangePercent: parseNum(g.Quote.ChangePercent),
		Volume:        parseNum(g.Quote.Volume),
		High:          parseNum(g.Quote.High),
		Low:           parseNum(g.Quote.Low),
		Open:          parseNum(g.Quote.Open),
		PreviousClose: parseNum(g.Quote.PreviousClose),
		Source:        a.Name(),
		Timestamp:     time.Now(),
	}, nil
}

type avNewsFeed struct {
	avNotice
	Feed []struct {
		Title           string `json:"title"`
		URL             string `json:"url"`
		Source          string `json:"source"`
		TickerSentiment []struct {
			Ticker    string `json:"ticker"`
			Relevance string `json:"relevance_score"`
			Score     string `json:"ticker_sentiment_score"`
		} `json:"ticker_sentiment"`
	} `json:"feed"`
}

// News fetches NEWS_SENTIMENT and keeps each article's polarity for ticker.
// Crypto tickers use the CRYPTO:BTC form.
func (a *AlphaVantage) News(ctx context.Context, ticker string) ([]model.NewsArticle, error) {
	var f avNewsFeed
	err := a.query(ctx, "news", map[string]string{
		"function": "NEWS_SENTIMENT",
		"tickers":  ticker,
		"limit":    "50",
	}, &f)
	if err != nil {
		return nil, err
	}
	if err := f.check("news"); err != nil {
		return nil, err
	}

	articles := make([]model.NewsArticle, 0, len(f.Feed))
	for _, item := range f.Feed {
		for _, ts := range item.TickerSentiment {
			if !strings.EqualFold(ts.Ticker, ticker) {
				continue
			}
			articles = append(articles, model.NewsArticle{
				Title:     item.Title,
				Source:    item.Source,
				URL:       item.URL,
				Sentiment: parseNum(ts.Score),
				Relevance: parseNum(ts.Relevance),
			})
			break
		}
	}
	return articles, nil
}
