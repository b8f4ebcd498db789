package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// Polygon serves ticker snapshots and options chains.
type Polygon struct {
	http *httpClient
	key  string
}

// NewPolygon creates a Polygon client. An empty API key leaves it unavailable.
func NewPolygon(opts Options) *Polygon {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.polygon.io"
	}
	return &Polygon{http: newHTTPClient("polygon", opts), key: opts.APIKey}
}

func (p *Polygon) Name() string { return "polygon" }

type polygonSnapshot struct {
	Status string `json:"status"`
	Ticker struct {
		Ticker           string  `json:"ticker"`
		TodaysChange     float64 `json:"todaysChange"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		Updated          int64   `json:"updated"`
		Day              struct {
			Open   float64 `json:"o"`
			High   float64 `json:"h"`
			Low    float64 `json:"l"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"day"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
		LastTrade struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
	} `json:"ticker"`
}

// Quote fetches the stock ticker snapshot.
func (p *Polygon) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	if p.key == "" {
		return model.Quote{}, apperr.Unavailable(p.Name(), "api key not configured")
	}
	var s polygonSnapshot
	path := "/v2/snapshot/locale/us/markets/stocks/tickers/" + url.PathEscape(strings.ToUpper(symbol))
	if err := p.http.getJSON(ctx, "quote", path, map[string]string{"apiKey": p.key}, &s); err != nil {
		return model.Quote{}, err
	}
	t := s.Ticker
	price := t.LastTrade.Price
	if price <= 0 {
		price = t.Day.Close
	}
	if price <= 0 {
		return model.Quote{}, apperr.Provider(p.Name(), "quote", 0, fmt.Errorf("no price for %s", symbol))
	}
	ts := time.Now()
	if t.Updated > 0 {
		ts = time.Unix(0, t.Updated)
	}
	sym := t.Ticker
	if sym == "" {
		sym = symbol
	}
	return model.Quote{
		Symbol:        sym,
		Price:         price,
		Change:        t.TodaysChange,
		ChangePercent: t.TodaysChangePerc,
		Volume:        t.Day.Volume,
		High:          t.Day.High,
		Low:           t.Day.Low,
		Open:          t.Day.Open,
		PreviousClose: t.PrevDay.Close,
		Source:        p.Name(),
		Timestamp:     ts,
	}, nil
}

type polygonOptions struct {
	Results []struct {
		Details struct {
			ContractType   string  `json:"contract_type"`
			StrikePrice    float64 `json:"strike_price"`
			ExpirationDate string  `json:"expiration_date"`
		} `json:"details"`
		Day struct {
			Volume float64 `json:"volume"`
		} `json:"day"`
		OpenInterest      float64 `json:"open_interest"`
		ImpliedVolatility float64 `json:"implied_volatility"`
		Greeks            struct {
			Delta float64 `json:"delta"`
			Gamma float64 `json:"gamma"`
			Theta float64 `json:"theta"`
			Vega  float64 `json:"vega"`
		} `json:"greeks"`
	} `json:"results"`
}

// OptionsChain fetches the options chain snapshot of an underlying.
func (p *Polygon) OptionsChain(ctx context.Context, underlying string) ([]model.OptionContract, error) {
	if p.key == "" {
		return nil, apperr.Unavailable(p.Name(), "api key not configured")
	}
	var o polygonOptions
	path := "/v3/snapshot/options/" + url.PathEscape(strings.ToUpper(underlying))
	if err := p.http.getJSON(ctx, "options", path, map[string]string{"apiKey": p.key, "limit": "250"}, &o); err != nil {
		return nil, err
	}
	chain := make([]model.OptionContract, 0, len(o.Results))
	for _, r := range o.Results {
		chain = append(chain, model.OptionContract{
			Type:         strings.ToLower(r.Details.ContractType),
			Strike:       r.Details.StrikePrice,
			Expiration:   r.Details.ExpirationDate,
			Volume:       r.Day.Volume,
			OpenInterest: r.OpenInterest,
			ImpliedVol:   r.ImpliedVolatility,
			Delta:        r.Greeks.Delta,
			Gamma:        r.Greeks.Gamma,
			Theta:        r.Greeks.Theta,
			Vega:         r.Greeks.Vega,
		})
	}
	return chain, nil
}
