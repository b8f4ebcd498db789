package model

// MarketAnalysis is the technical analyst's output.
type MarketAnalysis struct {
	Signal        Signal  `json:"signal"`
	Confidence    float64 `json:"confidence"`
	Summary       string  `json:"summary"`
	Trend         string  `json:"trend"`
	Momentum      string  `json:"momentum"`
	RSI           float64 `json:"rsi"`
	SMA20         float64 `json:"sma20"`
	SMA50         float64 `json:"sma50"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
	RangePosition float64 `json:"rangePosition"`
	Bars          int     `json:"bars"`
}

// Oversold reports an RSI reading below 30.
func (m *MarketAnalysis) Oversold() bool { return m != nil && m.Bars > 0 && m.RSI < 30 }

// Overbought reports an RSI reading above 70.
func (m *MarketAnalysis) Overbought() bool { return m != nil && m.Bars > 0 && m.RSI > 70 }

// FundamentalAnalysis is the valuation analyst's output. Crypto runs fill the
// market-cap fields instead of the equity ratios.
type FundamentalAnalysis struct {
	Signal            Signal  `json:"signal"`
	Confidence        float64 `json:"confidence"`
	Summary           string  `json:"summary"`
	Valuation         string  `json:"valuation"`
	PE                float64 `json:"pe,omitempty"`
	RevenueGrowth     float64 `json:"revenueGrowth,omitempty"`
	ROE               float64 `json:"roe,omitempty"`
	DebtToEquity      float64 `json:"debtToEquity,omitempty"`
	MarketCapRank     int     `json:"marketCapRank,omitempty"`
	VolumeToMarketCap float64 `json:"volumeToMarketCap,omitempty"`
}

// NewsAnalysis is the news sentiment analyst's output.
type NewsAnalysis struct {
	Signal           Signal   `json:"signal"`
	Confidence       float64  `json:"confidence"`
	Summary          string   `json:"summary"`
	ArticleCount     int      `json:"articleCount"`
	AverageSentiment float64  `json:"averageSentiment"`
	Headlines        []string `json:"headlines,omitempty"`
}

// SocialAnalysis is the social media sentiment analyst's output.
type SocialAnalysis struct {
	Signal        Signal  `json:"signal"`
	Confidence    float64 `json:"confidence"`
	Summary       string  `json:"summary"`
	Mentions      int     `json:"mentions"`
	PositiveRatio float64 `json:"positiveRatio"`
}

// OptionsAnalysis is the options flow analyst's output.
type OptionsAnalysis struct {
	Signal        Signal  `json:"signal"`
	Confidence    float64 `json:"confidence"`
	Summary       string  `json:"summary"`
	PutCallRatio  float64 `json:"putCallRatio"`
	MaxPain       float64 `json:"maxPain"`
	AvgImpliedVol float64 `json:"avgImpliedVol"`
	Contracts     int     `json:"contracts"`
}

// NewsArticle is one article with its ticker-specific polarity in [-1, 1].
type NewsArticle struct {
	Title     string  `json:"title"`
	Source    string  `json:"source"`
	URL       string  `json:"url"`
	Sentiment float64 `json:"sentiment"`
	Relevance float64 `json:"relevance"`
}

// SocialSentiment aggregates mention counts across social platforms.
type SocialSentiment struct {
	Mentions         int `json:"mentions"`
	PositiveMentions int `json:"positiveMentions"`
	NegativeMentions int `json:"negativeMentions"`
}

// Fundamentals are the basic valuation metrics of an equity.
type Fundamentals struct {
	PE            float64 `json:"pe"`
	RevenueGrowth float64 `json:"revenueGrowth"`
	ROE           float64 `json:"roe"`
	DebtToEquity  float64 `json:"debtToEquity"`
}

// OptionContract is one contract of an options chain.
type OptionContract struct {
	Type         string  `json:"type"` // "call" or "put"
	Strike       float64 `json:"strike"`
	Expiration   string  `json:"expiration"`
	Volume       float64 `json:"volume"`
	OpenInterest float64 `json:"openInterest"`
	ImpliedVol   float64 `json:"impliedVol"`
	Delta        float64 `json:"delta"`
	Gamma        float64 `json:"gamma"`
	Theta        float64 `json:"theta"`
	Vega         float64 `json:"vega"`
}
