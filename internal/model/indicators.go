package model

// MarketIndicators holds the technical indicators computed from a bar series.
type MarketIndicators struct {
	CurrentPrice  float64
	SMA20         float64
	SMA50         float64
	RSI           float64
	RangeHigh     float64
	RangeLow      float64
	RangePosition float64 // 0.0 ~ 1.0
	Support       float64
	Resistance    float64
}
