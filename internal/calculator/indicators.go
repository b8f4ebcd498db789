package calculator

import (
	"errors"

	"TradeCouncil/internal/model"
)

const (
	rsiPeriod       = 14
	rangeLookback   = 30
	swingLookback   = 60
	minBarsForTrend = 2
)

// Compute derives the technical indicator set for a bar series. price overrides
// the last close when positive, so a live quote can be scored against history.
func Compute(bars []model.OHLCV, price float64) (*model.MarketIndicators, error) {
	if len(bars) < minBarsForTrend {
		return nil, errors.New("not enough bars for indicators")
	}
	if price <= 0 {
		price = bars[len(bars)-1].Close
	}

	rsi, err := CalculateRSI(bars, rsiPeriod)
	if err != nil {
		return nil, err
	}
	high, low, err := CalculateRange(bars, rangeLookback)
	if err != nil {
		return nil, err
	}
	pos, err := RangePosition(price, high, low)
	if err != nil {
		return nil, err
	}
	support, resistance := SupportResistance(bars, price, swingLookback)

	return &model.MarketIndicators{
		CurrentPrice:  price,
		SMA20:         SMAOrMean(bars, 20),
		SMA50:         SMAOrMean(bars, 50),
		RSI:           rsi,
		RangeHigh:     high,
		RangeLow:      low,
		RangePosition: pos,
		Support:       support,
		Resistance:    resistance,
	}, nil
}
