package calculator

import (
	"errors"

	"TradeCouncil/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMAOrMean returns the SMA over period, or the mean of all closes when
// fewer bars are available. Short series still give a usable trend line.
func SMAOrMean(bars []model.OHLCV, period int) float64 {
	closes := extractCloses(bars)
	if len(closes) == 0 {
		return 0
	}
	if len(closes) < period {
		period = len(closes)
	}
	sma, _ := CalculateSMA(closes, period)
	return sma
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
