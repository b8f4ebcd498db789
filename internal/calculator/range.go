package calculator

import (
	"errors"
	"math"
	"sort"

	"TradeCouncil/internal/model"
)

// CalculateRange scans the most recent lookback bars and returns the high and low.
func CalculateRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := n - lookback
	if start < 0 || lookback <= 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where the current price sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// SupportResistance finds the nearest swing low below and swing high above price
// within the trailing lookback bars. A swing point is a bar whose low (high) is
// lower (higher) than both neighbours. Zero means no level on that side.
func SupportResistance(bars []model.OHLCV, price float64, lookback int) (support, resistance float64) {
	n := len(bars)
	start := n - lookback
	if start < 1 || lookback <= 0 {
		start = 1
	}
	var lows, highs []float64
	for i := start; i < n-1; i++ {
		if bars[i].Low < bars[i-1].Low && bars[i].Low < bars[i+1].Low && bars[i].Low < price {
			lows = append(lows, bars[i].Low)
		}
		if bars[i].High > bars[i-1].High && bars[i].High > bars[i+1].High && bars[i].High > price {
			highs = append(highs, bars[i].High)
		}
	}
	if len(lows) > 0 {
		sort.Float64s(lows)
		support = lows[len(lows)-1]
	}
	if len(highs) > 0 {
		sort.Float64s(highs)
		resistance = highs[0]
	}
	return support, resistance
}
