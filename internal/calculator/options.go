package calculator

import (
	"math"
	"sort"

	"TradeCouncil/internal/model"
)

// PutCallRatio is total put volume over total call volume. It returns 0 when
// no calls traded.
func PutCallRatio(chain []model.OptionContract) float64 {
	var puts, calls float64
	for _, c := range chain {
		switch c.Type {
		case "put":
			puts += c.Volume
		case "call":
			calls += c.Volume
		}
	}
	if calls == 0 {
		return 0
	}
	return puts / calls
}

// MaxPain returns the strike at which open option holders lose the most,
// i.e. the strike minimizing total intrinsic value owed to holders.
func MaxPain(chain []model.OptionContract) float64 {
	strikes := make([]float64, 0, len(chain))
	seen := make(map[float64]bool, len(chain))
	for _, c := range chain {
		if !seen[c.Strike] {
			seen[c.Strike] = true
			strikes = append(strikes, c.Strike)
		}
	}
	if len(strikes) == 0 {
		return 0
	}
	sort.Float64s(strikes)

	best, bestPain := strikes[0], math.Inf(1)
	for _, s := range strikes {
		pain := 0.0
		for _, c := range chain {
			switch {
			case c.Type == "call" && s > c.Strike:
				pain += (s - c.Strike) * c.OpenInterest
			case c.Type == "put" && s < c.Strike:
				pain += (c.Strike - s) * c.OpenInterest
			}
		}
		if pain < bestPain {
			best, bestPain = s, pain
		}
	}
	return best
}

// AverageIV is the mean implied volatility of contracts that report one.
func AverageIV(chain []model.OptionContract) float64 {
	sum, n := 0.0, 0
	for _, c := range chain {
		if c.ImpliedVol > 0 {
			sum += c.ImpliedVol
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
