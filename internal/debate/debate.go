// Package debate builds opposing bull and bear cases from the same analyst
// outputs and scores which one holds up.
package debate

import (
	"fmt"
	"math"

	"TradeCouncil/internal/model"
)

const (
	baseConfidence = 50
	maxConfidence  = 95
	// WinMargin is the score a side must exceed to win outright.
	WinMargin = 20
)

// Point weights per kind of supporting evidence.
const (
	weightTechnical = 15
	weightExtreme   = 10
	weightValuation = 10
	weightNews      = 10
	weightSocial    = 5
	weightOptions   = 5
)

// Inputs are the analyst outputs both cases draw on. Nil fields contribute nothing.
type Inputs struct {
	Market      *model.MarketAnalysis
	Fundamental *model.FundamentalAnalysis
	News        *model.NewsAnalysis
	Social      *model.SocialAnalysis
	Options     *model.OptionsAnalysis
}

type argument struct {
	weight float64
	text   string
}

// Run builds both cases symmetrically and settles the debate.
func Run(in Inputs) model.DebateResult {
	bull := buildCase(in, model.SignalBullish)
	bear := buildCase(in, model.SignalBearish)

	score := bull.Confidence - bear.Confidence
	winner := Decide(bull.Confidence, bear.Confidence)

	return model.DebateResult{
		BullCase:    bull,
		BearCase:    bear,
		Winner:      winner,
		DebateScore: score,
		Consensus:   consensus(bull, bear, winner),
	}
}

// Decide is the pure winner rule over the two case confidences.
func Decide(bull, bear float64) model.Winner {
	score := bull - bear
	switch {
	case score > WinMargin:
		return model.WinnerBull
	case score < -WinMargin:
		return model.WinnerBear
	default:
		return model.WinnerNeutral
	}
}

// buildCase collects evidence agreeing with side, strongest first.
func buildCase(in Inputs, side model.Signal) model.DebateCase {
	var args []argument
	add := func(w float64, format string, a ...any) {
		args = append(args, argument{weight: w, text: fmt.Sprintf(format, a...)})
	}

	if m := in.Market; m != nil {
		if m.Signal == side {
			add(weightTechnical, "technicals are %s (%s, momentum %s)", side, m.Trend, m.Momentum)
		}
		if side == model.SignalBullish && m.Oversold() {
			add(weightExtreme, "RSI %.0f is oversold and due a bounce", m.RSI)
		}
		if side == model.SignalBearish && m.Overbought() {
			add(weightExtreme, "RSI %.0f is overbought and due a pullback", m.RSI)
		}
	}
	if f := in.Fundamental; f != nil && f.Signal == side {
		add(weightValuation, "valuation supports the %s view (%s)", side, f.Valuation)
	}
	if n := in.News; n != nil && n.Signal == side {
		add(weightNews, "news flow is %s across %d articles", side, n.ArticleCount)
	}
	if s := in.Social; s != nil && s.Signal == side {
		add(weightSocial, "social chatter leans %s (%.0f%% positive)", side, s.PositiveRatio*100)
	}
	if o := in.Options; o != nil && o.Signal == side {
		add(weightOptions, "options flow is %s (put/call %.2f)", side, o.PutCallRatio)
	}

	conf := float64(baseConfidence)
	texts := make([]string, 0, len(args))
	for _, a := range args {
		conf += a.weight
		texts = append(texts, a.text)
	}
	return model.DebateCase{Arguments: texts, Confidence: math.Min(conf, maxConfidence)}
}

func leading(c model.DebateCase) string {
	if len(c.Arguments) == 0 {
		return "no supporting evidence"
	}
	return c.Arguments[0]
}

// consensus always cites both sides, whoever won.
func consensus(bull, bear model.DebateCase, w model.Winner) string {
	strong, weak := bull, bear
	strongName, weakName := "bull", "bear"
	if bear.Confidence > bull.Confidence {
		strong, weak = bear, bull
		strongName, weakName = "bear", "bull"
	}

	var head string
	switch w {
	case model.WinnerBull:
		head = "Bull case wins"
	case model.WinnerBear:
		head = "Bear case wins"
	default:
		head = "Debate is inconclusive"
	}
	return fmt.Sprintf("%s (%.0f vs %.0f). Strongest %s argument: %s. Leading %s counterpoint: %s.",
		head, bull.Confidence, bear.Confidence, strongName, leading(strong), weakName, leading(weak))
}
