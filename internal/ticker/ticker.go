// Package ticker pulls a symbol and chart timeframe out of free text.
package ticker

import (
	"regexp"
	"strings"

	"TradeCouncil/internal/apperr"
	"TradeCouncil/internal/model"
)

// DefaultTimeframe is used when the text names no timeframe.
const DefaultTimeframe = "1D"

var (
	cashtagRe   = regexp.MustCompile(`\$([A-Za-z]{1,5}(?:[.\-][A-Za-z]{1,4})?)\b`)
	tokenRe     = regexp.MustCompile(`\b([A-Z]{1,5}(?:\.[A-Z]{1,2}|-USD)?)\b`)
	timeframeRe = regexp.MustCompile(`\b(\d+)\s*(min|m|h|H|d|D|w|W|M)\b`)
	symbolRe    = regexp.MustCompile(`^[A-Z]{1,5}(?:\.[A-Z]{1,2}|-USD)?$`)
)

// Uppercase words that show up in chat text but are not symbols.
var stopWords = map[string]bool{
	"A": true, "I": true, "AM": true, "AN": true, "AND": true, "ARE": true,
	"AT": true, "BE": true, "BUY": true, "SELL": true, "HOLD": true, "BY": true,
	"CEO": true, "CFO": true, "DD": true, "EPS": true, "ETF": true, "FOR": true,
	"FYI": true, "GDP": true, "IMO": true, "IN": true, "IPO": true, "IS": true,
	"IT": true, "ME": true, "MY": true, "NO": true, "NOT": true, "NOW": true,
	"OF": true, "OK": true, "ON": true, "OR": true, "PE": true, "RSI": true,
	"SMA": true, "EMA": true, "SO": true, "THE": true, "TO": true, "UP": true,
	"US": true, "USA": true, "USD": true, "VS": true, "WE": true, "YTD": true,
	"ATH": true, "API": true, "AI": true, "EOD": true, "LONG": true, "SHORT": true,
	"WHAT": true, "WHY": true, "HOW": true, "SHOULD": true, "MIN": true,
}

// Extract returns the first ticker in text together with its timeframe, or nil.
func Extract(text string) *model.TickerInfo {
	sym := findSymbol(text)
	if sym == "" {
		return nil
	}
	return &model.TickerInfo{Ticker: sym, Timeframe: findTimeframe(text)}
}

// Parse is Extract with a validation error in place of nil.
func Parse(text string) (model.TickerInfo, error) {
	info := Extract(text)
	if info == nil {
		return model.TickerInfo{}, apperr.Validation("ticker", "no ticker symbol found in input")
	}
	return *info, nil
}

func findSymbol(text string) string {
	if m := cashtagRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	// Strip timeframe tokens so "4H" or "1D" never read as symbols.
	clean := timeframeRe.ReplaceAllString(text, " ")
	for _, m := range tokenRe.FindAllStringSubmatch(clean, -1) {
		if !stopWords[m[1]] {
			return m[1]
		}
	}
	return ""
}

func findTimeframe(text string) string {
	m := timeframeRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultTimeframe
	}
	tf, err := NormalizeTimeframe(m[1] + m[2])
	if err != nil {
		return DefaultTimeframe
	}
	return tf
}

// NormalizeTimeframe maps spellings like "15m", "4h" or "1d" to 15min, 4H, 1D, 1W, 1M.
func NormalizeTimeframe(tf string) (string, error) {
	m := timeframeRe.FindStringSubmatch(strings.TrimSpace(tf))
	if m == nil || m[0] != strings.TrimSpace(tf) {
		return "", apperr.Validation("timeframe", "unrecognized timeframe "+tf)
	}
	n, unit := m[1], m[2]
	switch unit {
	case "min", "m":
		return n + "min", nil
	case "h", "H":
		return n + "H", nil
	case "d", "D":
		return n + "D", nil
	case "w", "W":
		return n + "W", nil
	case "M":
		return n + "M", nil
	}
	return "", apperr.Validation("timeframe", "unrecognized timeframe "+tf)
}

// ValidateSymbol checks that sym looks like an exchange or crypto ticker.
func ValidateSymbol(sym string) error {
	if !symbolRe.MatchString(sym) {
		return apperr.Validation("ticker", "invalid symbol "+sym)
	}
	return nil
}

// ChartParams returns the bar interval and lookback range for a timeframe.
// The range always holds comfortably more than 50 bars.
func ChartParams(timeframe string) (interval, rng string) {
	switch {
	case strings.HasSuffix(timeframe, "min"):
		return "15m", "5d"
	case strings.HasSuffix(timeframe, "H"):
		return "60m", "1mo"
	case strings.HasSuffix(timeframe, "W"):
		return "1wk", "2y"
	case strings.HasSuffix(timeframe, "M"):
		return "1mo", "10y"
	default:
		return "1d", "6mo"
	}
}
