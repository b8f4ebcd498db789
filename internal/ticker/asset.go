package ticker

import (
	"strings"

	"TradeCouncil/internal/model"
)

var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "XRP": true, "ADA": true,
	"DOGE": true, "DOT": true, "AVAX": true, "LINK": true, "LTC": true,
	"BNB": true, "MATIC": true, "TRX": true, "SHIB": true, "ATOM": true,
	"UNI": true, "XLM": true, "NEAR": true, "APT": true, "ARB": true,
}

// ClassifyAsset reports whether sym is a crypto asset or an equity.
func ClassifyAsset(sym string) model.AssetClass {
	sym = strings.ToUpper(sym)
	if strings.HasSuffix(sym, "-USD") || cryptoSymbols[sym] {
		return model.AssetCrypto
	}
	return model.AssetEquity
}

// BaseSymbol strips a "-USD" quote suffix.
func BaseSymbol(sym string) string {
	return strings.TrimSuffix(strings.ToUpper(sym), "-USD")
}
