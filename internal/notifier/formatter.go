package notifier

import (
	"fmt"
	"html"
	"strings"

	"TradeCouncil/internal/model"
)

var recommendationIcon = map[model.Recommendation]string{
	model.RecommendBuy:  "🟢",
	model.RecommendSell: "🔴",
	model.RecommendHold: "⚪",
}

// FormatAnalysis renders a comprehensive analysis as a Telegram HTML message.
func FormatAnalysis(a *model.ComprehensiveAnalysis) string {
	var b strings.Builder
	s := a.Strategy

	fmt.Fprintf(&b, "📊 <b>%s</b> %s | %s\n", html.EscapeString(a.Ticker), a.Timeframe, a.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Price: %.2f (%+.2f%%) via %s\n\n", a.Quote.Price, a.Quote.ChangePercent, html.EscapeString(a.Quote.Source))

	fmt.Fprintf(&b, "%s <b>%s</b> | confidence %.0f%%\n", recommendationIcon[s.Recommendation], s.Recommendation, s.Confidence)
	fmt.Fprintf(&b, "Entry %.2f | Target %.2f | Stop %.2f | R/R %.2f\n", s.EntryPrice, s.TargetPrice, s.StopLoss, s.RiskReward)
	if s.Recommendation != model.RecommendHold {
		fmt.Fprintf(&b, "Size: %.1f%% / %.1f%% / %.1f%% (cons/mod/aggr)\n",
			s.PositionSize.Conservative, s.PositionSize.Moderate, s.PositionSize.Aggressive)
	}

	b.WriteString("\n📈 <b>Analysts</b>\n")
	line := func(name string, sig model.Signal, conf float64, summary string) {
		fmt.Fprintf(&b, "  %s: %s (%.0f) %s\n", name, sig, conf, html.EscapeString(summary))
	}
	if m := a.Market; m != nil {
		line("Technical", m.Signal, m.Confidence, m.Summary)
	}
	if f := a.Fundamental; f != nil {
		line("Fundamental", f.Signal, f.Confidence, f.Summary)
	}
	if n := a.News; n != nil {
		line("News", n.Signal, n.Confidence, n.Summary)
	}
	if so := a.Social; so != nil {
		line("Social", so.Signal, so.Confidence, so.Summary)
	}
	if o := a.Options; o != nil {
		line("Options", o.Signal, o.Confidence, o.Summary)
	}

	d := a.Debate
	fmt.Fprintf(&b, "\n⚖️ <b>Debate</b> bull %.0f vs bear %.0f: %s\n", d.BullCase.Confidence, d.BearCase.Confidence, d.Winner)
	fmt.Fprintf(&b, "  %s\n", html.EscapeString(d.Consensus))

	r := a.Risk
	fmt.Fprintf(&b, "\n🛡 <b>Risk panel</b>: %s\n", r.FinalDecision)
	for _, p := range r.Perspectives() {
		fmt.Fprintf(&b, "  %s: %s, %s\n", p.Name, p.Recommendation, html.EscapeString(p.Reasoning))
	}
	if adj := r.AdjustedStrategy; adj != nil {
		fmt.Fprintf(&b, "  Adjusted: target %.2f | stop %.2f | R/R %.2f\n", adj.TargetPrice, adj.StopLoss, adj.RiskReward)
	}
	return b.String()
}

// FormatFailure renders a failed run.
func FormatFailure(ticker string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b> analysis failed\n%s", html.EscapeString(ticker), html.EscapeString(err.Error()))
}

// FormatQuotaWarning renders a storage quota alert.
func FormatQuotaWarning(usage, quota int64, percent float64, evicted int) string {
	return fmt.Sprintf("⚠️ <b>Chart cache near quota</b>\nUsage %d / %d bytes (%.0f%%), evicted %d entries",
		usage, quota, percent, evicted)
}
