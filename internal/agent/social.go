package agent

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
	"TradeCouncil/internal/provider"
)

// Social is the social media sentiment analyst. It has no coverage for coins.
type Social struct {
	src provider.SocialSource
	log *logrus.Entry
}

func NewSocial(src provider.SocialSource, log *logrus.Entry) *Social {
	if log == nil {
		log = logger.Discard()
	}
	return &Social{src: src, log: log.WithField("agent", "social")}
}

func (s *Social) Analyze(ctx context.Context, req Request) (*model.SocialAnalysis, error) {
	if req.Crypto() {
		return &model.SocialAnalysis{Signal: model.SignalNeutral, Summary: "not applicable for crypto assets"}, nil
	}
	st, err := s.src.SocialSentiment(ctx, req.Ticker)
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		s.log.WithError(err).WithField("ticker", req.Ticker).Warn("social sentiment unavailable")
		return &model.SocialAnalysis{Signal: model.SignalNeutral, Summary: unavailable("social sentiment", err)}, nil
	}
	return scoreSocial(st), nil
}

func scoreSocial(st model.SocialSentiment) *model.SocialAnalysis {
	out := &model.SocialAnalysis{Signal: model.SignalNeutral, Mentions: st.Mentions}
	scored := st.PositiveMentions + st.NegativeMentions
	if st.Mentions == 0 || scored == 0 {
		out.Summary = "no social mentions"
		return out
	}

	out.PositiveRatio = float64(st.PositiveMentions) / float64(scored)
	switch {
	case out.PositiveRatio > 0.6:
		out.Signal = model.SignalBullish
	case out.PositiveRatio < 0.4:
		out.Signal = model.SignalBearish
	}
	out.Confidence = math.Min(85, 40+float64(st.Mentions)/20)
	out.Summary = fmt.Sprintf("%d mentions, %.0f%% positive", st.Mentions, out.PositiveRatio*100)
	return out
}
