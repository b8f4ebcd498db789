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

const (
	newsThreshold = 0.15
	maxHeadlines  = 5
)

// News is the news sentiment analyst.
type News struct {
	src provider.NewsSource
	log *logrus.Entry
}

func NewNews(src provider.NewsSource, log *logrus.Entry) *News {
	if log == nil {
		log = logger.Discard()
	}
	return &News{src: src, log: log.WithField("agent", "news")}
}

func (n *News) Analyze(ctx context.Context, req Request) (*model.NewsAnalysis, error) {
	topic := req.Ticker
	if req.Crypto() {
		topic = "CRYPTO:" + req.Base()
	}
	articles, err := n.src.News(ctx, topic)
	if err != nil {
		if canceled(err) {
			return nil, err
		}
		n.log.WithError(err).WithField("ticker", topic).Warn("news unavailable")
		return &model.NewsAnalysis{Signal: model.SignalNeutral, Summary: unavailable("news", err)}, nil
	}
	return scoreNews(articles), nil
}

func scoreNews(articles []model.NewsArticle) *model.NewsAnalysis {
	out := &model.NewsAnalysis{Signal: model.SignalNeutral, ArticleCount: len(articles)}
	if len(articles) == 0 {
		out.Summary = "no recent coverage"
		return out
	}

	sum := 0.0
	for i, a := range articles {
		sum += a.Sentiment
		if i < maxHeadlines {
			out.Headlines = append(out.Headlines, a.Title)
		}
	}
	out.AverageSentiment = sum / float64(len(articles))
	switch {
	case out.AverageSentiment > newsThreshold:
		out.Signal = model.SignalBullish
	case out.AverageSentiment < -newsThreshold:
		out.Signal = model.SignalBearish
	}
	out.Confidence = math.Min(90, 40+5*float64(len(articles)))
	out.Summary = fmt.Sprintf("%d articles, average sentiment %+.2f", len(articles), out.AverageSentiment)
	return out
}
