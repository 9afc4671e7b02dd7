// Package score ranks admitted articles by market relevance.
package score

import (
	"math"
	"strings"
	"time"

	"github.com/TobiSchelling/MarketBrief/internal/category"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

// Weights and caps of the additive score.
const (
	PremiumSourceScore  = 25
	PressWireScore      = 10
	HighImpactPerMatch  = 10
	HighImpactCap       = 30
	MediumImpactPerHit  = 5
	MediumImpactCap     = 15
	MajorTickerPerMatch = 8
	MajorTickerCap      = 20
	AnyTickerScore      = 5
	UnknownAgeScore     = 5
	IdealTitleScore     = 10
	AcceptedTitleScore  = 5
	ClickbaitPenalty    = -20
)

// Category bonuses for headline ranking.
var categoryBonus = map[category.Category]float64{
	category.Gold:       160,
	category.Crypto:     150,
	category.Macro:      60,
	category.MarketMove: 30,
	category.Sector:     15,
}

// Breakdown holds the individual factors of a score.
type Breakdown struct {
	Source       float64
	HighImpact   float64
	MediumImpact float64
	Tickers      float64
	Sentiment    float64
	Recency      float64
	TitleQuality float64
	Category     float64
	Tier         category.Category
}

// Total sums all factors.
func (b Breakdown) Total() float64 {
	return b.Source + b.HighImpact + b.MediumImpact + b.Tickers + b.Sentiment +
		b.Recency + b.TitleQuality + b.Category
}

// Scorer computes relevance scores. It holds no mutable state.
type Scorer struct {
	v       vocab.Vocabulary
	matcher *category.Matcher
	now     func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock sets the clock used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithCategoryBonus enables the headline-ranking category bonus.
func WithCategoryBonus(m *category.Matcher) Option {
	return func(s *Scorer) { s.matcher = m }
}

// New creates a Scorer over the given vocabulary.
func New(v vocab.Vocabulary, opts ...Option) *Scorer {
	s := &Scorer{v: v, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the composite relevance score of a.
func (s *Scorer) Score(a news.Article) float64 {
	return s.Breakdown(a).Total()
}

// ScoreAll scores a batch, keeping input order.
func (s *Scorer) ScoreAll(articles []news.Article) news.HeadlineSet {
	out := make(news.HeadlineSet, len(articles))
	for i, a := range articles {
		out[i] = news.ScoredArticle{Article: a, Score: s.Score(a)}
	}
	return out
}

// Breakdown computes every factor of the score of a.
func (s *Scorer) Breakdown(a news.Article) Breakdown {
	text := a.Text()
	b := Breakdown{
		Source:       s.sourceScore(a.Source),
		HighImpact:   math.Min(float64(HighImpactPerMatch*s.v.HighImpactKeywords.Count(text)), HighImpactCap),
		MediumImpact: math.Min(float64(MediumImpactPerHit*s.v.MediumImpactKeywords.Count(text)), MediumImpactCap),
		Tickers:      s.tickerScore(a.Tickers),
		Sentiment:    SentimentScore(a.SentimentScore),
		Recency:      s.recencyScore(a),
		TitleQuality: s.titleScore(a.Title),
		Tier:         category.General,
	}
	if s.matcher != nil {
		b.Tier = s.matcher.Classify(a)
		b.Category = categoryBonus[b.Tier]
	}
	return b
}

func (s *Scorer) sourceScore(source string) float64 {
	switch {
	case source == "":
		return 0
	case s.v.PremiumSources.Any(source):
		return PremiumSourceScore
	case s.v.PressWireSources.Any(source):
		return PressWireScore
	}
	return 0
}

func (s *Scorer) tickerScore(tickers []string) float64 {
	if len(tickers) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tickers))
	majors := 0
	for _, t := range tickers {
		t = strings.ToUpper(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if s.v.MajorTickers.Has(t) {
			majors++
		}
	}
	if majors == 0 {
		return AnyTickerScore
	}
	return math.Min(float64(MajorTickerPerMatch*majors), MajorTickerCap)
}

// SentimentScore tiers the magnitude of a sentiment score.
func SentimentScore(v float64) float64 {
	m := math.Abs(v)
	switch {
	case m > 0.5:
		return 15
	case m > 0.3:
		return 10
	case m > 0.1:
		return 5
	}
	return 0
}

func (s *Scorer) recencyScore(a news.Article) float64 {
	published, ok := a.PublishedAt()
	if !ok {
		return UnknownAgeScore
	}
	return RecencyScore(s.now().Sub(published))
}

// RecencyScore tiers the age of an article. Future timestamps count as fresh.
func RecencyScore(age time.Duration) float64 {
	switch h := age.Hours(); {
	case h < 2:
		return 10
	case h < 6:
		return 8
	case h < 12:
		return 5
	case h < 24:
		return 2
	}
	return 0
}

func (s *Scorer) titleScore(title string) float64 {
	var score float64
	switch words := len(strings.Fields(title)); {
	case words >= 8 && words <= 20:
		score = IdealTitleScore
	case words >= 5 && words <= 25:
		score = AcceptedTitleScore
	}
	if s.v.ClickbaitPhrases.Any(title) {
		score += ClickbaitPenalty
	}
	return score
}
