package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/MarketBrief/internal/category"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

var testNow = time.Date(2026, 2, 26, 14, 0, 0, 0, time.Local)

func fixedClock() time.Time { return testNow }

func TestBreakdown(t *testing.T) {
	s := New(vocab.Default(), WithClock(fixedClock))
	a := news.Article{
		Title:          "Apple beats earnings estimates as iPhone revenue climbs sharply",
		Summary:        "Guidance raised; analyst upgrades follow.",
		Source:         "Reuters",
		TimePublished:  "20260226T130000",
		SentimentScore: 0.42,
		Tickers:        []string{"AAPL", "AAPL", "XYZ"},
	}

	b := s.Breakdown(a)
	assert.Equal(t, Breakdown{
		Source:       25,
		HighImpact:   30,
		MediumImpact: 10,
		Tickers:      8,
		Sentiment:    10,
		Recency:      10,
		TitleQuality: 10,
		Tier:         category.General,
	}, b)
	assert.InDelta(t, 103, s.Score(a), 1e-9)
}

func TestSourceTiers(t *testing.T) {
	s := New(vocab.Default(), WithClock(fixedClock))
	assert.InDelta(t, 25, s.Breakdown(news.Article{Source: "Bloomberg"}).Source, 1e-9)
	assert.InDelta(t, 10, s.Breakdown(news.Article{Source: "GlobeNewswire"}).Source, 1e-9)
	assert.InDelta(t, 0, s.Breakdown(news.Article{Source: "Some Blog"}).Source, 1e-9)
	assert.InDelta(t, 0, s.Breakdown(news.Article{}).Source, 1e-9)
}

func TestTickerScore(t *testing.T) {
	s := New(vocab.Default())
	assert.InDelta(t, 0, s.tickerScore(nil), 1e-9)
	assert.InDelta(t, AnyTickerScore, s.tickerScore([]string{"XYZ"}), 1e-9)
	assert.InDelta(t, 16, s.tickerScore([]string{"AAPL", "MSFT"}), 1e-9)
	assert.InDelta(t, MajorTickerCap, s.tickerScore([]string{"AAPL", "MSFT", "NVDA"}), 1e-9)
}

func TestSentimentIsMonotonic(t *testing.T) {
	s := New(vocab.Default(), WithClock(fixedClock))
	base := news.Article{Title: "Fed signals interest rate path as inflation cools", Source: "CNBC"}

	prev := -1.0
	for v := 0.0; v <= 1.0; v += 0.05 {
		a := base
		a.SentimentScore = -v
		got := s.Score(a)
		assert.GreaterOrEqual(t, got, prev, "magnitude %.2f", v)
		prev = got
	}
}

func TestRecencyScore(t *testing.T) {
	assert.InDelta(t, 10, RecencyScore(-time.Hour), 1e-9)
	assert.InDelta(t, 10, RecencyScore(90*time.Minute), 1e-9)
	assert.InDelta(t, 8, RecencyScore(3*time.Hour), 1e-9)
	assert.InDelta(t, 5, RecencyScore(11*time.Hour), 1e-9)
	assert.InDelta(t, 2, RecencyScore(23*time.Hour), 1e-9)
	assert.InDelta(t, 0, RecencyScore(48*time.Hour), 1e-9)

	s := New(vocab.Default(), WithClock(fixedClock))
	assert.InDelta(t, UnknownAgeScore, s.Breakdown(news.Article{TimePublished: "garbage"}).Recency, 1e-9)
	assert.InDelta(t, UnknownAgeScore, s.Breakdown(news.Article{}).Recency, 1e-9)
}

func TestClickbaitPenaltyCanGoNegative(t *testing.T) {
	s := New(vocab.Default(), WithClock(fixedClock))
	a := news.Article{Title: "Shocking", TimePublished: "20200101T000000"}
	assert.InDelta(t, ClickbaitPenalty, s.Score(a), 1e-9)
}

func TestTitleWordRanges(t *testing.T) {
	s := New(vocab.Default())
	assert.InDelta(t, 0, s.titleScore("Two words"), 1e-9)
	assert.InDelta(t, 5, s.titleScore("one two three four five"), 1e-9)
	assert.InDelta(t, 10, s.titleScore("one two three four five six seven eight"), 1e-9)
}

func TestCategoryBonusRanksGoldAboveMacro(t *testing.T) {
	v := vocab.Default()
	s := New(v, WithClock(fixedClock), WithCategoryBonus(category.NewMatcher(v, 0, 0)))

	gold := news.Article{
		Title:   "Spot gold climbs to record as safe-haven demand grows",
		Summary: "Bullion extended gains.",
		Tickers: []string{"GLD"},
	}
	fed := news.Article{Title: "Fed signals interest rate path as inflation cools"}

	gb, fb := s.Breakdown(gold), s.Breakdown(fed)
	assert.Equal(t, category.Gold, gb.Tier)
	assert.Equal(t, category.Macro, fb.Tier)
	assert.Greater(t, gb.Total(), fb.Total())

	plain := New(v, WithClock(fixedClock))
	assert.Less(t, plain.Score(gold), plain.Score(fed))
}

func TestScoreAllKeepsOrder(t *testing.T) {
	s := New(vocab.Default(), WithClock(fixedClock))
	set := s.ScoreAll([]news.Article{{Title: "first"}, {Title: "second"}})
	assert.Equal(t, "first", set[0].Title)
	assert.Equal(t, "second", set[1].Title)
}
