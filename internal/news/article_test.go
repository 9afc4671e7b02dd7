package news

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	a, err := Normalize(RawArticle{})
	require.NoError(t, err)

	assert.Equal(t, "", a.Title)
	assert.Equal(t, "", a.Summary)
	assert.Equal(t, "", a.Source)
	assert.Equal(t, Neutral, a.Sentiment)
	assert.InDelta(t, 0.0, a.SentimentScore, 1e-9)
	assert.NotNil(t, a.Tickers)
	assert.Empty(t, a.Tickers)

	_, ok := a.PublishedAt()
	assert.False(t, ok)
}

func TestNormalizeFromFeedJSON(t *testing.T) {
	payload := `{
		"title": "Fed Holds Rates Steady",
		"summary": "The Federal Reserve kept interest rates unchanged.",
		"source": "Reuters",
		"time_published": "20260226T120000",
		"overall_sentiment_label": "Somewhat-Bullish",
		"overall_sentiment_score": 0.241,
		"ticker_sentiment": [{"ticker": "SPY"}, {"ticker": ""}, {"ticker": "TLT"}, {"ticker": "SPY"}]
	}`
	var raw RawArticle
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	a, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Fed Holds Rates Steady", a.Title)
	assert.Equal(t, SomewhatBullish, a.Sentiment)
	assert.InDelta(t, 0.241, a.SentimentScore, 1e-9)
	assert.Equal(t, []string{"SPY", "TLT", "SPY"}, a.Tickers)

	ts, ok := a.PublishedAt()
	require.True(t, ok)
	assert.Equal(t, 2026, ts.Year())
	assert.Equal(t, 12, ts.Hour())
}

func TestNormalizeStringScore(t *testing.T) {
	a, err := Normalize(RawArticle{OverallSentimentScore: json.RawMessage(`"-0.35"`)})
	require.NoError(t, err)
	assert.InDelta(t, -0.35, a.SentimentScore, 1e-9)

	a, err = Normalize(RawArticle{OverallSentimentScore: json.RawMessage(`null`)})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, a.SentimentScore, 1e-9)
}

func TestNormalizeInvalidScore(t *testing.T) {
	_, err := Normalize(RawArticle{OverallSentimentScore: json.RawMessage(`"very bullish"`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSentiment)
}

func TestNormalizeAllIsolatesBadRecords(t *testing.T) {
	raws := []RawArticle{
		{Title: "first"},
		{Title: "broken", OverallSentimentScore: json.RawMessage(`"n/a"`)},
		{Title: "third", OverallSentimentScore: json.RawMessage(`0.5`)},
	}
	out, dropped := NormalizeAll(raws)
	assert.Equal(t, 1, dropped)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "third", out[1].Title)
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in   string
		want Sentiment
	}{
		{"Bullish", Bullish},
		{"Somewhat-Bearish", SomewhatBearish},
		{"somewhat bullish", SomewhatBullish},
		{"BEARISH", Bearish},
		{"", Neutral},
		{"ecstatic", Neutral},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSentiment(tt.in))
		})
	}
}

func TestPublishedAtMalformed(t *testing.T) {
	_, ok := Article{TimePublished: "yesterday"}.PublishedAt()
	assert.False(t, ok)

	ts, ok := Article{TimePublished: "20260226T0753"}.PublishedAt()
	require.True(t, ok)
	assert.Equal(t, 53, ts.Minute())
}

func TestIsAllCaps(t *testing.T) {
	assert.True(t, IsAllCaps("BUY THIS STOCK NOW 100%"))
	assert.False(t, IsAllCaps("Fed Holds Rates"))
	assert.False(t, IsAllCaps("2026 - 100%"))
}
