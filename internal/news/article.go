package news

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TimeLayout is the fixed-width timestamp format used by the news feed.
const TimeLayout = "20060102T150405"

// shortTimeLayout is accepted for timestamps without seconds.
const shortTimeLayout = "20060102T1504"

// ErrInvalidSentiment marks a record whose sentiment score is not a number.
var ErrInvalidSentiment = errors.New("invalid sentiment score")

// Sentiment is a normalized sentiment label.
type Sentiment string

// Sentiment labels.
const (
	Bullish         Sentiment = "bullish"
	SomewhatBullish Sentiment = "somewhat-bullish"
	Neutral         Sentiment = "neutral"
	SomewhatBearish Sentiment = "somewhat-bearish"
	Bearish         Sentiment = "bearish"
)

// TickerSentiment is a per-ticker entry of a raw feed record.
type TickerSentiment struct {
	Ticker         string `json:"ticker"`
	RelevanceScore string `json:"relevance_score,omitempty"`
	SentimentScore string `json:"ticker_sentiment_score,omitempty"`
	SentimentLabel string `json:"ticker_sentiment_label,omitempty"`
}

// RawArticle is a record as delivered by a news source.
type RawArticle struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	Summary               string            `json:"summary"`
	Source                string            `json:"source"`
	TimePublished         string            `json:"time_published"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	OverallSentimentScore json.RawMessage   `json:"overall_sentiment_score,omitempty"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`
}

// Article is a normalized news article. Treat values as read-only.
type Article struct {
	Title          string
	Summary        string
	Source         string
	URL            string
	TimePublished  string
	Sentiment      Sentiment
	SentimentScore float64
	Tickers        []string
}

// Normalize maps a raw record into an Article with safe defaults.
// The only failure is a sentiment score that cannot be read as a number.
func Normalize(raw RawArticle) (Article, error) {
	score, err := parseScore(raw.OverallSentimentScore)
	if err != nil {
		return Article{}, fmt.Errorf("%w: %q", ErrInvalidSentiment, string(raw.OverallSentimentScore))
	}

	tickers := make([]string, 0, len(raw.TickerSentiment))
	for _, ts := range raw.TickerSentiment {
		if t := strings.TrimSpace(ts.Ticker); t != "" {
			tickers = append(tickers, t)
		}
	}

	return Article{
		Title:          raw.Title,
		Summary:        raw.Summary,
		Source:         raw.Source,
		URL:            raw.URL,
		TimePublished:  raw.TimePublished,
		Sentiment:      ParseSentiment(raw.OverallSentimentLabel),
		SentimentScore: score,
		Tickers:        tickers,
	}, nil
}

// NormalizeAll normalizes a batch, dropping records that fail individually.
// The second return value counts dropped records.
func NormalizeAll(raws []RawArticle) ([]Article, int) {
	out := make([]Article, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		a, err := Normalize(raw)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, a)
	}
	return out, dropped
}

// ParseSentiment maps a feed label to a Sentiment, defaulting to Neutral.
func ParseSentiment(label string) Sentiment {
	l := strings.ToLower(strings.TrimSpace(label))
	l = strings.ReplaceAll(l, "_", "-")
	l = strings.ReplaceAll(l, " ", "-")
	switch Sentiment(l) {
	case Bullish, SomewhatBullish, Neutral, SomewhatBearish, Bearish:
		return Sentiment(l)
	}
	return Neutral
}

// PublishedAt parses the publication timestamp. ok is false when the value
// is absent or malformed.
func (a Article) PublishedAt() (t time.Time, ok bool) {
	ts := strings.TrimSpace(a.TimePublished)
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimeLayout, shortTimeLayout} {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Text returns the lower-cased title and summary joined for keyword scans.
func (a Article) Text() string {
	return strings.ToLower(a.Title + " " + a.Summary)
}

// IsAllCaps reports whether s contains letters and none of them is lower-case.
func IsAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		hasLetter = true
	}
	return hasLetter
}

func parseScore(raw json.RawMessage) (float64, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || string(v) == "null" {
		return 0, nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, err
	}
	return f, nil
}
