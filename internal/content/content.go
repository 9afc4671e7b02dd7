// Package content defines the generated content bundle and the log entry
// handed to persistence sinks. Field names here are stable.
package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

// Bundle is one complete set of generated texts.
type Bundle struct {
	Script       string `json:"script"`
	SocialPost   string `json:"social"`
	MotionScript string `json:"motion"`
	VideoCaption string `json:"caption"`
	EpisodeTitle string `json:"title"`
}

// Market data status values.
const (
	StatusConnected   = "connected"
	StatusUnavailable = "unavailable"
)

// Quote is a last price with its change against the previous close.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

func (q Quote) String() string {
	return fmt.Sprintf("%s: $%.2f (%+.2f%%)", q.Symbol, q.Price, q.ChangePercent)
}

// WeeklySummary covers the last five trading sessions of a symbol.
type WeeklySummary struct {
	Symbol        string  `json:"symbol"`
	ChangePercent float64 `json:"change_percent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

func (w WeeklySummary) String() string {
	return fmt.Sprintf("%s week: %+.1f%% (high $%.2f, low $%.2f)", w.Symbol, w.ChangePercent, w.High, w.Low)
}

// MarketData is the optional market extra of an episode.
type MarketData struct {
	Status   string         `json:"status"`
	Snapshot *Quote         `json:"snapshot,omitempty"`
	Movers   []Quote        `json:"movers,omitempty"`
	Weekly   *WeeklySummary `json:"weekly,omitempty"`
}

// Unavailable is the marker used when no market data could be read.
func Unavailable() MarketData { return MarketData{Status: StatusUnavailable} }

// Available reports whether any market data is present.
func (m MarketData) Available() bool { return m.Status == StatusConnected }

func (m MarketData) String() string {
	if !m.Available() {
		return "Market data " + StatusUnavailable
	}
	var parts []string
	if m.Snapshot != nil {
		parts = append(parts, m.Snapshot.String())
	}
	for _, q := range m.Movers {
		parts = append(parts, q.String())
	}
	if m.Weekly != nil {
		parts = append(parts, m.Weekly.String())
	}
	if len(parts) == 0 {
		return "No significant movers"
	}
	return strings.Join(parts, "; ")
}

// Source is one headline that fed an entry.
type Source struct {
	Rank           int      `json:"rank"`
	Title          string   `json:"title"`
	Source         string   `json:"source"`
	URL            string   `json:"url"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score"`
	Tickers        []string `json:"tickers"`
	TimePublished  string   `json:"time_published"`
	Score          float64  `json:"score"`
}

// Quality labels.
const (
	QualityGenerated = "Generated"
	QualityFallback  = "Fallback"
)

// MaxSources is the number of headlines recorded per entry.
const MaxSources = 3

// Entry is one row of the content log.
type Entry struct {
	ID          int64
	GeneratedAt time.Time
	Day         string
	ContentType string
	Mode        string
	Style       string
	Bundle
	NewsCount  int
	Fallback   bool
	MarketData string
	Sources    []Source

	// Provider names the model that wrote the bundle; empty for fallback content.
	Provider       string
	FallbackReason string
}

// NewEntry builds an entry from generated content and the headlines behind it.
func NewEntry(at time.Time, contentType, mode, style string, b Bundle, fallback bool,
	market MarketData, headlines news.HeadlineSet) Entry {
	return Entry{
		GeneratedAt: at,
		Day:         at.Weekday().String(),
		ContentType: contentType,
		Mode:        mode,
		Style:       style,
		Bundle:      b,
		NewsCount:   len(headlines),
		Fallback:    fallback,
		MarketData:  market.String(),
		Sources:     SourcesFrom(headlines, MaxSources),
	}
}

// SourcesFrom converts the first n headlines into ranked source rows.
func SourcesFrom(set news.HeadlineSet, n int) []Source {
	set = set.Limit(n)
	out := make([]Source, len(set))
	for i, a := range set {
		out[i] = Source{
			Rank:           i + 1,
			Title:          a.Title,
			Source:         a.Source,
			URL:            a.URL,
			Sentiment:      string(a.Sentiment),
			SentimentScore: a.SentimentScore,
			Tickers:        a.Tickers,
			TimePublished:  a.TimePublished,
			Score:          a.Score,
		}
	}
	return out
}

// Date is the entry date as YYYY-MM-DD.
func (e Entry) Date() string { return e.GeneratedAt.Format("2006-01-02") }

// Time is the entry time as HH:MM:SS.
func (e Entry) Time() string { return e.GeneratedAt.Format("15:04:05") }

// ScriptLength is the script length in characters.
func (e Entry) ScriptLength() int { return len([]rune(e.Script)) }

// WordCount is the number of words in the script.
func (e Entry) WordCount() int { return len(strings.Fields(e.Script)) }

// QualityScore labels whether the entry was built from real headlines.
func (e Entry) QualityScore() string {
	if e.NewsCount > 0 {
		return QualityGenerated
	}
	return QualityFallback
}
