package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
)

// ContextStories is the number of headlines included in the prompt context.
const ContextStories = 5

const summaryPreview = 100

// SpokenDate formats a date the way it is read aloud, e.g. "February 26".
func SpokenDate(t time.Time) string { return t.Format("January 2") }

// LongDate formats a date with the year, e.g. "February 26, 2026".
func LongDate(t time.Time) string { return t.Format("January 2, 2006") }

// BuildContext renders the top headlines as the text block given to the model.
func BuildContext(date time.Time, set news.HeadlineSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\nTop Stories Available:\n", LongDate(date))
	for i, a := range set.Limit(ContextStories) {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Title)
		if len(a.Tickers) > 0 {
			tickers := a.Tickers
			if len(tickers) > 2 {
				tickers = tickers[:2]
			}
			fmt.Fprintf(&b, " ($%s)", strings.Join(tickers, ", "))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "   Sentiment: %s (%.2f)\n", a.Sentiment, a.SentimentScore)
		if a.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s...\n", truncate(a.Summary, summaryPreview))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

const userPromptTemplate = `Create a %[1]d-second financial news script in the style of the sample below:

SAMPLE STYLE:
"%[2]s"

CONTEXT:
%[3]s

MARKET DATA:
%[4]s

Return your answer in JSON format exactly like this:
{
  "script": "news script here",
  "social": "280-character social post here",
  "motion": "300-character motion direction here",
  "caption": "video caption here",
  "title": "episode title here"
}

SCRIPT REQUIREMENTS:
- %[1]d seconds when spoken at news pace (~%[5]d words)
- EXACTLY 3 STORIES with varied, natural transitions
- Start with "%[6]s %[7]s"
- Story 1: "First up", "Leading off", "Starting with", "Top story"
- Story 2: "Next", "Meanwhile", "Moving on", "Also", "In other news"
- Story 3: "And finally", "Lastly", "Also worth noting", "Wrapping up"
- End with "%[8]s"
- VOICE-FRIENDLY: use company names, not ticker symbols (say "Apple" not "$AAPL", "Bitcoin" not "CRYPTO:BTC", "Korean Won" not "FOREX:KRW")
- For unknown tickers use "the company", "related stocks" or "the sector"
- EXCLUDE legal notices, shareholder alerts, class action lawsuits and attorney notices
- Aim for at least %[5]d words

TITLE REQUIREMENTS:
- Format: "Market Update - [Date] | [3 key themes]", e.g. "Market Update - August 20 | Crypto, Energy, and Bitcoin"
- Under 60 characters

SOCIAL POST REQUIREMENTS:
- Summary of key developments with 1-2 tickers or numbers
- 50-280 characters, 1 emoji, 2-3 hashtags

MOTION SCRIPT REQUIREMENTS:
- Presenter body language: opening stance, key gestures, transitions, closing
- 50-300 characters

VIDEO CAPTION REQUIREMENTS:
- Date and key topics, 30-100 characters (60-80 ideal)

THEME: %[9]s`

// UserPrompt renders the generation request for a profile.
func UserPrompt(p profile.Profile, date time.Time, set news.HeadlineSet, market content.MarketData) string {
	spoken := SpokenDate(date)
	return fmt.Sprintf(userPromptTemplate,
		p.TargetSeconds,
		p.Sample,
		BuildContext(date, set),
		market.String(),
		p.TargetWords(),
		p.Opening, spoken,
		p.SignOffFor(spoken),
		p.Theme,
	)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
