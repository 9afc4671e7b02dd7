package compose

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

const maxMotion = 300

// fallbackLines are the canned sentences of the deterministic generator.
type fallbackLines struct {
	emptyStories [3]string
	emptySocial  string
	emptyMotion  string
	emptyCaption string
	boost        string
	watching     string
	question     string
	genericThird string
	genericAsk   string
	motion       string
}

var linesByStyle = map[profile.Style]fallbackLines{
	profile.Professional: {
		emptyStories: [3]string{
			"markets are showing mixed signals today as investors digest recent economic data and await key earnings reports.",
			"the Federal Reserve continues to monitor inflation indicators closely, with analysts expecting potential policy adjustments in the coming weeks.",
			"several major companies are reporting quarterly results this week, setting the tone for sector performance.",
		},
		emptySocial:  "📊 Mixed market signals on %s as investors digest economic data. Fed monitoring inflation closely. Major earnings this week. #Markets #Trading #Finance",
		emptyMotion:  "Professional opening with steady eye contact. Light gesture on 'mixed signals'. Authoritative posture on Fed mention. End with confident nod.",
		emptyCaption: "Market Update - %s | Mixed Signals, Fed Watch & Earnings",
		boost:        "That's a potential boost for %s.",
		watching:     "Investors are watching closely for what comes next.",
		question:     "The big question on the street: what's the next move?",
		genericThird: "market volatility continues as traders position for upcoming economic data.",
		genericAsk:   "The big question: where do we go from here?",
		motion:       "Start with confident eye contact. Emphasize transitions with slight gestures. Maintain professional posture. End with authoritative nod and slight smile.",
	},
	profile.Chill: {
		emptyStories: [3]string{
			"markets are kind of all over the place today while everyone waits on fresh economic data and earnings.",
			"the Fed is still keeping a close eye on inflation, and folks are guessing what it does next.",
			"a bunch of big companies report results this week, so expect things to get interesting.",
		},
		emptySocial:  "☕ Easygoing market recap for %s: mixed signals, the Fed watching inflation, and big earnings on deck. #Markets #Investing #Finance",
		emptyMotion:  "Relaxed posture, easy smile. Casual shrug on 'all over the place'. Lean in a little for the Fed part. Close with a friendly wave.",
		emptyCaption: "Chill Market Recap - %s | Mixed Signals, Fed & Earnings",
		boost:        "Nice tailwind for %s.",
		watching:     "People are paying attention to this one.",
		question:     "Everyone's wondering what happens next.",
		genericThird: "things stay a little bumpy while traders wait on the next round of data.",
		genericAsk:   "Where does it go from here? We'll see.",
		motion:       "Relaxed stance and easy eye contact. Light hand gestures on each transition. Keep the tone loose and friendly. Finish with a smile and a small wave.",
	},
}

// Fallback builds a complete bundle without calling any model.
func Fallback(p profile.Profile, date time.Time, set news.HeadlineSet) content.Bundle {
	lines, ok := linesByStyle[p.Style]
	if !ok {
		lines = linesByStyle[profile.Professional]
	}
	spoken := SpokenDate(date)
	if len(set) == 0 {
		return emptyFallback(p, lines, spoken)
	}

	parts := []string{fmt.Sprintf("%s %s.", p.Opening, spoken)}

	first := set[0]
	parts = append(parts, fmt.Sprintf("First up — %s.", sentence(first.Title)))
	if len(first.Tickers) > 0 {
		if names := VoiceNames(first.Tickers, 2); len(names) > 0 {
			parts = append(parts, fmt.Sprintf(lines.boost, joinNames(names)))
		}
	}

	if len(set) > 1 {
		parts = append(parts, fmt.Sprintf("Next — %s.", sentence(set[1].Title)), lines.watching)
	}

	if len(set) > 2 {
		parts = append(parts, fmt.Sprintf("And finally — %s.", sentence(set[2].Title)), lines.question)
	} else {
		parts = append(parts, "And finally — "+lines.genericThird, lines.genericAsk)
	}
	parts = append(parts, p.SignOffFor(spoken))

	themes := Themes(set)
	tickersText := "key sectors"
	if len(first.Tickers) > 0 {
		tickersText = "$" + strings.Join(first.Tickers[:min(2, len(first.Tickers))], "/")
	}

	return content.Bundle{
		Script:       strings.Join(parts, " "),
		SocialPost:   fmt.Sprintf("📈 %s... %s in focus. Multiple stories across markets today. #Markets #Trading #Finance", truncate(first.Title, 100), tickersText),
		MotionScript: truncate(lines.motion, maxMotion),
		VideoCaption: fmt.Sprintf("Market Update - %s | %s, %s & More", spoken, themes[0], themes[1]),
		EpisodeTitle: fmt.Sprintf("Market Update - %s | %s, %s, and %s", spoken, themes[0], themes[1], themes[2]),
	}
}

func emptyFallback(p profile.Profile, lines fallbackLines, spoken string) content.Bundle {
	script := fmt.Sprintf("%s %s. First up — %s Next — %s And finally — %s %s",
		p.Opening, spoken, lines.emptyStories[0], lines.emptyStories[1], lines.emptyStories[2], p.SignOffFor(spoken))
	return content.Bundle{
		Script:       script,
		SocialPost:   fmt.Sprintf(lines.emptySocial, spoken),
		MotionScript: lines.emptyMotion,
		VideoCaption: fmt.Sprintf(lines.emptyCaption, spoken),
		EpisodeTitle: fmt.Sprintf("Market Update - %s | Markets, Fed, and Earnings", spoken),
	}
}

// sentence trims trailing punctuation so a title reads as part of a sentence.
func sentence(title string) string {
	return strings.TrimRightFunc(strings.TrimSpace(title), func(r rune) bool {
		return unicode.IsPunct(r) && r != ')' && r != '%'
	})
}

func joinNames(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

// theme rules are checked in order against each headline title.
var themeRules = []struct {
	name  string
	terms vocab.Terms
}{
	{"Crypto", vocab.Terms{"crypto", "bitcoin", "ethereum"}},
	{"Fed", vocab.Terms{"fed", "federal", "interest"}},
	{"Energy", vocab.Terms{"energy", "oil", "gas"}},
	{"Earnings", vocab.Terms{"earnings", "profit", "revenue"}},
	{"Tech", vocab.Terms{"tech", "technology", "ai"}},
}

const defaultTheme = "Markets"

// Themes returns the distinct themes of the top three headlines, padded to
// three entries with "Markets".
func Themes(set news.HeadlineSet) []string {
	var themes []string
	seen := map[string]bool{}
	for _, a := range set.Limit(3) {
		t := themeOf(a.Title)
		if seen[t] {
			continue
		}
		seen[t] = true
		themes = append(themes, t)
	}
	for len(themes) < 3 {
		themes = append(themes, defaultTheme)
	}
	return themes
}

func themeOf(title string) string {
	for _, r := range themeRules {
		if r.terms.Any(title) {
			return r.name
		}
	}
	return defaultTheme
}

var voiceNames = map[string]string{
	"AAPL":       "Apple",
	"MSFT":       "Microsoft",
	"GOOGL":      "Google",
	"GOOG":       "Google",
	"AMZN":       "Amazon",
	"TSLA":       "Tesla",
	"NVDA":       "NVIDIA",
	"META":       "Meta",
	"NFLX":       "Netflix",
	"GRMN":       "Garmin",
	"SPY":        "the S&P 500",
	"QQQ":        "the Nasdaq 100",
	"BTC":        "Bitcoin",
	"ETH":        "Ethereum",
	"CRYPTO:BTC": "Bitcoin",
	"CRYPTO:ETH": "Ethereum",
	"FOREX:USD":  "US Dollar",
	"FOREX:EUR":  "Euro",
	"FOREX:GBP":  "British Pound",
	"FOREX:JPY":  "Japanese Yen",
	"FOREX:KRW":  "Korean Won",
	"FOREX:CNY":  "Chinese Yuan",
	"TOP":        "the company",
	"UNKNOWN":    "related stocks",
}

// VoiceNames converts up to n ticker symbols into names suitable for speech.
// Duplicate names are dropped.
func VoiceNames(tickers []string, n int) []string {
	if n > 0 && len(tickers) > n {
		tickers = tickers[:n]
	}
	var out []string
	seen := map[string]bool{}
	for _, t := range tickers {
		name := VoiceName(t)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// VoiceName converts a single ticker symbol.
func VoiceName(ticker string) string {
	if name, ok := voiceNames[ticker]; ok {
		return name
	}
	switch {
	case strings.HasPrefix(ticker, "FOREX:"):
		return "the " + strings.TrimPrefix(ticker, "FOREX:")
	case strings.HasPrefix(ticker, "CRYPTO:"):
		return strings.TrimPrefix(ticker, "CRYPTO:") + " cryptocurrency"
	case len(ticker) <= 4 && news.IsAllCaps(ticker):
		return "the company"
	}
	return "related markets"
}
