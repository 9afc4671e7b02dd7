// Package profile maps a generation variant (day mode and presentation style)
// to everything that depends on it: target duration, lookback, article limit,
// market extra and prompt wording. Lookup is the single dispatch point.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the episode format.
type Mode string

// Modes.
const (
	Monday    Mode = "monday"
	Wednesday Mode = "wednesday"
	Friday    Mode = "friday"
	Daily     Mode = "daily"
	Headlines Mode = "headlines"
)

// Style selects the presentation voice.
type Style string

// Styles.
const (
	Professional Style = "professional"
	Chill        Style = "chill"
)

// Extra names the optional market data attached to an episode.
type Extra string

// Market extras.
const (
	ExtraSnapshot      Extra = "snapshot"
	ExtraMovers        Extra = "movers"
	ExtraWeeklySummary Extra = "weekly_summary"
)

// Variant is a {mode, style} pair.
type Variant struct {
	Mode  Mode
	Style Style
}

func (v Variant) String() string { return string(v.Mode) + "/" + string(v.Style) }

// ModeProfile describes an episode format.
type ModeProfile struct {
	Label         string
	Theme         string
	TargetSeconds int
	// LookbackDays of 0 means the latest feed without a time window.
	LookbackDays int
	Limit        int
	Extra        Extra
	// Guaranteed enables the gold and crypto coverage search.
	Guaranteed bool
}

// StyleProfile describes a presentation voice.
type StyleProfile struct {
	Name    string
	Opening string
	// SignOff contains one %s for the spoken date.
	SignOff      string
	SystemPrompt string
	Sample       string
}

// Profile is the resolved configuration of a variant.
type Profile struct {
	Variant
	ModeProfile
	StyleProfile
}

var modes = map[Mode]ModeProfile{
	Monday: {
		Label: "Weekly Market Open", Theme: "Weekly market open with key developments",
		TargetSeconds: 60, Limit: 8, Extra: ExtraSnapshot,
	},
	Wednesday: {
		Label: "Mid-Week Analysis", Theme: "Mid-week market analysis",
		TargetSeconds: 75, LookbackDays: 2, Limit: 10, Extra: ExtraMovers,
	},
	Friday: {
		Label: "Weekly Market Wrap", Theme: "Weekly market wrap-up",
		TargetSeconds: 90, LookbackDays: 5, Limit: 12, Extra: ExtraWeeklySummary,
	},
	Daily: {
		Label: "Daily Market Update", Theme: "Daily market update",
		TargetSeconds: 60, Limit: 8, Extra: ExtraSnapshot,
	},
	Headlines: {
		Label: "Major Headlines", Theme: "Major market headlines with gold and crypto coverage",
		TargetSeconds: 75, Limit: 10, Extra: ExtraSnapshot, Guaranteed: true,
	},
}

var styles = map[Style]StyleProfile{
	Professional: {
		Name:    "Professional",
		Opening: "Here's your market update for",
		SignOff: "That's your %s rundown — see you tomorrow!",
		SystemPrompt: `You are a professional financial news presenter creating concise, authoritative market updates. Your style should match financial news broadcasts: direct, informative and professional.

STYLE GUIDELINES:
- Start with "Here's your market update for [date]"
- Present 2-3 key stories with varied, natural transitions
- Use professional language: "analysts warn", "sector continues to", "drawing bullish sentiment"
- Include specific numbers, projections and company names when available
- End with a brief, professional sign-off`,
		Sample: `Here's your market update for August 20. First up — a Fed official says staff should be allowed to hold some crypto. That's a potential boost for Ethereum and related markets.
Next — High Arctic is making executive management changes. Investors are watching closely since leadership shifts often signal strategy updates.
And finally — Bitcoin's under pressure. The big question on the street: is $112K the final bottom?
That's your August 20 rundown — see you tomorrow!`,
	},
	Chill: {
		Name:    "Chill",
		Opening: "Here's your chill market recap for",
		SignOff: "That's the %s vibe check — catch you tomorrow!",
		SystemPrompt: `You are a relaxed, friendly market commentator recapping the day's financial news for a casual audience. Keep it easygoing and clear, never sloppy.

STYLE GUIDELINES:
- Start with "Here's your chill market recap for [date]"
- Walk through 2-3 stories with laid-back, natural transitions
- Explain why each story matters in plain words
- Keep numbers and company names accurate
- End with a friendly sign-off`,
		Sample: `Here's your chill market recap for August 20. First up — a Fed official thinks staff should be able to hold a little crypto. Nice tailwind for Ethereum.
Next — High Arctic is shuffling its leadership. New bosses usually mean a new game plan, so people are paying attention.
And finally — Bitcoin's feeling the heat. Everyone's asking the same thing: is $112K the floor?
That's the August 20 vibe check — catch you tomorrow!`,
	},
}

// Modes lists the known modes in display order.
func Modes() []Mode { return []Mode{Monday, Wednesday, Friday, Daily, Headlines} }

// Styles lists the known styles in display order.
func Styles() []Style { return []Style{Professional, Chill} }

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modes[m]; !ok {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := styles[st]; !ok {
		return "", fmt.Errorf("unknown style %q", s)
	}
	return st, nil
}

// ModeForDay maps a weekday to its default mode.
func ModeForDay(d time.Weekday) Mode {
	switch d {
	case time.Monday:
		return Monday
	case time.Wednesday:
		return Wednesday
	case time.Friday:
		return Friday
	}
	return Daily
}

// Lookup resolves a variant.
func Lookup(v Variant) (Profile, error) {
	mp, ok := modes[v.Mode]
	if !ok {
		return Profile{}, fmt.Errorf("unknown mode %q", v.Mode)
	}
	sp, ok := styles[v.Style]
	if !ok {
		return Profile{}, fmt.Errorf("unknown style %q", v.Style)
	}
	return Profile{Variant: v, ModeProfile: mp, StyleProfile: sp}, nil
}

// MustLookup is Lookup for variants known to be valid.
func MustLookup(v Variant) Profile {
	p, err := Lookup(v)
	if err != nil {
		panic(err)
	}
	return p
}

// SignOffFor renders the sign-off line for a spoken date.
func (p Profile) SignOffFor(date string) string {
	return fmt.Sprintf(p.SignOff, date)
}

// MinWords is the shortest acceptable script for the target duration.
func (p Profile) MinWords() int {
	// 2.2 words per second, rounded up
	n := (p.TargetSeconds*22 + 9) / 10
	if n < 150 {
		return 150
	}
	return n
}

// TargetWords is the word count requested from the generator.
func (p Profile) TargetWords() int {
	return (p.TargetSeconds*5 + 1) / 2
}
