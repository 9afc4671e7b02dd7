// Package category recognizes the protected headline categories (gold and
// crypto markets) and the lower ranking tiers used by the headline scorer.
package category

import (
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

// Category is the ranking tier of an article.
type Category string

// Categories in descending bonus order.
const (
	Gold       Category = "gold"
	Crypto     Category = "crypto"
	Macro      Category = "macro"
	MarketMove Category = "market-move"
	Sector     Category = "sector"
	General    Category = "general"
)

// Default title bounds for the quality predicate.
const (
	DefaultMinTitle = 20
	DefaultMaxTitle = 200
)

// Matcher evaluates category predicates against an injected vocabulary.
type Matcher struct {
	v        vocab.Vocabulary
	minTitle int
	maxTitle int
}

// NewMatcher creates a Matcher. Non-positive bounds fall back to the defaults.
func NewMatcher(v vocab.Vocabulary, minTitle, maxTitle int) *Matcher {
	if minTitle <= 0 {
		minTitle = DefaultMinTitle
	}
	if maxTitle <= 0 {
		maxTitle = DefaultMaxTitle
	}
	return &Matcher{v: v, minTitle: minTitle, maxTitle: maxTitle}
}

// IsGold reports whether a is news about the gold market rather than an
// incidental mention such as a company name or a corporate filing.
func (m *Matcher) IsGold(a news.Article) bool {
	text := a.Text()
	if !vocab.ContainsWord(text, "gold") {
		return false
	}
	if !m.v.GoldContext.Any(text) {
		return false
	}
	return !m.v.GoldExclusions.Any(text)
}

// IsCrypto reports whether a is news about crypto markets: an asset named in
// the title, a market action anywhere, and no corporate filing language.
func (m *Matcher) IsCrypto(a news.Article) bool {
	if !m.v.CryptoAssets.Any(a.Title) {
		return false
	}
	text := a.Text()
	if !m.v.CryptoActions.Any(text) {
		return false
	}
	return !m.v.CryptoExclusions.Any(text)
}

// IsQuality is the generic headline check used for guaranteed slots.
func (m *Matcher) IsQuality(a news.Article) bool {
	title := strings.TrimSpace(a.Title)
	n := utf8.RuneCountInString(title)
	if n < m.minTitle || n > m.maxTitle {
		return false
	}
	if news.IsAllCaps(title) {
		return false
	}
	return !m.v.HeadlineSpam.Any(title)
}

// Classify returns the highest tier a qualifies for.
func (m *Matcher) Classify(a news.Article) Category {
	switch {
	case m.IsQuality(a) && m.IsGold(a):
		return Gold
	case m.IsQuality(a) && m.IsCrypto(a):
		return Crypto
	}
	text := a.Text()
	switch {
	case m.v.MacroTerms.Any(text):
		return Macro
	case m.v.MarketMoveTerms.Any(text):
		return MarketMove
	case m.v.SectorTerms.Any(text):
		return Sector
	}
	return General
}
