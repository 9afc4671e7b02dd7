// Package filter decides whether a normalized article is genuine financial
// news. Each rule is exposed as its own predicate; Check applies them in a
// fixed precedence and stops at the first rejection.
package filter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

// Strictness selects how aggressive admission is.
type Strictness string

const (
	// Lenient admits anything with financial evidence.
	Lenient Strictness = "lenient"
	// Strict additionally requires a major company or a high-impact keyword.
	Strict Strictness = "strict"
)

// ParseStrictness validates a strictness name. Empty means Lenient.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lenient:
		return Lenient, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("unknown filter strictness %q (want lenient or strict)", s)
}

// Rule names the predicate that rejected an article.
type Rule string

// Rules in evaluation order.
const (
	RuleExclusion    Rule = "exclusion"
	RuleAllCaps      Rule = "all-caps"
	RulePromotional  Rule = "promotional"
	RuleLegalNotice  Rule = "legal-notice"
	RuleSignificance Rule = "significance"
	RuleEvidence     Rule = "no-evidence"
	RuleLength       Rule = "title-length"
)

// allCapsMinLen is the title length above which an all-caps title is spam.
const allCapsMinLen = 20

// Default title bounds.
const (
	DefaultMinTitle = 20
	DefaultMaxTitle = 200
)

// Options tune the filter.
type Options struct {
	Strictness Strictness
	MinTitle   int
	MaxTitle   int
}

// Verdict is the outcome of Check. Rule and Term are set on rejection.
type Verdict struct {
	Admitted bool
	Rule     Rule
	Term     string
}

func (v Verdict) String() string {
	if v.Admitted {
		return "admitted"
	}
	if v.Term != "" {
		return fmt.Sprintf("%s (%q)", v.Rule, v.Term)
	}
	return string(v.Rule)
}

// Filter is the content admission rule. It is safe for concurrent use.
type Filter struct {
	v    vocab.Vocabulary
	opts Options
}

// New creates a Filter over the given vocabulary.
func New(v vocab.Vocabulary, opts Options) *Filter {
	if opts.Strictness == "" {
		opts.Strictness = Lenient
	}
	if opts.MinTitle <= 0 {
		opts.MinTitle = DefaultMinTitle
	}
	if opts.MaxTitle <= 0 {
		opts.MaxTitle = DefaultMaxTitle
	}
	return &Filter{v: v, opts: opts}
}

// Strictness returns the configured admission level.
func (f *Filter) Strictness() Strictness { return f.opts.Strictness }

// Excluded returns the first denylisted phrase found in title or summary.
func (f *Filter) Excluded(a news.Article) (string, bool) {
	return f.v.ExclusionTerms.Match(a.Text())
}

// AllCapsSpam reports an upper-case title longer than 20 characters.
func (f *Filter) AllCapsSpam(a news.Article) bool {
	title := strings.TrimSpace(a.Title)
	return utf8.RuneCountInString(title) > allCapsMinLen && news.IsAllCaps(title)
}

// Promotional returns the first advertising phrase found.
func (f *Filter) Promotional(a news.Article) (string, bool) {
	return f.v.PromotionalPhrases.Match(a.Text())
}

// LegalPressRelease reports a wire press release whose title uses legal language.
// Press releases without legal terms pass.
func (f *Filter) LegalPressRelease(a news.Article) (string, bool) {
	if !f.v.PressWireSources.Any(a.Source) {
		return "", false
	}
	return f.v.LegalTerms.Match(a.Title)
}

// Significant reports a mention of a major company or a high-impact keyword.
func (f *Filter) Significant(a news.Article) bool {
	text := a.Text()
	return f.v.MajorCompanies.Any(text) || f.v.SignificanceKeywords.Any(text)
}

// HasFinancialEvidence reports a financial term or at least one ticker.
func (f *Filter) HasFinancialEvidence(a news.Article) bool {
	if len(a.Tickers) > 0 {
		return true
	}
	return f.v.FinancialIndicators.Any(a.Text())
}

// TitleLengthOK reports a title length within the configured bounds.
func (f *Filter) TitleLengthOK(a news.Article) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(a.Title))
	return n >= f.opts.MinTitle && n <= f.opts.MaxTitle
}

// Check applies every rule in precedence order.
func (f *Filter) Check(a news.Article) Verdict {
	if term, ok := f.Excluded(a); ok {
		return Verdict{Rule: RuleExclusion, Term: term}
	}
	if f.AllCapsSpam(a) {
		return Verdict{Rule: RuleAllCaps}
	}
	if term, ok := f.Promotional(a); ok {
		return Verdict{Rule: RulePromotional, Term: term}
	}
	if term, ok := f.LegalPressRelease(a); ok {
		return Verdict{Rule: RuleLegalNotice, Term: term}
	}
	if f.opts.Strictness == Strict && !f.Significant(a) {
		return Verdict{Rule: RuleSignificance}
	}
	if !f.HasFinancialEvidence(a) {
		return Verdict{Rule: RuleEvidence}
	}
	if !f.TitleLengthOK(a) {
		return Verdict{Rule: RuleLength}
	}
	return Verdict{Admitted: true}
}

// Admissible is Check reduced to a boolean.
func (f *Filter) Admissible(a news.Article) bool {
	return f.Check(a).Admitted
}

// Apply returns the admitted articles in input order and a count of
// rejections per rule.
func (f *Filter) Apply(articles []news.Article) ([]news.Article, map[Rule]int) {
	admitted := make([]news.Article, 0, len(articles))
	rejected := make(map[Rule]int)
	for _, a := range articles {
		v := f.Check(a)
		if !v.Admitted {
			rejected[v.Rule]++
			lgr.Printf("[DEBUG] filter rejected %q: %s", a.Title, v)
			continue
		}
		admitted = append(admitted, a)
	}
	return admitted, rejected
}
