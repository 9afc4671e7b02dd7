// Package headline builds the major-headlines set: a backward search over
// lookback windows that guarantees gold and crypto coverage, merged with the
// general top-scored pool.
package headline

import (
	"context"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/category"
	"github.com/TobiSchelling/MarketBrief/internal/news"
)

const day = 24 * time.Hour

// Window is a lookback range in whole days back from now, [FromDays, ToDays).
type Window struct {
	FromDays int
	ToDays   int
}

// DefaultWindows are searched nearest first.
var DefaultWindows = []Window{{0, 1}, {1, 2}, {2, 4}, {4, 7}}

// Range converts w into absolute times relative to now.
func (w Window) Range(now time.Time) (from, to time.Time) {
	return now.Add(-time.Duration(w.ToDays) * day), now.Add(-time.Duration(w.FromDays) * day)
}

// CandidateSource returns admitted, scored articles published inside [from, to).
// Failures are reported as an empty set.
type CandidateSource interface {
	Candidates(ctx context.Context, from, to time.Time) news.HeadlineSet
}

// Coverage is the outcome of a guarantor search.
type Coverage struct {
	Articles        news.HeadlineSet
	Gold            bool
	Crypto          bool
	WindowsSearched int
}

// Complete reports whether both category slots were filled.
func (c Coverage) Complete() bool { return c.Gold && c.Crypto }

// Guarantor searches successive windows for one gold and one crypto article.
type Guarantor struct {
	src     CandidateSource
	matcher *category.Matcher
	windows []Window
	now     func() time.Time
}

// NewGuarantor creates a Guarantor. Nil windows mean DefaultWindows and a nil
// clock means time.Now.
func NewGuarantor(src CandidateSource, m *category.Matcher, windows []Window, now func() time.Time) *Guarantor {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	if now == nil {
		now = time.Now
	}
	return &Guarantor{src: src, matcher: m, windows: windows, now: now}
}

// Guarantee runs the search. Unfilled slots are simply missing from the result.
func (g *Guarantor) Guarantee(ctx context.Context) Coverage {
	var cov Coverage
	accepted := make(map[string]struct{}, 2)
	now := g.now()

	for _, w := range g.windows {
		if cov.Complete() || ctx.Err() != nil {
			break
		}
		from, to := w.Range(now)
		candidates := g.src.Candidates(ctx, from, to)
		cov.WindowsSearched++

		if !cov.Gold {
			if a, ok := g.pick(candidates, accepted, g.matcher.IsGold); ok {
				cov.Articles = append(cov.Articles, a)
				accepted[news.TitleKey(a.Title)] = struct{}{}
				cov.Gold = true
				lgr.Printf("[DEBUG] gold slot filled from window %d-%dd: %q", w.FromDays, w.ToDays, a.Title)
			}
		}
		if !cov.Crypto {
			if a, ok := g.pick(candidates, accepted, g.matcher.IsCrypto); ok {
				cov.Articles = append(cov.Articles, a)
				accepted[news.TitleKey(a.Title)] = struct{}{}
				cov.Crypto = true
				lgr.Printf("[DEBUG] crypto slot filled from window %d-%dd: %q", w.FromDays, w.ToDays, a.Title)
			}
		}
	}

	if !cov.Complete() {
		lgr.Printf("[INFO] category coverage incomplete after %d windows (gold=%v crypto=%v)",
			cov.WindowsSearched, cov.Gold, cov.Crypto)
	}
	return cov
}

func (g *Guarantor) pick(set news.HeadlineSet, accepted map[string]struct{}, match func(news.Article) bool) (news.ScoredArticle, bool) {
	for _, a := range set {
		if _, dup := accepted[news.TitleKey(a.Title)]; dup {
			continue
		}
		if match(a.Article) && g.matcher.IsQuality(a.Article) {
			return a, true
		}
	}
	return news.ScoredArticle{}, false
}

// Aggregate merges guaranteed and general results. Guaranteed entries win title
// collisions; the merged set is sorted by score (stable) and truncated to limit.
// A non-positive limit yields an empty set.
func Aggregate(guaranteed, general news.HeadlineSet, limit int) news.HeadlineSet {
	if limit <= 0 {
		return news.HeadlineSet{}
	}
	merged := make(news.HeadlineSet, 0, len(guaranteed)+len(general))
	merged = append(merged, guaranteed...)
	merged = append(merged, general...)
	out := news.Dedup(merged)
	news.SortByScore(out)
	return out.Limit(limit)
}
