package news

import (
	"sort"
	"strings"
)

// TitleKeyLength is the number of title characters used as the dedup key.
const TitleKeyLength = 60

// ScoredArticle is an Article paired with its relevance score.
type ScoredArticle struct {
	Article
	Score float64
}

// HeadlineSet is an ordered sequence of scored articles.
type HeadlineSet []ScoredArticle

// TitleKey returns the case-folded first TitleKeyLength characters of a title.
func TitleKey(title string) string {
	r := []rune(strings.ToLower(strings.TrimSpace(title)))
	if len(r) > TitleKeyLength {
		r = r[:TitleKeyLength]
	}
	return string(r)
}

// SortByScore sorts descending by score in place. Equal scores keep their
// current relative order.
func SortByScore(set HeadlineSet) {
	sort.SliceStable(set, func(i, j int) bool { return set[i].Score > set[j].Score })
}

// Dedup returns a copy of set without entries whose title key was already
// seen. The first occurrence wins.
func Dedup(set HeadlineSet) HeadlineSet {
	seen := make(map[string]struct{}, len(set))
	out := make(HeadlineSet, 0, len(set))
	for _, a := range set {
		k := TitleKey(a.Title)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Limit returns at most n leading entries. A non-positive n returns set unchanged.
func (s HeadlineSet) Limit(n int) HeadlineSet {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// Articles strips scores.
func (s HeadlineSet) Articles() []Article {
	out := make([]Article, len(s))
	for i, a := range s {
		out[i] = a.Article
	}
	return out
}
