package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermsShortWordsMatchWholeTokens(t *testing.T) {
	terms := Terms{"fed", "ai", "eth"}

	assert.True(t, terms.Any("The Fed signals a pause"))
	assert.True(t, terms.Any("AI spending lifts chipmakers"))
	assert.True(t, terms.Any("ETH/USD breaks resistance"))

	assert.False(t, terms.Any("Retailers feel federal pressure"), "fed inside federal")
	assert.False(t, terms.Any("Said the chairman"), "ai inside said")
	assert.False(t, terms.Any("Ethics review ahead"), "eth inside ethics")
}

func TestTermsPhrasesMatchSubstrings(t *testing.T) {
	terms := Terms{"stock split", "federal reserve"}
	term, ok := terms.Match("Company Announces 10-for-1 Stock Split")
	require.True(t, ok)
	assert.Equal(t, "stock split", term)
	assert.True(t, terms.Any("the Federal Reserve's decision"))
}

func TestTermsCount(t *testing.T) {
	terms := Terms{"earnings", "revenue", "earnings", "fed"}
	assert.Equal(t, 3, terms.Count("Fed watch: earnings beat and revenue jumps, earnings again"))
	assert.Equal(t, 0, terms.Count(""))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("Gold hits record", "gold"))
	assert.False(t, ContainsWord("Goldman Sachs raises target", "gold"))
}

func TestDefaultIsIndependentCopy(t *testing.T) {
	a := Default()
	a.ExclusionTerms[0] = "changed"
	b := Default()
	assert.NotEqual(t, "changed", b.ExclusionTerms[0])
	assert.True(t, b.MajorTickers.Has("aapl"))
}

func TestWithOverrides(t *testing.T) {
	base := Default()
	v, err := base.WithOverrides(map[string][]string{
		"premium_sources": {"  Example Wire "},
		"major_tickers":   {"abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, Terms{"example wire"}, v.PremiumSources)
	assert.Equal(t, Terms{"ABC"}, v.MajorTickers)
	assert.NotEqual(t, v.PremiumSources, base.PremiumSources)

	_, err = base.WithOverrides(map[string][]string{"nope": {"x"}})
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "exclusion_terms")
	assert.Contains(t, names, "headline_spam")
	assert.IsIncreasing(t, names)
}
