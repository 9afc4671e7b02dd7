package news

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scored(title string, score float64) ScoredArticle {
	return ScoredArticle{Article: Article{Title: title}, Score: score}
}

func TestTitleKey(t *testing.T) {
	long := strings.Repeat("A", 70)
	assert.Len(t, []rune(TitleKey(long)), TitleKeyLength)
	assert.Equal(t, strings.Repeat("a", TitleKeyLength), TitleKey(long))
	assert.Equal(t, "gold rallies", TitleKey("  Gold Rallies "))
}

func TestSortByScoreIsStable(t *testing.T) {
	set := HeadlineSet{scored("a", 10), scored("b", 30), scored("c", 10), scored("d", 30)}
	SortByScore(set)

	var titles []string
	for _, a := range set {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, titles)
}

func TestDedupFirstWins(t *testing.T) {
	prefix := strings.Repeat("Bitcoin surges past record as ETF inflows accelerate ", 2)
	set := HeadlineSet{
		scored(prefix+"today", 50),
		scored(strings.ToUpper(prefix)+"again", 90),
		scored("Different story", 10),
	}
	out := Dedup(set)
	assert.Len(t, out, 2)
	assert.Equal(t, 50.0, out[0].Score)
	assert.Equal(t, "Different story", out[1].Title)
}

func TestLimit(t *testing.T) {
	set := HeadlineSet{scored("a", 1), scored("b", 2), scored("c", 3)}
	assert.Len(t, set.Limit(2), 2)
	assert.Len(t, set.Limit(0), 3)
	assert.Len(t, set.Limit(10), 3)
}
