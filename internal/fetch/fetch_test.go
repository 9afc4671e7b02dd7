package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

var articleBody = strings.Repeat("Gold prices rose sharply on Thursday as investors sought safety amid renewed volatility in equity markets. ", 8)

func articlePage() string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>Gold rally</title></head>
<body><nav>Home | Markets</nav><article><h1>Gold rally</h1><p>%s</p><p>%s</p></article></body></html>`,
		articleBody, articleBody)
}

func TestEnrich(t *testing.T) {
	var blockedCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "MarketBrief")
		fmt.Fprint(w, articlePage())
	})
	mux.HandleFunc("/thin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>short</p></body></html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		blockedCalls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	records := []news.RawArticle{
		{Title: "has summary", URL: server.URL + "/ok", Summary: "already here"},
		{Title: "needs summary", URL: server.URL + "/ok"},
		{Title: "thin page", URL: server.URL + "/thin"},
		{Title: "blocked 1", URL: blocked.URL + "/a"},
		{Title: "blocked 2", URL: blocked.URL + "/b"},
		{Title: "no url"},
	}

	res := NewEnricher(5*time.Second).Enrich(context.Background(), records)

	assert.Equal(t, 1, res.AlreadyHadSummary)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 4, res.Failed)
	assert.Equal(t, int32(1), blockedCalls.Load(), "second record of a failed domain is skipped")

	assert.Equal(t, "already here", records[0].Summary)
	require.NotEmpty(t, records[1].Summary)
	assert.LessOrEqual(t, len([]rune(records[1].Summary)), SummaryLength)
	assert.Contains(t, records[1].Summary, "Gold prices rose sharply")
	assert.Empty(t, records[2].Summary)
	assert.Empty(t, records[3].Summary)
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []news.RawArticle{{Title: "x", URL: "http://127.0.0.1:1/x"}}
	res := NewEnricher(time.Second).Enrich(ctx, records)
	assert.Equal(t, 1, res.Failed)
	assert.Empty(t, records[0].Summary)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ünï", preview("ünïcode", 3))
}
