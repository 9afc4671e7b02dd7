// Package fetch fills empty record summaries from the article page.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	readability "github.com/go-shiori/go-readability"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

// SummaryLength is the number of characters of extracted text kept as summary.
const SummaryLength = 300

const minTextLength = 100

// Result holds the results of an enrichment run.
type Result struct {
	Fetched           int
	AlreadyHadSummary int
	Failed            int
}

// Enricher fetches article pages via HTTP + readability extraction.
type Enricher struct {
	client    *http.Client
	userAgent string
}

// NewEnricher creates a new enricher.
func NewEnricher(timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Enricher{
		userAgent: "MarketBrief/1.0 (news digest)",
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich fills empty summaries in place. After an HTTP error from a domain
// the remaining records of that domain are skipped.
func (e *Enricher) Enrich(ctx context.Context, records []news.RawArticle) Result {
	var result Result
	failedDomains := make(map[string]struct{})

	for i := range records {
		rec := &records[i]
		if strings.TrimSpace(rec.Summary) != "" {
			result.AlreadyHadSummary++
			continue
		}
		if ctx.Err() != nil {
			result.Failed++
			continue
		}

		domain := ""
		if u, err := url.Parse(rec.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if domain == "" {
			result.Failed++
			continue
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := e.extract(ctx, rec.URL)
		if httpErr != nil {
			result.Failed++
			failedDomains[domain] = struct{}{}
			lgr.Printf("[WARN] HTTP error for %s, skipping remaining from %s", rec.URL, domain)
			continue
		}
		if text == "" {
			result.Failed++
			lgr.Printf("[DEBUG] no extractable content from %s", rec.URL)
			continue
		}

		rec.Summary = preview(text, SummaryLength)
		result.Fetched++
		lgr.Printf("[DEBUG] fetched summary for: %s", rec.Title)
	}

	if result.Fetched+result.Failed > 0 {
		lgr.Printf("[INFO] summary enrichment: %d fetched, %d failed", result.Fetched, result.Failed)
	}
	return result
}

// extract returns the readable text of a page. Only HTTP status failures are
// reported as errors; connection and parse problems yield empty text.
func (e *Enricher) extract(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(io.LimitReader(resp.Body, 5<<20), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) > minTextLength {
		return text, nil
	}
	return "", nil
}

func preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
