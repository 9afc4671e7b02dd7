package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

// DefaultBaseURL is the Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// SourceAlphaVantage names results produced by the Alpha Vantage client.
const SourceAlphaVantage = "alphavantage"

const (
	defaultLimit   = 100
	defaultSort    = "RELEVANCE"
	defaultTimeout = 30 * time.Second

	// windowLayout is the minute-precision format of time_from and time_to.
	windowLayout = "20060102T1504"
)

// ErrUpstream marks a news or quote source that could not deliver data.
var ErrUpstream = errors.New("upstream unavailable")

// errTerminal stops retrying.
var errTerminal = errors.New("request rejected")

// Status describes how a fetch ended.
type Status string

// Fetch statuses.
const (
	StatusOK          Status = "ok"
	StatusLimited     Status = "rate-limited"
	StatusError       Status = "error"
	StatusUnavailable Status = "unavailable"
)

// FetchResult is the outcome of one source call. Articles is empty whenever Err is set.
// Malformed counts records dropped because they could not be decoded.
type FetchResult struct {
	Source    string
	Articles  []news.RawArticle
	Malformed int
	Status    Status
	Note      string
	Err       error
}

// OK reports whether the call succeeded.
func (r FetchResult) OK() bool { return r.Err == nil }

// Query selects news records. A non-zero window is [From, To).
type Query struct {
	Tickers []string
	Topics  []string
	From    time.Time
	To      time.Time
	Limit   int
	Sort    string
}

func (q Query) values() url.Values {
	v := url.Values{"function": {"NEWS_SENTIMENT"}}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	sort := q.Sort
	if sort == "" {
		sort = defaultSort
	}
	v.Set("sort", sort)
	if len(q.Tickers) > 0 {
		v.Set("tickers", strings.Join(q.Tickers, ","))
	}
	if len(q.Topics) > 0 {
		v.Set("topics", strings.Join(q.Topics, ","))
	}
	if !q.From.IsZero() {
		v.Set("time_from", q.From.In(time.Local).Format(windowLayout))
	}
	if !q.To.IsZero() {
		v.Set("time_to", q.To.In(time.Local).Format(windowLayout))
	}
	return v
}

// Client talks to the Alpha Vantage API.
type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	attempts int
	delay    time.Duration
	calls    atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay > 0 {
			c.delay = delay
		}
	}
}

// NewClient creates an Alpha Vantage client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: defaultTimeout},
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsConfigured returns whether an API key is available.
func (c *Client) IsConfigured() bool { return c.apiKey != "" }

// Calls returns the number of HTTP requests sent so far.
func (c *Client) Calls() int64 { return c.calls.Load() }

// apiNotes are the keys Alpha Vantage uses instead of HTTP errors.
type apiNotes struct {
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

func (n apiNotes) check() (Status, string) {
	switch {
	case n.ErrorMessage != "":
		return StatusError, n.ErrorMessage
	case n.Note != "":
		return StatusLimited, n.Note
	case n.Information != "":
		return StatusLimited, n.Information
	}
	return StatusOK, ""
}

type newsResponse struct {
	apiNotes
	Items string             `json:"items"`
	Feed  *[]json.RawMessage `json:"feed"`
}

// decodeFeed decodes records one at a time. Records that fail are counted,
// not returned.
func decodeFeed(records []json.RawMessage) (articles []news.RawArticle, malformed int) {
	articles = make([]news.RawArticle, 0, len(records))
	for i, rec := range records {
		var a news.RawArticle
		if err := json.Unmarshal(rec, &a); err != nil {
			lgr.Printf("[DEBUG] dropping feed record %d: %v", i, err)
			malformed++
			continue
		}
		articles = append(articles, a)
	}
	return articles, malformed
}

// News fetches NEWS_SENTIMENT records. Failures never panic or abort; they
// come back as a FetchResult with Err wrapping ErrUpstream.
func (c *Client) News(ctx context.Context, q Query) FetchResult {
	res := FetchResult{Source: SourceAlphaVantage, Status: StatusUnavailable}
	if !c.IsConfigured() {
		res.Err = fmt.Errorf("%w: no api key", ErrUpstream)
		return res
	}

	var body newsResponse
	if err := c.get(ctx, q.values(), &body); err != nil {
		lgr.Printf("[WARN] news request failed: %v", err)
		res.Err = err
		return res
	}
	if status, msg := body.check(); status != StatusOK {
		lgr.Printf("[WARN] news feed returned %s: %s", status, msg)
		res.Status, res.Note = status, msg
		res.Err = fmt.Errorf("%w: %s", ErrUpstream, msg)
		return res
	}
	if body.Feed == nil {
		res.Status = StatusError
		res.Err = fmt.Errorf("%w: response has no feed", ErrUpstream)
		return res
	}

	res.Status = StatusOK
	res.Articles, res.Malformed = decodeFeed(*body.Feed)
	if res.Malformed > 0 {
		lgr.Printf("[WARN] dropped %d malformed news records", res.Malformed)
	}
	lgr.Printf("[DEBUG] fetched %d raw articles (from=%s, to=%s)", len(res.Articles), q.From.Format(windowLayout), q.To.Format(windowLayout))
	return res
}

// get runs a GET with the given parameters and decodes the JSON body into v.
// Transport errors and 5xx responses are retried with backoff.
func (c *Client) get(ctx context.Context, params url.Values, v any) error {
	params.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()

	var body []byte
	retrier := repeater.NewBackoff(c.attempts, c.delay, repeater.WithMaxDelay(5*time.Second))
	err := retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", errTerminal, err)
		}
		c.calls.Add(1)
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d", errTerminal, resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}, errTerminal)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}
	return nil
}
