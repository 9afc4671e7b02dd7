package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

// SourceFeeds names results produced by the RSS/Atom source.
const SourceFeeds = "feeds"

const defaultMaxPerFeed = 20

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedSource reads RSS/Atom feeds as raw news records. Feed records carry
// no sentiment and no tickers.
type FeedSource struct {
	feeds      []FeedConfig
	maxPerFeed int
	timeout    time.Duration
}

// NewFeedSource creates a feed source. maxPerFeed <= 0 uses the default of 20.
func NewFeedSource(feeds []FeedConfig, maxPerFeed int, timeout time.Duration) *FeedSource {
	if maxPerFeed <= 0 {
		maxPerFeed = defaultMaxPerFeed
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &FeedSource{feeds: feeds, maxPerFeed: maxPerFeed, timeout: timeout}
}

// Fetch parses every feed and keeps entries inside the query window.
// Undated entries are kept. Only From and To of the query apply.
func (fs *FeedSource) Fetch(ctx context.Context, q Query) FetchResult {
	res := FetchResult{Source: SourceFeeds, Status: StatusOK}
	if len(fs.feeds) == 0 {
		return res
	}

	parser := gofeed.NewParser()
	var failed []string
	for _, fc := range fs.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		entries, err := fs.parseFeed(ctx, parser, fc.URL, name, q.From, q.To)
		if err != nil {
			lgr.Printf("[WARN] failed to parse feed %s: %v", fc.URL, err)
			failed = append(failed, name)
			continue
		}
		res.Articles = append(res.Articles, entries...)
		lgr.Printf("[DEBUG] parsed %d entries from %s", len(entries), name)
	}

	if len(failed) == 0 {
		return res
	}
	res.Note = fmt.Sprintf("%d of %d feeds failed: %s", len(failed), len(fs.feeds), strings.Join(failed, ", "))
	if len(failed) == len(fs.feeds) {
		res.Status = StatusUnavailable
		res.Err = fmt.Errorf("%w: %s", ErrUpstream, res.Note)
	}
	return res
}

func (fs *FeedSource) parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL, sourceName string, from, to time.Time) ([]news.RawArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, fs.timeout)
	defer cancel()

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []news.RawArticle
	for _, item := range feed.Items {
		if len(entries) >= fs.maxPerFeed {
			break
		}
		published := itemTime(item)
		if published != nil && !InWindow(*published, from, to) {
			continue
		}
		if entry, ok := parseItem(item, sourceName, published); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

func parseItem(item *gofeed.Item, source string, published *time.Time) (news.RawArticle, bool) {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if itemURL == "" || title == "" {
		return news.RawArticle{}, false
	}

	var summary string
	if item.Description != "" {
		summary = stripHTML(item.Description)
	} else if item.Content != "" {
		summary = stripHTML(item.Content)
	}

	var ts string
	if published != nil {
		ts = published.In(time.Local).Format(news.TimeLayout)
	}

	return news.RawArticle{
		Title:                 title,
		URL:                   itemURL,
		Summary:               summary,
		Source:                source,
		TimePublished:         ts,
		OverallSentimentLabel: string(news.Neutral),
	}, true
}

// InWindow reports whether t lies in [from, to). Zero bounds are open.
func InWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			result.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	s := strings.NewReplacer(
		"&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'",
	).Replace(result.String())
	return strings.Join(strings.Fields(s), " ")
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	name := host
	if parts := strings.Split(host, "."); len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
