// Package collect gathers raw news records and market quotes from external sources.
package collect

import (
	"context"
	"errors"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/news"
)

// Source delivers raw news records for a query.
type Source interface {
	Fetch(ctx context.Context, q Query) FetchResult
}

// Fetch implements Source for the news API.
func (c *Client) Fetch(ctx context.Context, q Query) FetchResult { return c.News(ctx, q) }

// Collection holds the merged records of one collection run.
type Collection struct {
	Articles  []news.RawArticle
	Results   []FetchResult
	Malformed int
}

// Err is nil when at least one source succeeded. Otherwise it joins every failure.
func (c Collection) Err() error {
	var errs []error
	for _, r := range c.Results {
		if r.OK() {
			return nil
		}
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}

// Failed returns the results of sources that could not deliver.
func (c Collection) Failed() []FetchResult {
	var out []FetchResult
	for _, r := range c.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Collector merges several sources into one record list.
type Collector struct {
	sources []Source
}

// NewCollector creates a collector over the given sources, queried in order.
func NewCollector(sources ...Source) *Collector {
	return &Collector{sources: sources}
}

// Collect queries every source. Records with a URL already seen are dropped,
// so the first source wins.
func (c *Collector) Collect(ctx context.Context, q Query) Collection {
	var col Collection
	seen := make(map[string]struct{})
	for _, src := range c.sources {
		res := src.Fetch(ctx, q)
		col.Results = append(col.Results, res)
		col.Malformed += res.Malformed
		dups := 0
		for _, a := range res.Articles {
			if a.URL != "" {
				if _, ok := seen[a.URL]; ok {
					dups++
					continue
				}
				seen[a.URL] = struct{}{}
			}
			col.Articles = append(col.Articles, a)
		}
		if dups > 0 {
			lgr.Printf("[DEBUG] dropped %d duplicate records from %s", dups, res.Source)
		}
	}
	lgr.Printf("[INFO] collected %d records from %d sources", len(col.Articles), len(c.sources))
	return col
}
