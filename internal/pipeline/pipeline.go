// Package pipeline wires collection, filtering, ranking and composition into
// a single content generation run.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/category"
	"github.com/TobiSchelling/MarketBrief/internal/collect"
	"github.com/TobiSchelling/MarketBrief/internal/compose"
	"github.com/TobiSchelling/MarketBrief/internal/config"
	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/fetch"
	"github.com/TobiSchelling/MarketBrief/internal/filter"
	"github.com/TobiSchelling/MarketBrief/internal/headline"
	"github.com/TobiSchelling/MarketBrief/internal/llm"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
	"github.com/TobiSchelling/MarketBrief/internal/score"
	"github.com/TobiSchelling/MarketBrief/internal/sheet"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a generation run.
type Result struct {
	Variant   profile.Variant
	Headlines news.HeadlineSet
	// Coverage is set for headline runs.
	Coverage *headline.Coverage
	Market   content.MarketData
	// Entry is nil for dry runs.
	Entry *content.Entry
	Steps []StepResult
}

// Failed returns the steps that reported an error.
func (r *Result) Failed() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

// EntryStore persists log entries, e.g. the SQLite content log.
type EntryStore interface {
	InsertEntry(e content.Entry) (int64, error)
}

// EntrySink appends log entries to an external log, e.g. the spreadsheet.
type EntrySink interface {
	Save(e content.Entry) (sheet.Result, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the clock used for windows, recency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithProvider replaces the configured LLM provider. A nil provider forces
// fallback content.
func WithProvider(p llm.Provider) Option {
	return func(g *Generator) {
		g.provider = p
		g.providerSet = true
	}
}

// WithSources replaces the configured news sources.
func WithSources(sources ...collect.Source) Option {
	return func(g *Generator) { g.sources = sources }
}

// WithStore persists generated entries to s.
func WithStore(s EntryStore) Option {
	return func(g *Generator) { g.store = s }
}

// WithSheet appends generated entries to s.
func WithSheet(s EntrySink) Option {
	return func(g *Generator) { g.sheet = s }
}

// Generator produces content entries. Each call builds its article batches
// from scratch; nothing is cached between runs.
type Generator struct {
	cfg         *config.Config
	now         func() time.Time
	provider    llm.Provider
	providerSet bool
	sources     []collect.Source

	collector *collect.Collector
	enricher  *fetch.Enricher
	market    *collect.Market
	filter    *filter.Filter
	matcher   *category.Matcher
	scorer    *score.Scorer
	ranker    *score.Scorer
	composer  *compose.Composer

	store EntryStore
	sheet EntrySink
}

// New creates a generator. The configuration is validated first, so a missing
// news API key fails here with config.ErrMissingCredential before any network call.
func New(cfg *config.Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	v, err := cfg.BuildVocabulary()
	if err != nil {
		return nil, err
	}
	fopts, err := cfg.FilterOptions()
	if err != nil {
		return nil, err
	}

	g := &Generator{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}

	client := collect.NewClient(cfg.NewsAPIKey(),
		collect.WithBaseURL(cfg.News.BaseURL),
		collect.WithTimeout(cfg.NewsTimeout()),
		collect.WithRetry(cfg.News.Retries, 0),
	)
	if g.sources == nil {
		g.sources = []collect.Source{client}
		if len(cfg.News.Feeds) > 0 {
			feeds := make([]collect.FeedConfig, len(cfg.News.Feeds))
			for i, f := range cfg.News.Feeds {
				feeds[i] = collect.FeedConfig{URL: f.URL, Name: f.Name}
			}
			g.sources = append(g.sources, collect.NewFeedSource(feeds, 0, cfg.NewsTimeout()))
		}
	}
	g.collector = collect.NewCollector(g.sources...)
	if cfg.News.EnrichSummaries {
		g.enricher = fetch.NewEnricher(cfg.NewsTimeout())
	}
	if cfg.Market.Enabled {
		g.market = collect.NewMarket(client, collect.MarketOptions{
			Benchmark:      cfg.Market.Benchmark,
			Movers:         cfg.Market.Movers,
			MoverThreshold: cfg.Market.MoverThreshold,
		})
	}

	g.filter = filter.New(v, fopts)
	g.matcher = category.NewMatcher(v, fopts.MinTitle, fopts.MaxTitle)
	g.scorer = score.New(v, score.WithClock(g.now))
	g.ranker = score.New(v, score.WithClock(g.now), score.WithCategoryBonus(g.matcher))

	if !g.providerSet {
		g.provider = llm.CreateProvider(cfg.LLMOptions())
	}
	g.composer = compose.NewComposer(g.provider, compose.Options{
		Timeout:     cfg.GenerationTimeout(),
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		Now:         g.now,
	})

	lgr.Printf("[DEBUG] generator ready: %d sources, strictness %s, market %v",
		len(g.sources), g.filter.Strictness(), g.market != nil)
	return g, nil
}

// Generate runs a full generation for the variant and returns the composed entry.
// Upstream failures are recorded in the steps and degrade to fallback content.
func (g *Generator) Generate(ctx context.Context, v profile.Variant) (*Result, error) {
	r, p, err := g.prepare(ctx, v)
	if err != nil {
		return nil, err
	}

	r.Market = g.marketData(ctx, p)
	r.Steps = append(r.Steps, StepResult{Name: "Market", Summary: r.Market.String()})

	comp := g.composer.Compose(ctx, p, r.Headlines, r.Market)
	entry := content.NewEntry(g.now(), p.Label, string(p.Mode), string(p.Style),
		comp.Bundle, comp.Fallback, r.Market, r.Headlines)
	if comp.Fallback {
		entry.FallbackReason = comp.Reason
		r.Steps = append(r.Steps, StepResult{Name: "Compose", Summary: "fallback content: " + comp.Reason})
	} else {
		entry.Provider = g.provider.Name()
		r.Steps = append(r.Steps, StepResult{
			Name:    "Compose",
			Summary: fmt.Sprintf("generated with %s: %d words", entry.Provider, entry.WordCount()),
		})
	}
	r.Entry = &entry
	return r, nil
}

// DryRun collects and ranks headlines for the variant without composing or saving.
func (g *Generator) DryRun(ctx context.Context, v profile.Variant) (*Result, error) {
	r, p, err := g.prepare(ctx, v)
	if err != nil {
		return nil, err
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Compose",
		Summary: fmt.Sprintf("[dry-run] would compose %s content from %d headlines", p.Label, len(r.Headlines)),
	})
	return r, nil
}

// Save writes the entry to the configured store and sheet. The entry ID is set
// when the store accepts it. Returns one step per configured sink.
func (g *Generator) Save(e *content.Entry) []StepResult {
	var steps []StepResult
	if g.store != nil {
		id, err := g.store.InsertEntry(*e)
		if err != nil {
			steps = append(steps, StepResult{Name: "Save", Err: fmt.Errorf("saving entry: %w", err)})
		} else {
			e.ID = id
			steps = append(steps, StepResult{Name: "Save", Summary: fmt.Sprintf("saved entry #%d", id)})
		}
	}
	if g.sheet != nil {
		res, err := g.sheet.Save(*e)
		switch {
		case err != nil:
			steps = append(steps, StepResult{Name: "Sheet", Err: fmt.Errorf("updating spreadsheet: %w", err)})
		case res.Backup:
			steps = append(steps, StepResult{Name: "Sheet", Summary: "spreadsheet unavailable, wrote backup " + res.Path})
		default:
			steps = append(steps, StepResult{Name: "Sheet", Summary: fmt.Sprintf("%s now has %d entries", res.Path, res.Rows)})
		}
	}
	return steps
}

// MajorHeadlines runs the gold and crypto coverage search and merges it with the
// latest general headlines, ranked with the category bonus.
func (g *Generator) MajorHeadlines(ctx context.Context, limit int) (news.HeadlineSet, headline.Coverage, []StepResult) {
	if limit <= 0 {
		limit = g.cfg.Headlines.Limit
	}
	if limit <= 0 {
		limit = profile.MustLookup(profile.Variant{Mode: profile.Headlines, Style: profile.Professional}).Limit
	}
	guarantor := headline.NewGuarantor(g, g.matcher, g.cfg.HeadlineWindows(), g.now)
	cov := guarantor.Guarantee(ctx)

	general, step := g.rank(ctx, g.query(time.Time{}, time.Time{}), g.ranker)
	step.Name = "Collect"
	steps := []StepResult{step}

	set := headline.Aggregate(cov.Articles, general, limit)
	steps = append(steps, StepResult{
		Name: "Guarantee",
		Summary: fmt.Sprintf("gold=%v crypto=%v after %d windows, %d headlines",
			cov.Gold, cov.Crypto, cov.WindowsSearched, len(set)),
	})
	return set, cov, steps
}

// Candidates implements headline.CandidateSource over the configured sources.
// Articles dated outside [from, to) are dropped; undated ones are kept.
func (g *Generator) Candidates(ctx context.Context, from, to time.Time) news.HeadlineSet {
	set, step := g.rank(ctx, g.query(from, to), g.ranker)
	if step.Err != nil {
		lgr.Printf("[WARN] candidate search %s..%s: %v", from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04"), step.Err)
	}
	out := make(news.HeadlineSet, 0, len(set))
	for _, a := range set {
		if t, ok := a.PublishedAt(); ok && !collect.InWindow(t, from, to) {
			continue
		}
		out = append(out, a)
	}
	if dropped := len(set) - len(out); dropped > 0 {
		lgr.Printf("[DEBUG] dropped %d candidates outside %s..%s", dropped, from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04"))
	}
	return out
}

// Breakdown explains the headline score of a.
func (g *Generator) Breakdown(a news.Article) score.Breakdown {
	return g.ranker.Breakdown(a)
}

func (g *Generator) prepare(ctx context.Context, v profile.Variant) (*Result, profile.Profile, error) {
	p, err := profile.Lookup(v)
	if err != nil {
		return nil, profile.Profile{}, err
	}
	lgr.Printf("[INFO] generating %s (%s)", p.Label, v)
	r := &Result{Variant: v}

	if p.Guaranteed {
		limit := g.cfg.Headlines.Limit
		if limit <= 0 {
			limit = p.Limit
		}
		set, cov, steps := g.MajorHeadlines(ctx, limit)
		r.Headlines, r.Coverage = set, &cov
		r.Steps = append(r.Steps, steps...)
		return r, p, nil
	}

	var from, to time.Time
	if p.LookbackDays > 0 {
		to = g.now()
		from = to.AddDate(0, 0, -p.LookbackDays)
	}
	set, step := g.rank(ctx, g.query(from, to), g.scorer)
	r.Steps = append(r.Steps, step)
	r.Headlines = set.Limit(p.Limit)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("selected %d of %d headlines", len(r.Headlines), len(set)),
	})
	return r, p, nil
}

func (g *Generator) query(from, to time.Time) collect.Query {
	return collect.Query{From: from, To: to, Limit: g.cfg.News.Limit, Sort: g.cfg.News.Sort}
}

// rank collects, normalizes, filters and scores. The returned set is sorted by
// score and deduplicated by title.
func (g *Generator) rank(ctx context.Context, q collect.Query, s *score.Scorer) (news.HeadlineSet, StepResult) {
	step := StepResult{Name: "Collect"}
	col := g.collector.Collect(ctx, q)
	if err := col.Err(); err != nil {
		step.Err = err
	}
	for _, f := range col.Failed() {
		lgr.Printf("[WARN] %s %s: %v", f.Source, f.Status, f.Err)
	}

	enriched := ""
	if g.enricher != nil && len(col.Articles) > 0 {
		er := g.enricher.Enrich(ctx, col.Articles)
		enriched = fmt.Sprintf(", %d summaries enriched", er.Fetched)
	}

	articles, dropped := news.NormalizeAll(col.Articles)
	dropped += col.Malformed
	admitted, rejected := g.filter.Apply(articles)
	set := news.Dedup(sortedByScore(s.ScoreAll(admitted)))

	step.Summary = fmt.Sprintf("%d records, %d malformed, %d admitted%s%s",
		len(col.Articles)+col.Malformed, dropped, len(admitted), rejectedSummary(rejected), enriched)
	lgr.Printf("[DEBUG] %s", step.Summary)
	return set, step
}

func (g *Generator) marketData(ctx context.Context, p profile.Profile) content.MarketData {
	if g.market == nil {
		return content.Unavailable()
	}
	return g.market.ForExtra(ctx, p.Extra)
}

func sortedByScore(set news.HeadlineSet) news.HeadlineSet {
	news.SortByScore(set)
	return set
}

func rejectedSummary(rejected map[filter.Rule]int) string {
	if len(rejected) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rejected))
	for rule, n := range rejected {
		parts = append(parts, fmt.Sprintf("%s %d", rule, n))
	}
	sort.Strings(parts)
	return " (rejected: " + strings.Join(parts, ", ") + ")"
}
