package collect

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
)

// Market data defaults.
const (
	DefaultBenchmark      = "SPY"
	DefaultMoverThreshold = 1.5
	weekSessions          = 5
)

// DefaultMovers are the symbols checked for large daily moves.
var DefaultMovers = []string{"AAPL", "MSFT", "GOOGL", "AMZN"}

// MarketOptions configures the market data reader.
type MarketOptions struct {
	Benchmark      string
	Movers         []string
	MoverThreshold float64
}

// Market reads quotes through the Alpha Vantage client.
type Market struct {
	client *Client
	opts   MarketOptions
}

// NewMarket creates a market data reader with defaults for empty options.
func NewMarket(c *Client, opts MarketOptions) *Market {
	if opts.Benchmark == "" {
		opts.Benchmark = DefaultBenchmark
	}
	if len(opts.Movers) == 0 {
		opts.Movers = DefaultMovers
	}
	if opts.MoverThreshold <= 0 {
		opts.MoverThreshold = DefaultMoverThreshold
	}
	return &Market{client: c, opts: opts}
}

// ForExtra returns the market data a profile asks for.
func (m *Market) ForExtra(ctx context.Context, extra profile.Extra) content.MarketData {
	switch extra {
	case profile.ExtraSnapshot:
		return m.Snapshot(ctx)
	case profile.ExtraMovers:
		return m.Movers(ctx)
	case profile.ExtraWeeklySummary:
		return m.WeeklySummary(ctx)
	}
	return content.Unavailable()
}

// Snapshot returns the benchmark quote.
func (m *Market) Snapshot(ctx context.Context) content.MarketData {
	q, err := m.Quote(ctx, m.opts.Benchmark)
	if err != nil {
		lgr.Printf("[WARN] market snapshot: %v", err)
		return content.Unavailable()
	}
	return content.MarketData{Status: content.StatusConnected, Snapshot: &q}
}

// Movers returns the configured symbols whose absolute change exceeds the threshold,
// largest move first.
func (m *Market) Movers(ctx context.Context) content.MarketData {
	var movers []content.Quote
	failed := 0
	for _, sym := range m.opts.Movers {
		q, err := m.Quote(ctx, sym)
		if err != nil {
			lgr.Printf("[WARN] quote for %s: %v", sym, err)
			failed++
			continue
		}
		if math.Abs(q.ChangePercent) > m.opts.MoverThreshold {
			movers = append(movers, q)
		}
	}
	if failed == len(m.opts.Movers) {
		return content.Unavailable()
	}
	sort.SliceStable(movers, func(i, j int) bool {
		return math.Abs(movers[i].ChangePercent) > math.Abs(movers[j].ChangePercent)
	})
	return content.MarketData{Status: content.StatusConnected, Movers: movers}
}

// WeeklySummary returns the benchmark's change over the last five sessions.
func (m *Market) WeeklySummary(ctx context.Context) content.MarketData {
	w, err := m.Weekly(ctx, m.opts.Benchmark)
	if err != nil {
		lgr.Printf("[WARN] weekly summary: %v", err)
		return content.Unavailable()
	}
	return content.MarketData{Status: content.StatusConnected, Weekly: &w}
}

type quoteResponse struct {
	apiNotes
	Quote map[string]string `json:"Global Quote"`
}

// Quote reads the GLOBAL_QUOTE of a symbol.
func (m *Market) Quote(ctx context.Context, symbol string) (content.Quote, error) {
	if !m.client.IsConfigured() {
		return content.Quote{}, fmt.Errorf("%w: no api key", ErrUpstream)
	}
	var body quoteResponse
	params := url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}
	if err := m.client.get(ctx, params, &body); err != nil {
		return content.Quote{}, err
	}
	if status, msg := body.check(); status != StatusOK {
		return content.Quote{}, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	if len(body.Quote) == 0 {
		return content.Quote{}, fmt.Errorf("%w: no quote for %s", ErrUpstream, symbol)
	}

	price, err := parseNumber(body.Quote["05. price"])
	if err != nil {
		return content.Quote{}, fmt.Errorf("parsing price of %s: %w", symbol, err)
	}
	change, err := parseNumber(body.Quote["10. change percent"])
	if err != nil {
		return content.Quote{}, fmt.Errorf("parsing change of %s: %w", symbol, err)
	}
	return content.Quote{Symbol: symbol, Price: price, ChangePercent: change}, nil
}

type dailyResponse struct {
	apiNotes
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

// Weekly reads TIME_SERIES_DAILY and summarizes the last five sessions.
func (m *Market) Weekly(ctx context.Context, symbol string) (content.WeeklySummary, error) {
	if !m.client.IsConfigured() {
		return content.WeeklySummary{}, fmt.Errorf("%w: no api key", ErrUpstream)
	}
	var body dailyResponse
	params := url.Values{"function": {"TIME_SERIES_DAILY"}, "symbol": {symbol}, "outputsize": {"compact"}}
	if err := m.client.get(ctx, params, &body); err != nil {
		return content.WeeklySummary{}, err
	}
	if status, msg := body.check(); status != StatusOK {
		return content.WeeklySummary{}, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	if len(body.Series) < weekSessions {
		return content.WeeklySummary{}, fmt.Errorf("%w: only %d sessions for %s", ErrUpstream, len(body.Series), symbol)
	}

	days := make([]string, 0, len(body.Series))
	for d := range body.Series {
		days = append(days, d)
	}
	sort.Strings(days)
	days = days[len(days)-weekSessions:]

	w := content.WeeklySummary{Symbol: symbol, Low: math.MaxFloat64}
	var first, last float64
	for i, d := range days {
		bar := body.Series[d]
		high, err := parseNumber(bar["2. high"])
		if err != nil {
			return content.WeeklySummary{}, fmt.Errorf("parsing high of %s on %s: %w", symbol, d, err)
		}
		low, err := parseNumber(bar["3. low"])
		if err != nil {
			return content.WeeklySummary{}, fmt.Errorf("parsing low of %s on %s: %w", symbol, d, err)
		}
		closing, err := parseNumber(bar["4. close"])
		if err != nil {
			return content.WeeklySummary{}, fmt.Errorf("parsing close of %s on %s: %w", symbol, d, err)
		}
		w.High = math.Max(w.High, high)
		w.Low = math.Min(w.Low, low)
		if i == 0 {
			first = closing
		}
		last = closing
	}
	if first == 0 {
		return content.WeeklySummary{}, fmt.Errorf("%w: zero close for %s", ErrUpstream, symbol)
	}
	w.ChangePercent = (last - first) / first * 100
	return w, nil
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
}
