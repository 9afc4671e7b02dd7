// Package compose turns ranked headlines into a content bundle, through the
// language model when one is available and through a deterministic fallback
// otherwise.
package compose

import (
	"context"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/TobiSchelling/MarketBrief/internal/content"
	"github.com/TobiSchelling/MarketBrief/internal/llm"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
)

// Generation defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTokens   = 1200
	DefaultTemperature = 0.3
)

// Result is a composed bundle. Reason explains why the fallback was used.
type Result struct {
	Bundle   content.Bundle
	Fallback bool
	Reason   string
}

// Options tune the Composer.
type Options struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
	Now         func() time.Time
}

// Composer composes content bundles.
type Composer struct {
	provider llm.Provider
	opts     Options
}

// NewComposer creates a composer. A nil provider always yields fallback content.
func NewComposer(provider llm.Provider, opts Options) *Composer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{provider: provider, opts: opts}
}

// Compose always returns a renderable bundle.
func (c *Composer) Compose(ctx context.Context, p profile.Profile, set news.HeadlineSet, market content.MarketData) Result {
	date := c.opts.Now()
	fallback := func(reason string) Result {
		lgr.Printf("[INFO] using fallback content for %s: %s", p.Variant, reason)
		return Result{Bundle: Fallback(p, date, set), Fallback: true, Reason: reason}
	}

	if len(set) == 0 {
		return fallback("no headlines")
	}
	if c.provider == nil {
		return fallback("no LLM provider")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	text, err := c.provider.Generate(ctx, llm.Request{
		System:      p.SystemPrompt,
		Prompt:      UserPrompt(p, date, set, market),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		JSON:        true,
	})
	if err != nil {
		lgr.Printf("[WARN] generation with %s failed: %v", c.provider.Name(), err)
		return fallback("generation failed: " + err.Error())
	}

	var b content.Bundle
	if err := llm.DecodeJSON(text, &b); err != nil {
		lgr.Printf("[WARN] unparseable generation output: %v", err)
		return fallback(err.Error())
	}
	b = trimBundle(b)

	if err := Validate(b, p); err != nil {
		lgr.Printf("[WARN] %v", err)
		return fallback(err.Error())
	}
	lgr.Printf("[INFO] generated %s content with %s", p.Variant, c.provider.Name())
	return Result{Bundle: b}
}

func trimBundle(b content.Bundle) content.Bundle {
	return content.Bundle{
		Script:       strings.TrimSpace(b.Script),
		SocialPost:   strings.TrimSpace(b.SocialPost),
		MotionScript: strings.TrimSpace(b.MotionScript),
		VideoCaption: strings.TrimSpace(b.VideoCaption),
		EpisodeTitle: strings.TrimSpace(b.EpisodeTitle),
	}
}
