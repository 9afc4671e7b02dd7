package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/MarketBrief/internal/config"
	"github.com/TobiSchelling/MarketBrief/internal/database"
	"github.com/TobiSchelling/MarketBrief/internal/news"
	"github.com/TobiSchelling/MarketBrief/internal/pipeline"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
	"github.com/TobiSchelling/MarketBrief/internal/server"
	"github.com/TobiSchelling/MarketBrief/internal/sheet"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "marketbrief",
	Short:   "Short-form market news content",
	Long:    "MarketBrief ranks financial news and turns the top stories into narration scripts, social posts and captions.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLog(verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		var secrets []string
		for _, s := range []string{cfg.NewsAPIKey(), cfg.OpenAIKey()} {
			if s != "" {
				secrets = append(secrets, s)
			}
		}
		setupLog(verbose || strings.EqualFold(cfg.Logging.Level, "debug"), secrets...)
		lgr.Printf("[DEBUG] loaded config from %s", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(headlinesCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLog routes lgr and the stdlib logger to stderr so command output stays clean.
func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(os.Stderr), lgr.Err(os.Stderr)}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.CallerFile, lgr.Msec, lgr.LevelBraces)
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("marketbrief", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/marketbrief/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set ALPHA_VANTAGE_API_KEY (or add it to a .env file) and edit the LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show content log and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(time.Now())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Today: %s (%s mode)\n\n", time.Now().Format("2006-01-02"), profile.ModeForDay(time.Now().Weekday()))
		fmt.Println("Content log:")
		fmt.Printf("  Total entries: %d\n", stats.TotalEntries)
		fmt.Printf("  Generated: %d\n", stats.GeneratedEntries)
		fmt.Printf("  Fallback: %d\n", stats.FallbackEntries)
		fmt.Printf("  This week: %d\n", stats.EntriesThisWeek)
		fmt.Printf("  Most active day: %s\n", stats.MostActiveDay)
		fmt.Printf("  Average script length: %.0f characters\n", stats.AvgScriptLength)
		fmt.Printf("  Total words: %d\n", stats.TotalWords)
		if stats.LastGeneratedAt != "" {
			fmt.Printf("  Last generated: %s\n", stats.LastGeneratedAt)
		}

		fmt.Println("\nConfiguration:")
		fmt.Printf("  News API key (%s): %s\n", cfg.News.APIKeyEnv, presence(cfg.NewsAPIKey()))
		fmt.Printf("  LLM provider: %s\n", cfg.Generation.Provider)
		fmt.Printf("  Filter strictness: %s\n", cfg.Filter.Strictness)
		fmt.Printf("  Extra feeds: %d\n", len(cfg.News.Feeds))
		if cfg.Output.SpreadsheetEnabled {
			fmt.Printf("  Spreadsheet: %s\n", cfg.SpreadsheetPath())
		}
		fmt.Printf("  Database: %s\n", db.Path())
		return nil
	},
}

// --- generate command ---

var (
	genMode  string
	genStyle string
	genSave  bool
	noSheet  bool
	dryRun   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate content: collect -> filter -> score -> compose",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := resolveVariant(genMode, genStyle, time.Now())
		if err != nil {
			return err
		}

		var opts []pipeline.Option
		if genSave && !dryRun {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			opts = append(opts, pipeline.WithStore(db))
			if cfg.Output.SpreadsheetEnabled && !noSheet {
				opts = append(opts, pipeline.WithSheet(sheet.New(cfg.SpreadsheetPath())))
			}
		}

		gen, err := pipeline.New(cfg, opts...)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var result *pipeline.Result
		if dryRun {
			result, err = gen.DryRun(ctx, v)
		} else {
			result, err = gen.Generate(ctx, v)
		}
		if err != nil {
			return err
		}
		if result.Entry != nil && genSave {
			result.Steps = append(result.Steps, gen.Save(result.Entry)...)
		}

		printSteps(result.Steps)
		if result.Entry != nil {
			printEntry(result)
		} else {
			printHeadlines(result.Headlines, nil)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genMode, "mode", "m", "", "Mode: monday, wednesday, friday, daily or headlines (default: from weekday)")
	generateCmd.Flags().StringVarP(&genStyle, "style", "s", "", "Style: professional or chill (default: from config)")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "Save the entry to the content log")
	generateCmd.Flags().BoolVar(&noSheet, "no-sheet", false, "Do not update the spreadsheet when saving")
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Rank headlines without composing or saving")
}

// resolveVariant picks the mode from the weekday and the style from config
// when flags are empty.
func resolveVariant(mode, style string, now time.Time) (profile.Variant, error) {
	var v profile.Variant
	var err error
	if mode == "" {
		v.Mode = profile.ModeForDay(now.Weekday())
	} else if v.Mode, err = profile.ParseMode(mode); err != nil {
		return v, err
	}
	if style == "" {
		style = cfg.Generation.Style
	}
	if v.Style, err = profile.ParseStyle(style); err != nil {
		return v, err
	}
	return v, nil
}

// --- headlines command ---

var headlinesLimit int

var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Show major headlines with gold and crypto coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		set, cov, steps := gen.MajorHeadlines(ctx, headlinesLimit)
		printSteps(steps)
		if !cov.Complete() {
			fmt.Printf("\nCoverage incomplete: gold=%v crypto=%v\n", cov.Gold, cov.Crypto)
		}
		printHeadlines(set, gen)
		return nil
	},
}

func init() {
	headlinesCmd.Flags().IntVarP(&headlinesLimit, "limit", "n", 0, "Number of headlines (default: from config)")
}

// --- log command ---

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List recent content log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.RecentEntries(logLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries yet. Create one with: marketbrief generate --save")
			return nil
		}

		for _, e := range entries {
			quality := "generated"
			if e.Fallback {
				quality = "fallback"
			}
			fmt.Printf("  [%d] %s  %-20s %-12s %-9s %s\n", e.ID, e.GeneratedAt, e.ContentType, e.Style, quality, e.EpisodeTitle)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 10, "Number of entries")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		opts := []pipeline.Option{pipeline.WithStore(db)}
		if cfg.Output.SpreadsheetEnabled {
			opts = append(opts, pipeline.WithSheet(sheet.New(cfg.SpreadsheetPath())))
		}
		var gen server.Generator
		g, err := pipeline.New(cfg, opts...)
		switch {
		case errors.Is(err, config.ErrMissingCredential):
			lgr.Printf("[WARN] %v; serving the log read-only", err)
		case err != nil:
			return err
		default:
			gen = g
		}

		style, _ := profile.ParseStyle(cfg.Generation.Style)
		srv, err := server.New(db, gen, style)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default: from config)")
}

func printSteps(steps []pipeline.StepResult) {
	for i, step := range steps {
		fmt.Printf("Step %d/%d: %s\n", i+1, len(steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

func printEntry(r *pipeline.Result) {
	e := r.Entry
	fmt.Printf("\n%s (%s)\n", e.EpisodeTitle, r.Variant)
	fmt.Printf("Quality: %s, %d words, %d sources\n", e.QualityScore(), e.WordCount(), e.NewsCount)
	fmt.Printf("Market: %s\n", e.MarketData)
	fmt.Println("\nScript:")
	fmt.Println(e.Script)
	fmt.Println("\nSocial post:")
	fmt.Println(e.SocialPost)
	fmt.Println("\nMotion script:")
	fmt.Println(e.MotionScript)
	fmt.Println("\nCaption:")
	fmt.Println(e.VideoCaption)
	if e.ID != 0 {
		fmt.Printf("\nSaved as entry #%d. Run 'marketbrief serve' to view it.\n", e.ID)
	}
}

// printHeadlines lists a headline set. A non-nil explainer adds the score breakdown.
func printHeadlines(set news.HeadlineSet, explainer *pipeline.Generator) {
	if len(set) == 0 {
		fmt.Println("\nNo headlines passed the filter.")
		return
	}
	fmt.Println()
	for i, a := range set {
		fmt.Printf("%2d. [%6.1f] %s\n", i+1, a.Score, a.Title)
		meta := []string{a.Source, string(a.Sentiment)}
		if len(a.Tickers) > 0 {
			meta = append(meta, strings.Join(a.Tickers, ", "))
		}
		fmt.Printf("    %s\n", strings.Join(meta, " · "))
		if explainer != nil {
			b := explainer.Breakdown(a.Article)
			fmt.Printf("    %s: source %.0f, impact %.0f+%.0f, tickers %.0f, sentiment %.0f, recency %.0f, title %.0f, category %.0f\n",
				b.Tier, b.Source, b.HighImpact, b.MediumImpact, b.Tickers, b.Sentiment, b.Recency, b.TitleQuality, b.Category)
		}
	}
}

func presence(s string) string {
	if s == "" {
		return "missing"
	}
	return "set"
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}
