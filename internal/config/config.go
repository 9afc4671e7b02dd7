package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/MarketBrief/internal/filter"
	"github.com/TobiSchelling/MarketBrief/internal/headline"
	"github.com/TobiSchelling/MarketBrief/internal/llm"
	"github.com/TobiSchelling/MarketBrief/internal/profile"
	"github.com/TobiSchelling/MarketBrief/internal/vocab"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrMissingCredential is returned when the news API key is not available.
// Nothing works without it, so callers treat it as fatal.
var ErrMissingCredential = errors.New("missing required credential")

type Config struct {
	News       News                `yaml:"news"`
	Market     Market              `yaml:"market"`
	Generation Generation          `yaml:"generation"`
	Filter     Filter              `yaml:"filter"`
	Headlines  Headlines           `yaml:"headlines"`
	Vocabulary map[string][]string `yaml:"vocabulary"`
	Output     Output              `yaml:"output"`
	Server     Server              `yaml:"server"`
	Logging    Logging             `yaml:"logging"`
}

type News struct {
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	Limit           int    `yaml:"limit"`
	Sort            string `yaml:"sort"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	Retries         int    `yaml:"retries"`
	Feeds           []Feed `yaml:"feeds"`
	EnrichSummaries bool   `yaml:"enrich_summaries"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Market struct {
	Enabled        bool     `yaml:"enabled"`
	Benchmark      string   `yaml:"benchmark"`
	Movers         []string `yaml:"movers"`
	MoverThreshold float64  `yaml:"mover_threshold"`
}

type Generation struct {
	Provider       string  `yaml:"provider"`
	Style          string  `yaml:"style"`
	OllamaModel    string  `yaml:"ollama_model"`
	OllamaURL      string  `yaml:"ollama_url"`
	OpenAIModel    string  `yaml:"openai_model"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type Filter struct {
	Strictness     string `yaml:"strictness"`
	MinTitleLength int    `yaml:"min_title_length"`
	MaxTitleLength int    `yaml:"max_title_length"`
}

type Headlines struct {
	Limit   int      `yaml:"limit"`
	Windows []Window `yaml:"windows"`
}

type Window struct {
	FromDays int `yaml:"from_days"`
	ToDays   int `yaml:"to_days"`
}

type Output struct {
	DataDir            string `yaml:"data_dir"`
	Spreadsheet        string `yaml:"spreadsheet"`
	SpreadsheetEnabled bool   `yaml:"spreadsheet_enabled"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for marketbrief.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "marketbrief")
}

// DataDir returns the XDG data directory for marketbrief.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "marketbrief")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/marketbrief/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'marketbrief init' to create a default config",
		xdgConfig,
	)
}

// LoadEnv reads KEY=value files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		News: News{
			BaseURL:        "https://www.alphavantage.co/query",
			APIKeyEnv:      "ALPHA_VANTAGE_API_KEY",
			Limit:          100,
			Sort:           "RELEVANCE",
			TimeoutSeconds: 30,
			Retries:        3,
		},
		Market: Market{
			Enabled:        true,
			Benchmark:      "SPY",
			Movers:         []string{"AAPL", "MSFT", "GOOGL", "AMZN"},
			MoverThreshold: 1.5,
		},
		Generation: Generation{
			Provider:       llm.ProviderOllama,
			Style:          string(profile.Professional),
			OllamaModel:    "llama3.2",
			OllamaURL:      "http://localhost:11434",
			OpenAIModel:    "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxTokens:      1200,
			Temperature:    0.3,
			TimeoutSeconds: 30,
		},
		Filter: Filter{
			Strictness:     string(filter.Lenient),
			MinTitleLength: filter.DefaultMinTitle,
			MaxTitleLength: filter.DefaultMaxTitle,
		},
		Headlines: Headlines{Limit: 10},
		Output: Output{
			SpreadsheetEnabled: true,
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration. A missing news API key is reported as
// ErrMissingCredential; other problems are plain errors.
func (c *Config) Validate() error {
	var errs []error
	if c.NewsAPIKey() == "" {
		errs = append(errs, fmt.Errorf("%w: environment variable %s is not set", ErrMissingCredential, c.News.APIKeyEnv))
	}
	if _, err := filter.ParseStrictness(c.Filter.Strictness); err != nil {
		errs = append(errs, err)
	}
	if c.Filter.MinTitleLength > 0 && c.Filter.MaxTitleLength > 0 && c.Filter.MinTitleLength > c.Filter.MaxTitleLength {
		errs = append(errs, fmt.Errorf("filter: min_title_length %d exceeds max_title_length %d",
			c.Filter.MinTitleLength, c.Filter.MaxTitleLength))
	}
	if _, err := profile.ParseStyle(c.Generation.Style); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Generation.Provider) {
	case llm.ProviderOllama, llm.ProviderOpenAI, llm.ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("generation: unknown provider %q", c.Generation.Provider))
	}
	for i, w := range c.Headlines.Windows {
		if w.FromDays < 0 || w.ToDays <= w.FromDays {
			errs = append(errs, fmt.Errorf("headlines: window %d must satisfy 0 <= from_days < to_days", i+1))
		}
	}
	if _, err := c.BuildVocabulary(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewsAPIKey returns the news API key from the environment.
func (c *Config) NewsAPIKey() string {
	return os.Getenv(c.News.APIKeyEnv)
}

// OpenAIKey returns the OpenAI API key from the environment.
func (c *Config) OpenAIKey() string {
	if c.Generation.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Generation.APIKeyEnv)
}

// BuildVocabulary applies the configured list overrides to the default vocabulary.
func (c *Config) BuildVocabulary() (vocab.Vocabulary, error) {
	v, err := vocab.Default().WithOverrides(c.Vocabulary)
	if err != nil {
		return vocab.Vocabulary{}, fmt.Errorf("vocabulary: %w", err)
	}
	return v, nil
}

// FilterOptions converts the filter section.
func (c *Config) FilterOptions() (filter.Options, error) {
	s, err := filter.ParseStrictness(c.Filter.Strictness)
	if err != nil {
		return filter.Options{}, err
	}
	return filter.Options{Strictness: s, MinTitle: c.Filter.MinTitleLength, MaxTitle: c.Filter.MaxTitleLength}, nil
}

// HeadlineWindows returns the configured lookback windows, or the defaults.
func (c *Config) HeadlineWindows() []headline.Window {
	if len(c.Headlines.Windows) == 0 {
		return headline.DefaultWindows
	}
	out := make([]headline.Window, len(c.Headlines.Windows))
	for i, w := range c.Headlines.Windows {
		out[i] = headline.Window{FromDays: w.FromDays, ToDays: w.ToDays}
	}
	return out
}

// LLMOptions converts the generation section.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:      c.Generation.Provider,
		OllamaModel:   c.Generation.OllamaModel,
		OllamaURL:     c.Generation.OllamaURL,
		OpenAIModel:   c.Generation.OpenAIModel,
		OpenAIKey:     c.OpenAIKey(),
		OpenAIBaseURL: c.Generation.OpenAIBaseURL,
		Timeout:       c.GenerationTimeout(),
	}
}

// GenerationTimeout is the per-call limit for the language model.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}

// NewsTimeout is the per-request limit for news and quote calls.
func (c *Config) NewsTimeout() time.Duration {
	return time.Duration(c.News.TimeoutSeconds) * time.Second
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite content log path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "marketbrief.db")
}

// SpreadsheetPath returns the workbook path. Relative paths are inside the data directory.
func (c *Config) SpreadsheetPath() string {
	p := c.Output.Spreadsheet
	if p == "" {
		p = "market_content_tracker.xlsx"
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.GetDataDir(), p)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
