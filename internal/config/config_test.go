package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/MarketBrief/internal/filter"
	"github.com/TobiSchelling/MarketBrief/internal/headline"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err, "failed to parse default config")

	assert.NotEmpty(t, cfg.News.Feeds)
	assert.Equal(t, "ALPHA_VANTAGE_API_KEY", cfg.News.APIKeyEnv)
	assert.Equal(t, "ollama", cfg.Generation.Provider)
	assert.Equal(t, "lenient", cfg.Filter.Strictness)
	assert.Len(t, cfg.Headlines.Windows, 4)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
generation:
  provider: openai
  openai_model: gpt-4o
server:
  port: 9000
`)
	cfg, err := parse(data)
	require.NoError(t, err, "failed to parse minimal config")

	assert.Equal(t, "openai", cfg.Generation.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)
	// unspecified fields keep their defaults
	assert.Equal(t, "http://localhost:11434", cfg.Generation.OllamaURL)
	assert.Equal(t, "SPY", cfg.Market.Benchmark)
	assert.Len(t, cfg.Market.Movers, 4)
	assert.Equal(t, 100, cfg.News.Limit)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.News.Feeds, "feeds populated from file")
}

func TestValidateMissingCredential(t *testing.T) {
	cfg := Default()
	cfg.News.APIKeyEnv = "MARKETBRIEF_TEST_UNSET_KEY"

	assert.ErrorIs(t, cfg.Validate(), ErrMissingCredential)
}

func TestValidate(t *testing.T) {
	t.Setenv("MARKETBRIEF_TEST_KEY", "demo")

	cfg := Default()
	cfg.News.APIKeyEnv = "MARKETBRIEF_TEST_KEY"
	require.NoError(t, cfg.Validate(), "default config is valid")

	tests := map[string]func(*Config){
		"strictness": func(c *Config) { c.Filter.Strictness = "paranoid" },
		"title bounds": func(c *Config) {
			c.Filter.MinTitleLength, c.Filter.MaxTitleLength = 100, 50
		},
		"style":      func(c *Config) { c.Generation.Style = "loud" },
		"provider":   func(c *Config) { c.Generation.Provider = "claude" },
		"window":     func(c *Config) { c.Headlines.Windows = []Window{{FromDays: 2, ToDays: 2}} },
		"vocabulary": func(c *Config) { c.Vocabulary = map[string][]string{"no_such_list": {"x"}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			c.News.APIKeyEnv = "MARKETBRIEF_TEST_KEY"
			mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrMissingCredential)
		})
	}
}

func TestFilterOptionsAndWindows(t *testing.T) {
	cfg := Default()
	cfg.Filter.Strictness = "Strict"

	opts, err := cfg.FilterOptions()
	require.NoError(t, err)
	assert.Equal(t, filter.Strict, opts.Strictness)
	assert.Equal(t, 20, opts.MinTitle)
	assert.Equal(t, 200, opts.MaxTitle)

	windows := cfg.HeadlineWindows()
	require.Len(t, windows, len(headline.DefaultWindows))
	assert.Equal(t, headline.Window{FromDays: 4, ToDays: 7}, windows[3])

	cfg.Headlines.Windows = nil
	assert.Equal(t, headline.DefaultWindows, cfg.HeadlineWindows())
}

func TestBuildVocabularyOverrides(t *testing.T) {
	cfg, err := parse([]byte(`
vocabulary:
  premium_sources: [Example Wire]
`))
	require.NoError(t, err)
	v, err := cfg.BuildVocabulary()
	require.NoError(t, err)
	assert.Equal(t, []string{"example wire"}, []string(v.PremiumSources))
	assert.NotEmpty(t, v.ExclusionTerms, "other lists keep defaults")
}

func TestLLMOptions(t *testing.T) {
	t.Setenv("MARKETBRIEF_TEST_OPENAI", "sk-test")
	cfg := Default()
	cfg.Generation.APIKeyEnv = "MARKETBRIEF_TEST_OPENAI"

	opts := cfg.LLMOptions()
	assert.Equal(t, "sk-test", opts.OpenAIKey)
	assert.Equal(t, "llama3.2", opts.OllamaModel)
	assert.Equal(t, 30*time.Second, opts.Timeout)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MARKETBRIEF_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("MARKETBRIEF_TEST_DOTENV", "")
	os.Unsetenv("MARKETBRIEF_TEST_DOTENV")

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("MARKETBRIEF_TEST_DOTENV"))
}

func TestLoadEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MARKETBRIEF_TEST_KEEP=from-file\n"), 0o600))
	t.Setenv("MARKETBRIEF_TEST_KEEP", "from-env")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-env", os.Getenv("MARKETBRIEF_TEST_KEEP"))
}

func TestPaths(t *testing.T) {
	cfg := &Config{}
	assert.NotEmpty(t, cfg.GetDataDir())

	cfg.Output.DataDir = "/custom/path"
	assert.Equal(t, "/custom/path", cfg.GetDataDir())
	assert.Equal(t, "/custom/path/marketbrief.db", cfg.DatabasePath())
	assert.Equal(t, "/custom/path/market_content_tracker.xlsx", cfg.SpreadsheetPath())

	cfg.Output.Spreadsheet = "/tmp/log.xlsx"
	assert.Equal(t, "/tmp/log.xlsx", cfg.SpreadsheetPath(), "absolute path kept")
}
