package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when a provider lacks credentials or a backend.
var ErrNotConfigured = errors.New("llm provider not configured")

// Request is a single chat completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	// JSON asks the backend to return a JSON object.
	JSON bool
}

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
	IsConfigured() bool
	Name() string
}

// chatClient runs chat completions against any OpenAI-compatible endpoint.
type chatClient struct {
	model  string
	client *openai.Client
}

func newChatClient(model, apiKey, baseURL string, timeout time.Duration) chatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return chatClient{model: model, client: openai.NewClientWithConfig(cfg)}
}

func (c chatClient) complete(ctx context.Context, req Request) (string, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    msgs,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// OllamaProvider is a local Ollama LLM provider, reached through its
// OpenAI-compatible endpoint.
type OllamaProvider struct {
	Model      string
	BaseURL    string
	httpClient *http.Client
	chat       chatClient
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string, timeout time.Duration) *OllamaProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	return &OllamaProvider{
		Model:      model,
		BaseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		chat:       newChatClient(model, "ollama", baseURL+"/v1", timeout),
	}
}

// Name identifies the provider in logs.
func (o *OllamaProvider) Name() string { return "ollama/" + o.Model }

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/tags", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	lgr.Printf("[WARN] ollama model %q not found", o.Model)
	return false
}

// Generate sends a request to Ollama and returns the response text.
func (o *OllamaProvider) Generate(ctx context.Context, req Request) (string, error) {
	text, err := o.chat.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	return text, nil
}

// OpenAIProvider is an OpenAI API provider.
type OpenAIProvider struct {
	Model  string
	APIKey string
	chat   chatClient
}

// NewOpenAIProvider creates a new OpenAI provider. An empty baseURL means the
// public OpenAI API.
func NewOpenAIProvider(model, apiKey, baseURL string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		Model:  model,
		APIKey: apiKey,
		chat:   newChatClient(model, apiKey, baseURL, timeout),
	}
}

// Name identifies the provider in logs.
func (o *OpenAIProvider) Name() string { return "openai/" + o.Model }

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a request to OpenAI and returns the response text.
func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	text, err := o.chat.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	return text, nil
}

// Provider names accepted by CreateProvider.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Options selects and configures a provider.
type Options struct {
	Provider      string
	OllamaModel   string
	OllamaURL     string
	OpenAIModel   string
	OpenAIKey     string
	OpenAIBaseURL string
	Timeout       time.Duration
}

// CreateProvider creates an LLM provider based on configuration. Ollama is
// tried first when selected, falling back to OpenAI. Returns nil when neither
// is available; callers then use deterministic content.
func CreateProvider(opts Options) Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	switch strings.ToLower(opts.Provider) {
	case ProviderNone:
		lgr.Printf("[INFO] LLM generation disabled, content will use the fallback generator")
		return nil
	case ProviderOllama:
		p := NewOllamaProvider(opts.OllamaModel, opts.OllamaURL, opts.Timeout)
		if p.IsConfigured() {
			lgr.Printf("[INFO] using Ollama with model %s", opts.OllamaModel)
			return p
		}
		lgr.Printf("[WARN] ollama not available, trying OpenAI fallback")
	}

	p := NewOpenAIProvider(opts.OpenAIModel, opts.OpenAIKey, opts.OpenAIBaseURL, opts.Timeout)
	if p.IsConfigured() {
		lgr.Printf("[INFO] using OpenAI with model %s", opts.OpenAIModel)
		return p
	}

	lgr.Printf("[WARN] no LLM provider available, content will use the fallback generator")
	return nil
}
