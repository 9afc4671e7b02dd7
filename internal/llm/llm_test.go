package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	result := ParseJSONResponse("not json at all")
	if result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	result := ParseJSONResponse("")
	if result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONResponseWhitespace(t *testing.T) {
	result := ParseJSONResponse("  \n  {\"key\": \"value\"}  \n  ")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestDecodeJSONIntoStruct(t *testing.T) {
	var out struct {
		Script string `json:"script"`
	}
	if err := DecodeJSON("```json\n{\"script\": \"hello\"}\n```", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Script != "hello" {
		t.Errorf("expected script='hello', got %q", out.Script)
	}
	if err := DecodeJSON("```\n```", &out); err == nil {
		t.Error("expected error for empty fenced block")
	}
}

func chatServer(t *testing.T, content string, check func(req openai.ChatCompletionRequest)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProviderGenerate(t *testing.T) {
	srv := chatServer(t, "  {\"script\":\"ok\"}  ", func(req openai.ChatCompletionRequest) {
		assert.Equal(t, "gpt-4o", req.Model)
		assert.Equal(t, 1200, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "be brief", req.Messages[0].Content)
		assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	})

	p := NewOpenAIProvider("gpt-4o", "test-key", srv.URL+"/v1", 5*time.Second)
	assert.True(t, p.IsConfigured())
	assert.Equal(t, "openai/gpt-4o", p.Name())

	out, err := p.Generate(context.Background(), Request{System: "be brief", Prompt: "hi", MaxTokens: 1200, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"script":"ok"}`, out)
}

func TestOpenAIProviderWithoutKey(t *testing.T) {
	p := NewOpenAIProvider("gpt-4o", "", "", time.Second)
	assert.False(t, p.IsConfigured())
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("gpt-4o", "test-key", srv.URL+"/v1", 5*time.Second)
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	assert.Error(t, err)
}

func TestOllamaProvider(t *testing.T) {
	srv := chatServer(t, "hello from ollama", func(req openai.ChatCompletionRequest) {
		assert.Equal(t, "llama3.2", req.Model)
		assert.Nil(t, req.ResponseFormat)
	})

	p := NewOllamaProvider("llama3.2", srv.URL+"/", 5*time.Second)
	assert.True(t, p.IsConfigured())

	out, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello from ollama", out)

	missing := NewOllamaProvider("mistral", srv.URL, time.Second)
	assert.False(t, missing.IsConfigured())
}

func TestCreateProvider(t *testing.T) {
	srv := chatServer(t, "x", nil)

	p := CreateProvider(Options{Provider: "ollama", OllamaModel: "llama3.2", OllamaURL: srv.URL})
	require.NotNil(t, p)
	assert.Equal(t, "ollama/llama3.2", p.Name())

	p = CreateProvider(Options{Provider: "ollama", OllamaModel: "mistral", OllamaURL: srv.URL,
		OpenAIModel: "gpt-4o", OpenAIKey: "k"})
	require.NotNil(t, p)
	assert.Equal(t, "openai/gpt-4o", p.Name())

	assert.Nil(t, CreateProvider(Options{Provider: "openai", OpenAIModel: "gpt-4o"}))
	assert.Nil(t, CreateProvider(Options{Provider: ProviderNone, OpenAIModel: "gpt-4o", OpenAIKey: "k"}))
}
