package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Generator interface for Ollama and LM Studio
// (OpenAI-compatible API).
type Ollama struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(model string) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	// Normalize URL: strip trailing /, /v1, /v1/chat/completions
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1/chat/completions")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	// Optional API key for servers that require it (e.g., LM Studio)
	apiKey := os.Getenv("SCORN_OLLAMA_API_KEY")

	return &Ollama{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL + "/v1/chat/completions",
		client:  &http.Client{Timeout: 300 * time.Second},
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	return chatCompletion(ctx, o.client, o.baseURL, o.apiKey, o.model, req)
}
