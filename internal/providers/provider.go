package providers

import (
	"context"
	"fmt"
)

// GenerateRequest contains the data sent to a generation endpoint.
type GenerateRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// GenerateResponse contains the raw free-form response from an endpoint.
type GenerateResponse struct {
	Text       string
	TokensUsed int
}

// Generator is the provider abstraction interface. Implementations perform a
// single attempt; retries and deadlines are the invoker's job.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}

// New creates a provider by name.
func New(provider, model string) (Generator, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini", "google":
		return NewGemini(model)
	case "ollama", "lmstudio":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
