package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/carematch/ai-services/internal/config"
)

// Image is an inline image part of a chat request, used for vision-based
// resume parsing.
type Image struct {
	MIME string
	Data []byte
}

type Request struct {
	Model       string
	System      string
	User        string
	Images      []Image
	Temperature float32
	MaxTokens   int32
	ForceJSON   bool
}

// Client is the provider-independent chat interface. Complete returns the
// raw text of the model's reply; callers that asked for JSON run it through
// ExtractJSON before decoding.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New builds the chat client for the configured provider.
func New(cfg config.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg)
	case "gemini":
		return NewGeminiClient(cfg)
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
}

// CompleteWithRetry retries transient completion failures with a doubling
// delay. Requests rejected by an open circuit breaker are not retried.
func CompleteWithRetry(ctx context.Context, client Client, req Request, maxRetries int) (string, error) {
	var lastErr error
	delay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := client.Complete(ctx, req)
		if err == nil {
			return result, nil
		}
		if err == ErrCircuitOpen {
			return "", err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
