package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/carematch/ai-services/internal/config"
)

type geminiClient struct {
	client     *genai.Client
	embedModel string
}

func NewGeminiClient(cfg config.LLMConfig) (Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiClient{
		client:     client,
		embedModel: cfg.EmbeddingModel,
	}, nil
}

// Complete implements Client. OpenAI model names configured per service are
// mapped onto a Gemini default so the provider can be switched without
// retouching every model setting.
func (c *geminiClient) Complete(ctx context.Context, req Request) (string, error) {
	temperature := req.Temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = req.MaxTokens
	}
	if req.System != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.ForceJSON {
		genCfg.ResponseMIMEType = "application/json"
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MIME, Data: img.Data},
		})
	}
	parts = append(parts, &genai.Part{Text: req.User})

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := c.client.Models.GenerateContent(ctx, geminiModel(req.Model), contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return text, nil
}

// Embed implements Client.
func (c *geminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := c.client.Models.EmbedContent(ctx, c.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return result.Embeddings[0].Values, nil
}

func geminiModel(model string) string {
	switch model {
	case "", "gpt-4o-mini", "gpt-4o":
		return "gemini-2.5-flash"
	}
	return model
}
