package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
)

// ErrInvalidInput marks request payloads the service refuses to process.
var ErrInvalidInput = errors.New("invalid input")

// ErrBadModelReply marks model output that did not follow the prompt
// contract. Callers surface it as an upstream failure.
var ErrBadModelReply = errors.New("unusable model reply")

// Fields that must be present before a posting can be enriched.
var requiredEnrichmentFields = []string{"title", "summary", "responsibilities", "qualifications"}

// EnricherService rewrites job posting content into polished marketing
// copy while keeping the factual content intact.
type EnricherService interface {
	EnrichJob(ctx context.Context, jobData map[string]interface{}) (map[string]interface{}, error)
	EnrichField(ctx context.Context, req models.EnrichFieldRequest) (*models.EnrichFieldResponse, error)
}

type enricherService struct {
	client  llm.Client
	cfg     config.LLMConfig
	prompts *prompts.Builder
	logger  *zap.Logger
}

func NewEnricherService(client llm.Client, cfg config.LLMConfig, logger *zap.Logger) EnricherService {
	return &enricherService{
		client:  client,
		cfg:     cfg,
		prompts: prompts.NewBuilder(),
		logger:  logger,
	}
}

// EnrichJob implements EnricherService.
func (s *enricherService) EnrichJob(ctx context.Context, jobData map[string]interface{}) (map[string]interface{}, error) {
	if err := validateEnrichmentInput(jobData); err != nil {
		return nil, err
	}

	jobJSON, err := json.MarshalIndent(jobData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job data: %w", err)
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.EnricherModel,
		System:      prompts.EnrichmentSystem,
		User:        s.prompts.BuildEnrichmentPrompt(string(jobJSON)),
		Temperature: 0.7,
		ForceJSON:   true,
	}, s.cfg.RetryMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}

	var enriched map[string]interface{}
	if err := llm.DecodeJSON(response, &enriched); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModelReply, err)
	}

	// The model must return every field it was given; a missing key
	// means it dropped content.
	if err := validateEnrichmentOutput(jobData, enriched); err != nil {
		s.logger.Warn("enrichment output rejected", zap.Error(err))
		return nil, err
	}

	return enriched, nil
}

// EnrichField implements EnricherService.
func (s *enricherService) EnrichField(ctx context.Context, req models.EnrichFieldRequest) (*models.EnrichFieldResponse, error) {
	jobData := map[string]interface{}{
		req.Field: req.Value,
	}
	for key, value := range req.Context {
		if key == req.Field {
			continue
		}
		jobData[key] = value
	}

	jobJSON, err := json.MarshalIndent(jobData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal field data: %w", err)
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.EnricherModel,
		System:      prompts.EnrichmentSystem,
		User:        s.prompts.BuildFieldEnrichmentPrompt(req.Field, string(jobJSON)),
		Temperature: 0.7,
		ForceJSON:   true,
	}, s.cfg.RetryMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("field enrichment request failed: %w", err)
	}

	var result map[string]interface{}
	if err := llm.DecodeJSON(response, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModelReply, err)
	}

	enriched, ok := result[req.Field].(string)
	if !ok {
		return nil, fmt.Errorf("%w: enriched value for field %q is not a string", ErrBadModelReply, req.Field)
	}

	return &models.EnrichFieldResponse{
		Field:    req.Field,
		Original: req.Value,
		Enriched: enriched,
	}, nil
}

func validateEnrichmentInput(jobData map[string]interface{}) error {
	var missing []string
	for _, field := range requiredEnrichmentFields {
		value, ok := jobData[field]
		if !ok || value == nil {
			missing = append(missing, field)
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields %v", ErrInvalidInput, missing)
	}
	return nil
}

func validateEnrichmentOutput(input, output map[string]interface{}) error {
	for key := range input {
		if _, ok := output[key]; !ok {
			return fmt.Errorf("%w: enriched response is missing field %q", ErrBadModelReply, key)
		}
	}
	return nil
}
