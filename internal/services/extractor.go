package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/document"
	"github.com/carematch/ai-services/internal/fetch"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
	"github.com/carematch/ai-services/internal/storage"
)

// Postings longer than this get cut down before the model call. Keeps
// token usage bounded on very long career pages.
const maxExtractionInput = 8000

// ExtractorService turns job postings, fetched from a URL or stored as a
// document, into the structured job schema.
type ExtractorService interface {
	ExtractFromURL(ctx context.Context, environment, jobURL string) (*models.ExtractedJob, error)
	ExtractFromFile(ctx context.Context, environment string, req models.ExtractFromFileRequest) (*models.ExtractedJob, error)
}

// SpecialtyLister is the slice of the user repository the extractor needs
// to read the rosetta specialty reference table.
type SpecialtyLister interface {
	AllSpecialties(env string) ([]models.MedicalSpecialty, error)
}

type extractorService struct {
	fetcher     *fetch.Fetcher
	store       *storage.Client
	client      llm.Client
	specialties SpecialtyLister
	cfg         config.LLMConfig
	prompts     *prompts.Builder
	logger      *zap.Logger
}

func NewExtractorService(
	fetcher *fetch.Fetcher,
	store *storage.Client,
	client llm.Client,
	specialties SpecialtyLister,
	cfg config.LLMConfig,
	logger *zap.Logger,
) ExtractorService {
	return &extractorService{
		fetcher:     fetcher,
		store:       store,
		client:      client,
		specialties: specialties,
		cfg:         cfg,
		prompts:     prompts.NewBuilder(),
		logger:      logger,
	}
}

// ExtractFromURL implements ExtractorService.
func (s *extractorService) ExtractFromURL(ctx context.Context, environment, jobURL string) (*models.ExtractedJob, error) {
	content, err := s.fetcher.Page(ctx, jobURL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched job posting",
		zap.String("url", jobURL),
		zap.Int("content_length", len(content)))

	return s.extract(ctx, environment, content)
}

// ExtractFromFile implements ExtractorService.
func (s *extractorService) ExtractFromFile(ctx context.Context, environment string, req models.ExtractFromFileRequest) (*models.ExtractedJob, error) {
	filePath := req.FilePath
	if req.BucketName != "" {
		filePath = req.BucketName + "/" + strings.TrimPrefix(req.FilePath, "/")
	}

	data, err := s.store.Download(ctx, environment, filePath)
	if err != nil {
		return nil, err
	}

	ref := storage.ResolveObjectPath(filePath)
	text, err := document.ExtractText(data, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot extract text from %s: %v", ErrInvalidInput, ref.Key, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document %s contains no extractable text", ErrInvalidInput, ref.Key)
	}

	return s.extract(ctx, environment, text)
}

func (s *extractorService) extract(ctx context.Context, environment, content string) (*models.ExtractedJob, error) {
	if len(content) > maxExtractionInput {
		content = content[:maxExtractionInput]
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.ExtractorModel,
		System:      prompts.ExtractionSystem,
		User:        content,
		Temperature: 0,
		ForceJSON:   true,
	}, s.cfg.RetryMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	var job models.ExtractedJob
	if err := llm.DecodeJSON(response, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModelReply, err)
	}

	if job.Title == "" {
		return nil, fmt.Errorf("%w: extraction produced no job title", ErrBadModelReply)
	}

	s.resolveSpecialty(ctx, environment, content, &job)
	return &job, nil
}

// resolveSpecialty maps the posting onto an exact name from the rosetta
// reference table. The table lives in the database, so this is skipped
// when the service runs without one, and failures leave the extracted
// value untouched.
func (s *extractorService) resolveSpecialty(ctx context.Context, environment, content string, job *models.ExtractedJob) {
	if s.specialties == nil {
		return
	}

	all, err := s.specialties.AllSpecialties(environment)
	if err != nil {
		s.logger.Warn("failed to load specialty reference table", zap.Error(err))
		return
	}
	if len(all) == 0 {
		return
	}

	names := make([]string, 0, len(all))
	for _, specialty := range all {
		names = append(names, specialty.Name)
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.ExtractorModel,
		System:      prompts.SpecialtyMatchSystem,
		User:        s.prompts.BuildSpecialtyMatchPrompt(content, names),
		Temperature: 0,
	}, s.cfg.RetryMaxAttempts)
	if err != nil {
		s.logger.Warn("specialty match request failed", zap.Error(err))
		return
	}

	answer := strings.TrimSpace(response)
	for _, specialty := range all {
		if strings.EqualFold(answer, specialty.Name) {
			job.Specialty = specialty.Name
			return
		}
	}
}
