package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/document"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
	"github.com/carematch/ai-services/internal/storage"
)

// ParserService turns an uploaded resume document into the structured
// profile the onboarding flow imports.
type ParserService interface {
	ParseResume(ctx context.Context, environment, filePath string) (*models.ParsedResume, error)
}

type parserService struct {
	store    *storage.Client
	client   llm.Client
	headshot *document.HeadshotFinder
	cfg      *config.Config
	prompts  *prompts.Builder
	logger   *zap.Logger
}

func NewParserService(
	store *storage.Client,
	client llm.Client,
	headshot *document.HeadshotFinder,
	cfg *config.Config,
	logger *zap.Logger,
) ParserService {
	return &parserService{
		store:    store,
		client:   client,
		headshot: headshot,
		cfg:      cfg,
		prompts:  prompts.NewBuilder(),
		logger:   logger,
	}
}

// ParseResume implements ParserService.
func (s *parserService) ParseResume(ctx context.Context, environment, filePath string) (*models.ParsedResume, error) {
	data, err := s.store.Download(ctx, environment, filePath)
	if err != nil {
		return nil, err
	}

	ref := storage.ResolveObjectPath(filePath)

	resume, err := s.parseVision(ctx, data, ref.Key)
	if err != nil {
		s.logger.Warn("vision parse failed, falling back to text",
			zap.String("file", ref.Key),
			zap.Error(err))
		resume, err = s.parseText(ctx, data, ref.Key)
		if err != nil {
			return nil, err
		}
	}

	s.attachPhoto(data, ref.Key, resume)
	return resume, nil
}

// parseVision renders the document to page images and parses them with
// the vision model.
func (s *parserService) parseVision(ctx context.Context, data []byte, filename string) (*models.ParsedResume, error) {
	chunks, err := document.BuildVisionChunks(data, filename, s.cfg.Parser.MaxPages)
	if err != nil {
		return nil, err
	}

	images := make([]llm.Image, 0, len(chunks))
	for _, chunk := range chunks {
		images = append(images, llm.Image{MIME: chunk.MIME, Data: chunk.Data})
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.LLM.ParserModel,
		System:      prompts.ResumeParserSystem,
		User:        prompts.ResumeParserInstructions,
		Images:      images,
		Temperature: 0,
		ForceJSON:   true,
	}, s.cfg.LLM.RetryMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("vision parse request failed: %w", err)
	}

	return decodeParsedResume(response)
}

// parseText is the fallback for documents that cannot be rendered to
// images: extract plain text and parse that instead.
func (s *parserService) parseText(ctx context.Context, data []byte, filename string) (*models.ParsedResume, error) {
	text, err := document.ExtractText(data, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot extract text from %s: %v", ErrInvalidInput, filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document %s contains no extractable text", ErrInvalidInput, filename)
	}

	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.LLM.ParserModel,
		System:      prompts.ResumeParserSystem,
		User:        s.prompts.BuildTextParsePrompt(text),
		Temperature: 0,
		ForceJSON:   true,
	}, s.cfg.LLM.RetryMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("text parse request failed: %w", err)
	}

	return decodeParsedResume(response)
}

// attachPhoto extracts a headshot from PDF resumes and attaches it as a
// data URL the frontend can show as an avatar preview. Missing photos are
// not an error.
func (s *parserService) attachPhoto(data []byte, filename string, resume *models.ParsedResume) {
	if s.headshot == nil || !s.headshot.Enabled() {
		return
	}
	if !document.IsPDF(data) && !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return
	}

	photo, err := s.headshot.FromPDF(data)
	if err != nil {
		s.logger.Warn("headshot extraction failed", zap.String("file", filename), zap.Error(err))
		return
	}
	if photo == "" {
		return
	}

	resume.PhotoBase64 = photo
	resume.Profile.PhotoBase64 = photo
	resume.AvatarPreviewURL = "data:image/png;base64," + photo
}

func decodeParsedResume(response string) (*models.ParsedResume, error) {
	var resume models.ParsedResume
	if err := llm.DecodeJSON(response, &resume); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadModelReply, err)
	}

	if resume.Profile.FirstName == "" && resume.Profile.LastName == "" && len(resume.Experiences) == 0 {
		return nil, fmt.Errorf("%w: parse produced an empty profile", ErrBadModelReply)
	}

	// List sections serialize as [] rather than null so the importer does
	// not have to nil-check every section.
	if resume.Profile.Citizenships == nil {
		resume.Profile.Citizenships = []string{}
	}
	if resume.Experiences == nil {
		resume.Experiences = []models.ParsedExperience{}
	}
	if resume.Educations == nil {
		resume.Educations = []models.ParsedEducation{}
	}
	if resume.Languages == nil {
		resume.Languages = []string{}
	}
	if resume.Certifications == nil {
		resume.Certifications = []models.ParsedCertification{}
	}
	if resume.Awards == nil {
		resume.Awards = []models.ParsedAward{}
	}
	if resume.Publications == nil {
		resume.Publications = []models.ParsedPublication{}
	}
	if resume.Scores.Messages == nil {
		resume.Scores.Messages = []string{}
	}
	return &resume, nil
}
