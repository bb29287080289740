package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/prompts"
	"github.com/carematch/ai-services/internal/repositories"
)

// Matches scoring below this are not stored when matching a job against
// all candidates. The candidate-side flow stores everything so the user
// can see why a job scored low.
const jobMatchThreshold = 0.5

// MatcherService scores candidates against jobs with the healthcare
// matching rubric and stores the results.
type MatcherService interface {
	MatchJobToUsers(ctx context.Context, env string, jobID int64, overwrite bool) (scanned, found int, err error)
	MatchUserToJobs(ctx context.Context, env string, userID uuid.UUID, overwrite bool) (scanned, found int, err error)
}

type matcherService struct {
	jobRepo   repositories.JobRepository
	userRepo  repositories.UserRepository
	matchRepo repositories.MatchRepository
	client    llm.Client
	vectors   VectorService
	cfg       config.LLMConfig
	prompts   *prompts.Builder
	logger    *zap.Logger
}

func NewMatcherService(
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	matchRepo repositories.MatchRepository,
	client llm.Client,
	vectors VectorService,
	cfg config.LLMConfig,
	logger *zap.Logger,
) MatcherService {
	return &matcherService{
		jobRepo:   jobRepo,
		userRepo:  userRepo,
		matchRepo: matchRepo,
		client:    client,
		vectors:   vectors,
		cfg:       cfg,
		prompts:   prompts.NewBuilder(),
		logger:    logger,
	}
}

// MatchJobToUsers implements MatcherService. It scores every candidate
// whose specialty matches the job's rosetta code and stores the matches
// that clear the threshold.
func (s *matcherService) MatchJobToUsers(ctx context.Context, env string, jobID int64, overwrite bool) (int, int, error) {
	job, err := s.jobRepo.FindByID(env, jobID)
	if err != nil {
		return 0, 0, err
	}

	if job.MedicalSpecialtyRosetta == nil || *job.MedicalSpecialtyRosetta == "" {
		s.logger.Info("job has no rosetta specialty, skipping matching",
			zap.Int64("job_id", jobID))
		return 0, 0, nil
	}

	description := RenderJobDescription(job)
	s.indexJob(ctx, env, job, description)

	users, err := s.userRepo.ListAll(env)
	if err != nil {
		return 0, 0, err
	}

	scanned := 0
	found := 0
	for i := range users {
		user := &users[i]
		scanned++

		if !s.specialtyMatches(env, user.UserID, job.MedicalSpecialtyRosetta) {
			continue
		}

		if !overwrite {
			exists, err := s.matchRepo.Exists(env, user.UserID, jobID)
			if err != nil {
				s.logger.Warn("failed to check existing match",
					zap.String("user_id", user.UserID.String()),
					zap.Error(err))
				continue
			}
			if exists {
				continue
			}
		}

		resumeText, err := s.resumeText(env, user)
		if err != nil {
			s.logger.Warn("failed to build resume text",
				zap.String("user_id", user.UserID.String()),
				zap.Error(err))
			continue
		}

		score, details, err := s.scoreMatch(ctx, resumeText, description)
		if err != nil {
			s.logger.Warn("failed to score candidate",
				zap.String("user_id", user.UserID.String()),
				zap.Int64("job_id", jobID),
				zap.Error(err))
			continue
		}

		if score <= jobMatchThreshold {
			continue
		}

		if err := s.matchRepo.Upsert(env, &models.Match{
			CandidateID: user.UserID,
			JobID:       jobID,
			Score:       score,
			Details:     details,
			Origin:      "internal",
			TypeOfMatch: "fit",
		}); err != nil {
			s.logger.Warn("failed to store match",
				zap.String("user_id", user.UserID.String()),
				zap.Int64("job_id", jobID),
				zap.Error(err))
			continue
		}
		found++
	}

	s.logger.Info("job matching completed",
		zap.Int64("job_id", jobID),
		zap.Int("candidates_scanned", scanned),
		zap.Int("matches_found", found))
	return scanned, found, nil
}

// MatchUserToJobs implements MatcherService. Jobs already matched are
// skipped unless overwrite is set. Scored jobs are stored regardless of
// score, and the profile's matching_status is always reset to finished,
// even when the run fails partway.
func (s *matcherService) MatchUserToJobs(ctx context.Context, env string, userID uuid.UUID, overwrite bool) (scanned, found int, err error) {
	if statusErr := s.userRepo.UpdateMatchingStatus(env, userID, models.MatchingProcessing); statusErr != nil {
		return 0, 0, statusErr
	}
	defer func() {
		if statusErr := s.userRepo.UpdateMatchingStatus(env, userID, models.MatchingFinished); statusErr != nil {
			s.logger.Error("failed to reset matching status",
				zap.String("user_id", userID.String()),
				zap.Error(statusErr))
		}
	}()

	user, err := s.userRepo.FindByUserID(env, userID)
	if err != nil {
		return 0, 0, err
	}

	specialties, err := s.userRepo.Specialties(env, userID)
	if err != nil {
		return 0, 0, err
	}
	if len(specialties) == 0 {
		s.logger.Info("user has no specialties, nothing to match",
			zap.String("user_id", userID.String()))
		return 0, 0, nil
	}

	resumeText, err := s.resumeText(env, user)
	if err != nil {
		return 0, 0, err
	}

	jobs, err := s.candidateJobs(ctx, env, specialties, resumeText)
	if err != nil {
		return 0, 0, err
	}

	for i := range jobs {
		job := &jobs[i]
		scanned++

		if !overwrite {
			exists, existsErr := s.matchRepo.Exists(env, userID, job.ID)
			if existsErr != nil {
				s.logger.Warn("failed to check existing match",
					zap.Int64("job_id", job.ID),
					zap.Error(existsErr))
				continue
			}
			if exists {
				continue
			}
		}

		score, details, scoreErr := s.scoreMatch(ctx, resumeText, RenderJobDescription(job))
		if scoreErr != nil {
			s.logger.Warn("failed to score job",
				zap.Int64("job_id", job.ID),
				zap.Error(scoreErr))
			continue
		}

		if upsertErr := s.matchRepo.Upsert(env, &models.Match{
			CandidateID: userID,
			JobID:       job.ID,
			Score:       score,
			Details:     details,
			Origin:      "internal",
			TypeOfMatch: "fit",
		}); upsertErr != nil {
			s.logger.Warn("failed to store match",
				zap.Int64("job_id", job.ID),
				zap.Error(upsertErr))
			continue
		}
		found++
	}

	s.logger.Info("user matching completed",
		zap.String("user_id", userID.String()),
		zap.Int("jobs_scanned", scanned),
		zap.Int("matches_found", found))
	return scanned, found, nil
}

// candidateJobs collects the jobs sharing a specialty with the user. When
// the vector index is available the list is re-ordered by embedding
// similarity so the most promising jobs are scored first.
func (s *matcherService) candidateJobs(ctx context.Context, env string, specialties []models.MedicalSpecialty, resumeText string) ([]models.Job, error) {
	seen := make(map[int64]bool)
	var jobs []models.Job
	for _, specialty := range specialties {
		found, err := s.jobRepo.FindBySpecialty(env, specialty.IDRosetta)
		if err != nil {
			return nil, err
		}
		for _, job := range found {
			if seen[job.ID] {
				continue
			}
			seen[job.ID] = true
			jobs = append(jobs, job)
		}
	}

	if s.vectors == nil || len(jobs) < 2 {
		return jobs, nil
	}

	embedding, err := s.client.Embed(ctx, resumeText)
	if err != nil {
		s.logger.Warn("failed to embed resume for pre-ranking", zap.Error(err))
		return jobs, nil
	}

	results, err := s.vectors.SearchJobs(ctx, embedding, "", env, len(jobs))
	if err != nil {
		s.logger.Warn("vector pre-ranking failed", zap.Error(err))
		return jobs, nil
	}

	rank := make(map[int64]int, len(results))
	for i, result := range results {
		rank[result.JobID] = i + 1
	}

	ranked := make([]models.Job, 0, len(jobs))
	var unranked []models.Job
	for _, job := range jobs {
		if _, ok := rank[job.ID]; ok {
			ranked = append(ranked, job)
		} else {
			unranked = append(unranked, job)
		}
	}
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if rank[ranked[j].ID] < rank[ranked[i].ID] {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	return append(ranked, unranked...), nil
}

// indexJob stores the job embedding in the vector index. Failures only
// degrade pre-ranking, so they are logged and swallowed.
func (s *matcherService) indexJob(ctx context.Context, env string, job *models.Job, description string) {
	if s.vectors == nil {
		return
	}

	embedding, err := s.client.Embed(ctx, description)
	if err != nil {
		s.logger.Warn("failed to embed job", zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}

	specialty := ""
	if job.MedicalSpecialtyRosetta != nil {
		specialty = *job.MedicalSpecialtyRosetta
	}
	if err := s.vectors.UpsertJob(ctx, job.ID, specialty, env, description, embedding); err != nil {
		s.logger.Warn("failed to index job", zap.Int64("job_id", job.ID), zap.Error(err))
	}
}

// specialtyMatches is the hard gate: the candidate must share the job's
// rosetta specialty code.
func (s *matcherService) specialtyMatches(env string, userID uuid.UUID, jobSpecialty *string) bool {
	if jobSpecialty == nil || *jobSpecialty == "" {
		return false
	}

	specialties, err := s.userRepo.Specialties(env, userID)
	if err != nil {
		s.logger.Warn("failed to load user specialties",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return false
	}

	for _, specialty := range specialties {
		if specialty.IDRosetta == *jobSpecialty {
			return true
		}
	}
	return false
}

func (s *matcherService) scoreMatch(ctx context.Context, resumeText, description string) (float64, datatypes.JSON, error) {
	response, err := llm.CompleteWithRetry(ctx, s.client, llm.Request{
		Model:       s.cfg.MatcherModel,
		System:      prompts.MatchingSystem,
		User:        s.prompts.BuildMatchingPrompt(resumeText, description),
		Temperature: 0.1,
		MaxTokens:   4096,
		ForceJSON:   true,
	}, s.cfg.RetryMaxAttempts)
	if err != nil {
		return 0, nil, err
	}

	var result map[string]interface{}
	if err := llm.DecodeJSON(response, &result); err != nil {
		return 0, nil, err
	}

	percentage, err := asPercentage(result["overall_match_percentage"])
	if err != nil {
		return 0, nil, err
	}
	result["type_of_match"] = "fit"

	details, err := json.Marshal(result)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal match details: %w", err)
	}

	return percentage / 100, datatypes.JSON(details), nil
}

// asPercentage tolerates models answering with a quoted number.
func asPercentage(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("match result has malformed overall_match_percentage %q", v)
		}
		return parsed, nil
	case nil:
		return 0, fmt.Errorf("match result has no overall_match_percentage")
	default:
		return 0, fmt.Errorf("match result has malformed overall_match_percentage of type %T", value)
	}
}

// resumeText returns the stored extracted resume when present, otherwise
// reconstructs a resume from the profile tables.
func (s *matcherService) resumeText(env string, user *models.UserProfile) (string, error) {
	if user.ExtractedResume != nil && strings.TrimSpace(*user.ExtractedResume) != "" {
		return *user.ExtractedResume, nil
	}

	data, err := s.userRepo.ProfileData(env, user.UserID)
	if err != nil {
		return "", err
	}
	return RenderProfileResume(data)
}

// RenderProfileResume flattens structured profile data into the sectioned
// plaintext format the scoring prompt expects, with the raw JSON appended
// so no field is lost.
func RenderProfileResume(data *models.ProfileData) (string, error) {
	var b strings.Builder
	profile := &data.Profile

	b.WriteString("=== PERSONAL INFORMATION ===\n")
	fmt.Fprintf(&b, "Name: %s\n", profile.FullName())
	if profile.Email != nil {
		fmt.Fprintf(&b, "Email: %s\n", *profile.Email)
	}
	if profile.Phone != nil {
		fmt.Fprintf(&b, "Phone: %s\n", *profile.Phone)
	}
	if location := profile.Location(); location != "" {
		fmt.Fprintf(&b, "Location: %s\n", location)
	}
	if profile.Position != nil {
		fmt.Fprintf(&b, "Current Position: %s\n", *profile.Position)
	}
	if profile.AboutMe != nil {
		fmt.Fprintf(&b, "About: %s\n", *profile.AboutMe)
	}

	if len(data.Specialties) > 0 {
		b.WriteString("\n=== MEDICAL SPECIALTIES ===\n")
		for _, specialty := range data.Specialties {
			fmt.Fprintf(&b, "- %s\n", specialty.Name)
		}
	}

	if len(data.Experience) > 0 {
		b.WriteString("\n=== WORK EXPERIENCE ===\n")
		for _, exp := range data.Experience {
			fmt.Fprintf(&b, "- %s at %s (%s - %s)\n",
				strOr(exp.Position, "Unknown position"),
				strOr(exp.Organization, "Unknown organization"),
				dateOr(exp.StartDate, "?"),
				dateOr(exp.EndDate, "present"))
			if exp.Description != nil && *exp.Description != "" {
				fmt.Fprintf(&b, "  %s\n", *exp.Description)
			}
		}
	}

	if len(data.Education) > 0 {
		b.WriteString("\n=== EDUCATION ===\n")
		for _, edu := range data.Education {
			fmt.Fprintf(&b, "- %s, %s (%s - %s)\n",
				strOr(edu.Degree, "Unknown degree"),
				strOr(edu.Organization, "Unknown institution"),
				yearOr(edu.StartYear, "?"),
				yearOr(edu.EndYear, "?"))
		}
	}

	if len(data.Certifications) > 0 {
		b.WriteString("\n=== CERTIFICATIONS ===\n")
		for _, cert := range data.Certifications {
			fmt.Fprintf(&b, "- %s (%s)\n",
				strOr(cert.Certifications, "Unknown certification"),
				strOr(cert.CertIssuer, "Unknown issuer"))
		}
	}

	if len(data.Publications) > 0 {
		b.WriteString("\n=== PUBLICATIONS ===\n")
		for _, pub := range data.Publications {
			fmt.Fprintf(&b, "- %s, %s\n",
				strOr(pub.PublicationTitle, "Untitled"),
				strOr(pub.Journal, "Unknown journal"))
		}
	}

	if len(data.Languages) > 0 {
		b.WriteString("\n=== LANGUAGES ===\n")
		for _, lang := range data.Languages {
			fmt.Fprintf(&b, "- %s (%s)\n",
				strOr(lang.Language, "Unknown"),
				strOr(lang.Proficiency, "unspecified"))
		}
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile data: %w", err)
	}
	b.WriteString("\n=== STRUCTURED DATA (JSON) ===\n")
	b.Write(raw)

	return b.String(), nil
}

// RenderJobDescription renders a job row into the plaintext block handed to the
// scoring prompt.
func RenderJobDescription(job *models.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Organization: %s\n", job.Organization)
	if job.Department != nil && *job.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", *job.Department)
	}
	if job.Location != nil && *job.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", *job.Location)
	}
	if job.Country != nil && *job.Country != "" {
		fmt.Fprintf(&b, "Country: %s\n", *job.Country)
	}
	fmt.Fprintf(&b, "Job Type: %s\n", job.JobType())
	if job.IsRemote != nil && *job.IsRemote == "true" {
		b.WriteString("Remote: yes\n")
	}
	if job.PreviousExperienceYears != nil {
		fmt.Fprintf(&b, "Required Experience: %d years\n", *job.PreviousExperienceYears)
	}
	if salary := job.SalaryRange(); salary != "" {
		fmt.Fprintf(&b, "Salary: %s\n", salary)
	}
	fmt.Fprintf(&b, "\nDescription:\n%s\n", job.Description)
	return b.String()
}

func strOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}

func dateOr(t *time.Time, fallback string) string {
	if t != nil {
		return t.Format("2006-01")
	}
	return fallback
}

func yearOr(y *int, fallback string) string {
	if y != nil {
		return fmt.Sprintf("%d", *y)
	}
	return fallback
}
