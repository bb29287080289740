package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{DefaultEnvironment: config.EnvProduction}
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestHealthRoute(t *testing.T) {
	app := NewApp("test-service", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test-service", body["service"])
}

func TestMetricsRoute(t *testing.T) {
	app := NewApp("job-matcher", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# TYPE job_matcher_health gauge\njob_matcher_health 1\n", string(data))
}

// --- enrichment ---

type stubEnricher struct {
	enrichResult map[string]interface{}
	fieldResult  *models.EnrichFieldResponse
	err          error
}

func (s *stubEnricher) EnrichJob(ctx context.Context, jobData map[string]interface{}) (map[string]interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.enrichResult, nil
}

func (s *stubEnricher) EnrichField(ctx context.Context, req models.EnrichFieldRequest) (*models.EnrichFieldResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fieldResult, nil
}

func TestHandleEnrich(t *testing.T) {
	app := NewApp("job-enricher", zap.NewNop())
	NewEnrichHandler(&stubEnricher{
		enrichResult: map[string]interface{}{"title": "Better Title"},
	}).Register(app)

	resp := postJSON(t, app, "/api/job-enricher/enrich", map[string]any{"title": "t"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Better Title", body["title"])
}

func TestHandleEnrich_InvalidInputMapsTo400(t *testing.T) {
	app := NewApp("job-enricher", zap.NewNop())
	NewEnrichHandler(&stubEnricher{
		err: services.ErrInvalidInput,
	}).Register(app)

	resp := postJSON(t, app, "/api/job-enricher/enrich", map[string]any{"title": "t"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleEnrich_BadModelReplyMapsTo502(t *testing.T) {
	app := NewApp("job-enricher", zap.NewNop())
	NewEnrichHandler(&stubEnricher{
		err: services.ErrBadModelReply,
	}).Register(app)

	resp := postJSON(t, app, "/api/job-enricher/enrich", map[string]any{"title": "t"}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHandleEnrichField_MissingValue(t *testing.T) {
	app := NewApp("job-enricher", zap.NewNop())
	NewEnrichHandler(&stubEnricher{}).Register(app)

	resp := postJSON(t, app, "/api/job-enricher/enrich-field", map[string]any{"field": "summary"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- extraction ---

type stubExtractor struct {
	job *models.ExtractedJob
	env string
	err error
}

func (s *stubExtractor) ExtractFromURL(ctx context.Context, environment, jobURL string) (*models.ExtractedJob, error) {
	s.env = environment
	if s.err != nil {
		return nil, s.err
	}
	return s.job, nil
}

func (s *stubExtractor) ExtractFromFile(ctx context.Context, environment string, req models.ExtractFromFileRequest) (*models.ExtractedJob, error) {
	s.env = environment
	if s.err != nil {
		return nil, s.err
	}
	return s.job, nil
}

func TestHandleExtract(t *testing.T) {
	app := NewApp("job-extractor", zap.NewNop())
	NewExtractHandler(&stubExtractor{
		job: &models.ExtractedJob{Title: "Surgeon"},
	}, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/job-extractor/extract", map[string]any{"job_url": "https://example.com/job/1"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var job models.ExtractedJob
	decodeBody(t, resp, &job)
	assert.Equal(t, "Surgeon", job.Title)
}

func TestHandleExtract_InvalidURL(t *testing.T) {
	app := NewApp("job-extractor", zap.NewNop())
	NewExtractHandler(&stubExtractor{}, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/job-extractor/extract", map[string]any{"job_url": "not a url"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleExtractFromFile_EnvironmentHeader(t *testing.T) {
	stub := &stubExtractor{job: &models.ExtractedJob{Title: "Nurse"}}
	app := NewApp("job-extractor", zap.NewNop())
	NewExtractHandler(stub, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/job-extractor/extract-from-file",
		map[string]any{"file_path": "jobs/posting.pdf"},
		map[string]string{EnvironmentHeader: "staging"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.EnvStaging, stub.env)
}

func TestHandleExtractFromFile_DefaultEnvironment(t *testing.T) {
	stub := &stubExtractor{job: &models.ExtractedJob{Title: "Nurse"}}
	app := NewApp("job-extractor", zap.NewNop())
	NewExtractHandler(stub, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/job-extractor/extract-from-file", map[string]any{"file_path": "jobs/posting.pdf"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.EnvProduction, stub.env)
}

// --- matching ---

type stubJobRepo struct{ exists bool }

func (s *stubJobRepo) FindByID(env string, id int64) (*models.Job, error) { return nil, nil }
func (s *stubJobRepo) Exists(env string, id int64) (bool, error) { return s.exists, nil }
func (s *stubJobRepo) FindBySpecialty(env, rosettaID string) ([]models.Job, error) {
	return nil, nil
}
func (s *stubJobRepo) ListAll(env string) ([]models.Job, error) { return nil, nil }

type stubUserRepo struct{ exists bool }

func (s *stubUserRepo) FindByUserID(env string, userID uuid.UUID) (*models.UserProfile, error) {
	return nil, nil
}
func (s *stubUserRepo) Exists(env string, userID uuid.UUID) (bool, error) { return s.exists, nil }
func (s *stubUserRepo) ListAll(env string) ([]models.UserProfile, error) { return nil, nil }
func (s *stubUserRepo) Specialties(env string, userID uuid.UUID) ([]models.MedicalSpecialty, error) {
	return nil, nil
}
func (s *stubUserRepo) ProfileData(env string, userID uuid.UUID) (*models.ProfileData, error) {
	return nil, nil
}
func (s *stubUserRepo) UpdateMatchingStatus(env string, userID uuid.UUID, status models.MatchingStatus) error {
	return nil
}
func (s *stubUserRepo) AllSpecialties(env string) ([]models.MedicalSpecialty, error) {
	return nil, nil
}

type stubRunRepo struct {
	created *models.MatchRun
	found   *models.MatchRun
}

func (s *stubRunRepo) Create(run *models.MatchRun) error { s.created = run; return nil }
func (s *stubRunRepo) FindByID(id uuid.UUID) (*models.MatchRun, error) {
	if s.found == nil {
		return nil, repositories.ErrNotFound
	}
	return s.found, nil
}
func (s *stubRunRepo) UpdateStatus(id uuid.UUID, status models.MatchRunStatus) error { return nil }
func (s *stubRunRepo) Complete(id uuid.UUID, targetsScanned, matchesFound int) error { return nil }
func (s *stubRunRepo) Fail(id uuid.UUID, errorMsg string) error                      { return nil }
func (s *stubRunRepo) FindPending(limit int) ([]models.MatchRun, error) { return nil, nil }

type stubWorker struct{ enqueued []uuid.UUID }

func (s *stubWorker) Start(ctx context.Context) {}
func (s *stubWorker) Stop() {}
func (s *stubWorker) EnqueueRun(runID uuid.UUID) {
	s.enqueued = append(s.enqueued, runID)
}

func matchApp(runRepo *stubRunRepo, jobExists, userExists bool, worker *stubWorker) *fiber.App {
	app := NewApp("job-matcher", zap.NewNop())
	NewMatchHandler(
		runRepo,
		&stubJobRepo{exists: jobExists},
		&stubUserRepo{exists: userExists},
		worker,
		testConfig(),
	).Register(app)
	return app
}

func TestHandleMatchJob_Accepted(t *testing.T) {
	runRepo := &stubRunRepo{}
	worker := &stubWorker{}
	app := matchApp(runRepo, true, false, worker)

	resp := postJSON(t, app, "/api/job-matcher/match",
		map[string]any{"job_id": "42", "overwrite_existing_matches": true},
		map[string]string{EnvironmentHeader: "development"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body models.MatchAcceptedResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "accepted", body.Status)
	assert.Equal(t, "42", body.JobID)
	assert.NotEmpty(t, body.RunID)

	require.NotNil(t, runRepo.created)
	assert.Equal(t, models.RunJobToUsers, runRepo.created.Kind)
	assert.Equal(t, config.EnvDevelopment, runRepo.created.Environment)
	assert.True(t, runRepo.created.Overwrite)
	assert.Len(t, worker.enqueued, 1)
}

func TestHandleMatchJob_JobNotFound(t *testing.T) {
	app := matchApp(&stubRunRepo{}, false, false, &stubWorker{})

	resp := postJSON(t, app, "/api/job-matcher/match", map[string]any{"job_id": "42"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleMatchJob_InvalidJobID(t *testing.T) {
	app := matchApp(&stubRunRepo{}, true, false, &stubWorker{})

	resp := postJSON(t, app, "/api/job-matcher/match", map[string]any{"job_id": "abc"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleMatchUser_Accepted(t *testing.T) {
	runRepo := &stubRunRepo{}
	worker := &stubWorker{}
	app := matchApp(runRepo, false, true, worker)

	userID := uuid.New().String()
	resp := postJSON(t, app, "/api/job-matcher/match-user", map[string]any{"user_id": userID}, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.NotNil(t, runRepo.created)
	assert.Equal(t, models.RunUserToJobs, runRepo.created.Kind)
	assert.Equal(t, userID, runRepo.created.TargetID)
	assert.Len(t, worker.enqueued, 1)
}

func TestHandleMatchUser_InvalidUUID(t *testing.T) {
	app := matchApp(&stubRunRepo{}, false, true, &stubWorker{})

	resp := postJSON(t, app, "/api/job-matcher/match-user", map[string]any{"user_id": "not-a-uuid"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetRun(t *testing.T) {
	run := &models.MatchRun{
		ID:             uuid.New(),
		Kind:           models.RunJobToUsers,
		TargetID:       "42",
		Status:         models.RunCompleted,
		TargetsScanned: 10,
		MatchesFound:   3,
	}
	app := matchApp(&stubRunRepo{found: run}, true, true, &stubWorker{})

	req := httptest.NewRequest(http.MethodGet, "/api/job-matcher/match-run/"+run.ID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.MatchRunResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "completed", body.Status)
	assert.Equal(t, 3, body.MatchesFound)
}

func TestHandleGetRun_NotFound(t *testing.T) {
	app := matchApp(&stubRunRepo{}, true, true, &stubWorker{})

	req := httptest.NewRequest(http.MethodGet, "/api/job-matcher/match-run/"+uuid.New().String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- parsing ---

type stubParser struct {
	resume *models.ParsedResume
	env    string
	err    error
}

func (s *stubParser) ParseResume(ctx context.Context, environment, filePath string) (*models.ParsedResume, error) {
	s.env = environment
	if s.err != nil {
		return nil, s.err
	}
	return s.resume, nil
}

func TestHandleParseResume(t *testing.T) {
	stub := &stubParser{resume: &models.ParsedResume{
		Profile: models.ParsedProfile{FirstName: "Ana", LastName: "Silva"},
	}}
	app := NewApp("resume-parser", zap.NewNop())
	NewParseHandler(stub, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/hcp/user-profile",
		map[string]any{"file_path": "development/user_files/abc/cv.pdf"},
		map[string]string{EnvironmentHeader: "development"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.EnvDevelopment, stub.env)

	var body models.ParsedResume
	decodeBody(t, resp, &body)
	assert.Equal(t, "Ana", body.Profile.FirstName)
}

func TestHandleParseResume_MissingFilePath(t *testing.T) {
	app := NewApp("resume-parser", zap.NewNop())
	NewParseHandler(&stubParser{}, testConfig()).Register(app)

	resp := postJSON(t, app, "/api/hcp/user-profile", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorHandler_UnknownErrorIs500(t *testing.T) {
	app := NewApp("test-service", zap.NewNop())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("something broke")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
