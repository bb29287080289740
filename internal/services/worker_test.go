package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/models"
)

type fakeRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*models.MatchRun
}

func newFakeRunRepo(runs ...*models.MatchRun) *fakeRunRepo {
	repo := &fakeRunRepo{runs: make(map[uuid.UUID]*models.MatchRun)}
	for _, run := range runs {
		repo.runs[run.ID] = run
	}
	return repo
}

func (r *fakeRunRepo) Create(run *models.MatchRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *fakeRunRepo) FindByID(id uuid.UUID) (*models.MatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.New("run not found")
	}
	copied := *run
	return &copied, nil
}

func (r *fakeRunRepo) UpdateStatus(id uuid.UUID, status models.MatchRunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id].Status = status
	return nil
}

func (r *fakeRunRepo) Complete(id uuid.UUID, targetsScanned, matchesFound int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.runs[id]
	run.Status = models.RunCompleted
	run.TargetsScanned = targetsScanned
	run.MatchesFound = matchesFound
	return nil
}

func (r *fakeRunRepo) Fail(id uuid.UUID, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.runs[id]
	run.Status = models.RunFailed
	run.ErrorMessage = &errorMsg
	return nil
}

func (r *fakeRunRepo) FindPending(limit int) ([]models.MatchRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []models.MatchRun
	for _, run := range r.runs {
		if run.Status == models.RunQueued && len(pending) < limit {
			pending = append(pending, *run)
		}
	}
	return pending, nil
}

func (r *fakeRunRepo) status(id uuid.UUID) models.MatchRunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id].Status
}

type fakeMatcher struct {
	mu      sync.Mutex
	jobIDs  []int64
	userIDs []uuid.UUID
	err     error
}

func (m *fakeMatcher) MatchJobToUsers(ctx context.Context, env string, jobID int64, overwrite bool) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobIDs = append(m.jobIDs, jobID)
	if m.err != nil {
		return 0, 0, m.err
	}
	return 10, 3, nil
}

func (m *fakeMatcher) MatchUserToJobs(ctx context.Context, env string, userID uuid.UUID, overwrite bool) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIDs = append(m.userIDs, userID)
	if m.err != nil {
		return 0, 0, m.err
	}
	return 5, 5, nil
}

func waitForStatus(t *testing.T, repo *fakeRunRepo, id uuid.UUID, want models.MatchRunStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if repo.status(id) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %s (got %s)", id, want, repo.status(id))
}

func TestWorker_ProcessesJobRun(t *testing.T) {
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    "42",
		Environment: "development",
		Status:      models.RunQueued,
	}
	repo := newFakeRunRepo(run)
	matcher := &fakeMatcher{}

	w := NewWorker(repo, matcher, 1, time.Hour, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueRun(run.ID)
	waitForStatus(t, repo, run.ID, models.RunCompleted)

	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	require.Equal(t, []int64{42}, matcher.jobIDs)

	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.TargetsScanned)
	assert.Equal(t, 3, stored.MatchesFound)
}

func TestWorker_ProcessesUserRun(t *testing.T) {
	userID := uuid.New()
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunUserToJobs,
		TargetID:    userID.String(),
		Environment: "production",
		Status:      models.RunQueued,
	}
	repo := newFakeRunRepo(run)
	matcher := &fakeMatcher{}

	w := NewWorker(repo, matcher, 1, time.Hour, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueRun(run.ID)
	waitForStatus(t, repo, run.ID, models.RunCompleted)

	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	assert.Equal(t, []uuid.UUID{userID}, matcher.userIDs)
}

func TestWorker_MarksFailedRuns(t *testing.T) {
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    "7",
		Environment: "development",
		Status:      models.RunQueued,
	}
	repo := newFakeRunRepo(run)
	matcher := &fakeMatcher{err: errors.New("database unreachable")}

	w := NewWorker(repo, matcher, 1, time.Hour, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueRun(run.ID)
	waitForStatus(t, repo, run.ID, models.RunFailed)

	stored, err := repo.FindByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "database unreachable")
}

func TestWorker_InvalidTargetID(t *testing.T) {
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    "not-a-number",
		Environment: "development",
		Status:      models.RunQueued,
	}
	repo := newFakeRunRepo(run)

	w := NewWorker(repo, &fakeMatcher{}, 1, time.Hour, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueRun(run.ID)
	waitForStatus(t, repo, run.ID, models.RunFailed)
}

func TestWorker_PollerPicksUpQueuedRuns(t *testing.T) {
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    "9",
		Environment: "development",
		Status:      models.RunQueued,
	}
	repo := newFakeRunRepo(run)
	matcher := &fakeMatcher{}

	w := NewWorker(repo, matcher, 1, 20*time.Millisecond, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	// no explicit enqueue: the poller must find it
	waitForStatus(t, repo, run.ID, models.RunCompleted)
}

func TestWorker_SkipsAlreadyProcessedRuns(t *testing.T) {
	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    "42",
		Environment: "development",
		Status:      models.RunCompleted,
	}
	repo := newFakeRunRepo(run)
	matcher := &fakeMatcher{}

	w := NewWorker(repo, matcher, 1, time.Hour, zap.NewNop())
	w.Start(context.Background())

	w.EnqueueRun(run.ID)
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	matcher.mu.Lock()
	defer matcher.mu.Unlock()
	assert.Empty(t, matcher.jobIDs)
}
