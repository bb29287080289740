package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/repositories"
)

// Worker drains the match_run queue. Runs are enqueued by the HTTP
// handlers and, after a restart, re-discovered by the poller.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueRun(runID uuid.UUID)
}

type worker struct {
	runRepo      repositories.MatchRunRepository
	matcher      MatcherService
	runQueue     chan uuid.UUID
	concurrency  int
	pollInterval time.Duration
	logger       *zap.Logger
	wg           sync.WaitGroup
	stopChan     chan struct{}
}

func NewWorker(
	runRepo repositories.MatchRunRepository,
	matcher MatcherService,
	concurrency int,
	pollInterval time.Duration,
	logger *zap.Logger,
) Worker {
	return &worker{
		runRepo:      runRepo,
		matcher:      matcher,
		runQueue:     make(chan uuid.UUID, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting match worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processRuns(ctx, i+1)
	}

	// Re-discover runs that were queued before a restart.
	w.wg.Add(1)
	go w.pollPendingRuns(ctx)
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.logger.Info("stopping match worker")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("match worker stopped")
}

// EnqueueRun implements Worker.
func (w *worker) EnqueueRun(runID uuid.UUID) {
	select {
	case w.runQueue <- runID:
		w.logger.Debug("run enqueued", zap.String("run_id", runID.String()))
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue run", zap.String("run_id", runID.String()))
	}
}

func (w *worker) processRuns(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("worker stopped", zap.Int("worker_id", workerID))
			return
		case runID := <-w.runQueue:
			w.logger.Info("processing run",
				zap.Int("worker_id", workerID),
				zap.String("run_id", runID.String()))
			if err := w.processRun(ctx, runID); err != nil {
				w.logger.Error("run failed",
					zap.Int("worker_id", workerID),
					zap.String("run_id", runID.String()),
					zap.Error(err))
			}
		}
	}
}

func (w *worker) processRun(ctx context.Context, runID uuid.UUID) error {
	run, err := w.runRepo.FindByID(runID)
	if err != nil {
		return err
	}

	// Another worker may have grabbed the run already.
	if run.Status != models.RunQueued {
		return nil
	}

	if err := w.runRepo.UpdateStatus(runID, models.RunProcessing); err != nil {
		return err
	}

	scanned, found, err := w.executeRun(ctx, run)
	if err != nil {
		if failErr := w.runRepo.Fail(runID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark run as failed",
				zap.String("run_id", runID.String()),
				zap.Error(failErr))
		}
		return err
	}

	return w.runRepo.Complete(runID, scanned, found)
}

func (w *worker) executeRun(ctx context.Context, run *models.MatchRun) (int, int, error) {
	switch run.Kind {
	case models.RunJobToUsers:
		jobID, err := strconv.ParseInt(run.TargetID, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid job id %q: %w", run.TargetID, err)
		}
		return w.matcher.MatchJobToUsers(ctx, run.Environment, jobID, run.Overwrite)
	case models.RunUserToJobs:
		userID, err := uuid.Parse(run.TargetID)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid user id %q: %w", run.TargetID, err)
		}
		return w.matcher.MatchUserToJobs(ctx, run.Environment, userID, run.Overwrite)
	default:
		return 0, 0, fmt.Errorf("unknown run kind %q", run.Kind)
	}
}

func (w *worker) pollPendingRuns(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			pending, err := w.runRepo.FindPending(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending runs", zap.Error(err))
				continue
			}

			if len(pending) > 0 {
				w.logger.Info("found pending runs", zap.Int("count", len(pending)))
			}

			for _, run := range pending {
				w.EnqueueRun(run.ID)
			}
		}
	}
}
