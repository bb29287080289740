package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
)

type MatchHandler struct {
	runRepo  repositories.MatchRunRepository
	jobRepo  repositories.JobRepository
	userRepo repositories.UserRepository
	worker   services.Worker
	cfg      *config.Config
}

func NewMatchHandler(
	runRepo repositories.MatchRunRepository,
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	worker services.Worker,
	cfg *config.Config,
) *MatchHandler {
	return &MatchHandler{
		runRepo:  runRepo,
		jobRepo:  jobRepo,
		userRepo: userRepo,
		worker:   worker,
		cfg:      cfg,
	}
}

// Register wires the matching routes onto the app.
func (h *MatchHandler) Register(app *fiber.App) {
	g := app.Group("/api/job-matcher")
	g.Post("/match", h.HandleMatchJob)
	g.Post("/match-user", h.HandleMatchUser)
	g.Get("/match-run/:id", h.HandleGetRun)
}

// HandleMatchJob handles POST /api/job-matcher/match. The match pass runs in the
// background; the response only acknowledges the queued run.
func (h *MatchHandler) HandleMatchJob(c *fiber.Ctx) error {
	var req models.MatchJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	jobID, err := strconv.ParseInt(req.JobID, 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job_id format",
		})
	}

	env := h.cfg.ResolveEnvironment(c.Get(EnvironmentHeader))

	exists, err := h.jobRepo.Exists(env, jobID)
	if err != nil {
		return err
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}

	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunJobToUsers,
		TargetID:    req.JobID,
		Environment: env,
		Overwrite:   req.OverwriteExistingMatches,
		Status:      models.RunQueued,
	}
	if err := h.runRepo.Create(run); err != nil {
		return err
	}

	h.worker.EnqueueRun(run.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.MatchAcceptedResponse{
		Status:  "accepted",
		JobID:   req.JobID,
		RunID:   run.ID.String(),
		Message: "Matching started in background",
	})
}

// HandleMatchUser handles POST /api/job-matcher/match-user.
func (h *MatchHandler) HandleMatchUser(c *fiber.Ctx) error {
	var req models.MatchUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user_id format",
		})
	}

	env := h.cfg.ResolveEnvironment(c.Get(EnvironmentHeader))

	exists, err := h.userRepo.Exists(env, userID)
	if err != nil {
		return err
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	run := &models.MatchRun{
		ID:          uuid.New(),
		Kind:        models.RunUserToJobs,
		TargetID:    req.UserID,
		Environment: env,
		Overwrite:   req.OverwriteExistingMatches,
		Status:      models.RunQueued,
	}
	if err := h.runRepo.Create(run); err != nil {
		return err
	}

	h.worker.EnqueueRun(run.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.MatchAcceptedResponse{
		Status:  "accepted",
		UserID:  req.UserID,
		RunID:   run.ID.String(),
		Message: "Matching started in background",
	})
}

// HandleGetRun handles GET /api/job-matcher/match-run/:id
func (h *MatchHandler) HandleGetRun(c *fiber.Ctx) error {
	runID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid run id format",
		})
	}

	run, err := h.runRepo.FindByID(runID)
	if err != nil {
		return err
	}

	return c.JSON(models.MatchRunResponse{
		ID:             run.ID.String(),
		Kind:           string(run.Kind),
		TargetID:       run.TargetID,
		Status:         string(run.Status),
		TargetsScanned: run.TargetsScanned,
		MatchesFound:   run.MatchesFound,
		ErrorMessage:   run.ErrorMessage,
	})
}
