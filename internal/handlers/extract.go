package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/services"
)

type ExtractHandler struct {
	extractor services.ExtractorService
	cfg       *config.Config
}

func NewExtractHandler(extractor services.ExtractorService, cfg *config.Config) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, cfg: cfg}
}

// Register wires the extraction routes onto the app.
func (h *ExtractHandler) Register(app *fiber.App) {
	g := app.Group("/api/job-extractor")
	g.Post("/extract", h.HandleExtract)
	g.Post("/extract-from-file", h.HandleExtractFromFile)
}

// HandleExtract handles POST /api/job-extractor/extract
func (h *ExtractHandler) HandleExtract(c *fiber.Ctx) error {
	var req models.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	env := h.cfg.ResolveEnvironment(c.Get(EnvironmentHeader))
	job, err := h.extractor.ExtractFromURL(c.UserContext(), env, req.JobURL)
	if err != nil {
		return err
	}

	return c.JSON(job)
}

// HandleExtractFromFile handles POST /api/job-extractor/extract-from-file
func (h *ExtractHandler) HandleExtractFromFile(c *fiber.Ctx) error {
	var req models.ExtractFromFileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	env := h.cfg.ResolveEnvironment(c.Get(EnvironmentHeader))
	job, err := h.extractor.ExtractFromFile(c.UserContext(), env, req)
	if err != nil {
		return err
	}

	return c.JSON(job)
}
