package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/services"
)

type EnrichHandler struct {
	enricher services.EnricherService
}

func NewEnrichHandler(enricher services.EnricherService) *EnrichHandler {
	return &EnrichHandler{enricher: enricher}
}

// Register wires the enrichment routes onto the app.
func (h *EnrichHandler) Register(app *fiber.App) {
	g := app.Group("/api/job-enricher")
	g.Post("/enrich", h.HandleEnrich)
	g.Post("/enrich-field", h.HandleEnrichField)
}

// HandleEnrich handles POST /api/job-enricher/enrich
func (h *EnrichHandler) HandleEnrich(c *fiber.Ctx) error {
	var jobData map[string]interface{}
	if err := c.BodyParser(&jobData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	enriched, err := h.enricher.EnrichJob(c.UserContext(), jobData)
	if err != nil {
		return err
	}

	return c.JSON(enriched)
}

// HandleEnrichField handles POST /api/job-enricher/enrich-field
func (h *EnrichHandler) HandleEnrichField(c *fiber.Ctx) error {
	var req models.EnrichFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	result, err := h.enricher.EnrichField(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(result)
}
