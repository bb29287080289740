package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/models"
	"github.com/carematch/ai-services/internal/services"
)

type ParseHandler struct {
	parser services.ParserService
	cfg    *config.Config
}

func NewParseHandler(parser services.ParserService, cfg *config.Config) *ParseHandler {
	return &ParseHandler{parser: parser, cfg: cfg}
}

// Register wires the resume parsing route onto the app.
func (h *ParseHandler) Register(app *fiber.App) {
	app.Group("/api/hcp").Post("/user-profile", h.HandleParseResume)
}

// HandleParseResume handles POST /api/hcp/user-profile
func (h *ParseHandler) HandleParseResume(c *fiber.Ctx) error {
	var req models.ParseResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	env := h.cfg.ResolveEnvironment(c.Get(EnvironmentHeader))
	resume, err := h.parser.ParseResume(c.UserContext(), env, req.FilePath)
	if err != nil {
		return err
	}

	return c.JSON(resume)
}
