package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/fetch"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
	"github.com/carematch/ai-services/internal/storage"
)

// EnvironmentHeader selects which Supabase environment a request runs
// against.
const EnvironmentHeader = "X-Environment"

var validate = validator.New()

// NewApp builds a Fiber app with the middleware and routes shared by all
// four services. The service name ("job-enricher" etc.) shows up in the
// root banner, the health payload and the metrics gauge.
func NewApp(service string, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      service,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + EnvironmentHeader,
	}))
	app.Use(requestLogger(logger))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": service,
			"status":  "ok",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": service,
		})
	})

	// Static gauge scraped by the load balancer health checks.
	gauge := strings.ReplaceAll(service, "-", "_") + "_health"
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/plain; charset=utf-8")
		return c.SendString(fmt.Sprintf("# TYPE %s gauge\n%s 1\n", gauge, gauge))
	})

	return app
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return err
	}
}

// errorHandler maps domain errors to HTTP status codes. Handlers can
// simply return errors from the service layer.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, repositories.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, storage.ErrObjectNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, fetch.ErrForbidden):
		code = fiber.StatusForbidden
	case errors.Is(err, fetch.ErrInvalidURL):
		code = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, services.ErrBadModelReply):
		code = fiber.StatusBadGateway
	case errors.Is(err, llm.ErrCircuitOpen):
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

// validationError flattens validator output into a 400 response.
func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
		"code":  fiber.StatusBadRequest,
	})
}
