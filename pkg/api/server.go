package api

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/open-teleop/rover-console/domain/diagnostic"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/services"
)

// ServerOptions configures NewServer.
type ServerOptions struct {
	AppName   string
	StaticDir string
	// RequestLogging turns on the per-request access log.
	RequestLogging bool
}

// NewServer builds the operator-facing Fiber app with every route registered.
func NewServer(console ConsoleService, settings services.SettingsService, diagnostics *diagnostic.DiagnosticService,
	logger customlog.Logger, opts ServerOptions) *fiber.App {
	if opts.AppName == "" {
		opts.AppName = "Rover Console"
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	if opts.RequestLogging {
		app.Use(fiberlogger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	RegisterWebSocketRoutes(app, console, logger)
	RegisterConsoleRoutes(app, console, logger)
	RegisterConfigRoutes(app, settings, logger)
	if diagnostics != nil {
		app.Get("/api/console/diagnostics", diagnostics.GetMetricsHandler)
	}

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
		logger.Infof("Serving operator views from %s", opts.StaticDir)
	} else {
		app.Get("/", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status":  "online",
				"service": "rover console",
			})
		})
	}
	return app
}

// ErrorHandler renders every unhandled error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
