package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/rover-console/pkg/config"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/services"
)

const yamlContentType = "application/x-yaml"

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	settingsService services.SettingsService
	logger          customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(settingsService services.SettingsService, logger customlog.Logger) *ConfigHandler {
	if settingsService == nil {
		panic("SettingsService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, settingsService services.SettingsService, logger customlog.Logger) {
	h := NewConfigHandler(settingsService, logger)

	apiGroup := app.Group("/api/v1/config")

	// JSON by default, YAML when the client asks for it
	apiGroup.Get("/polling", h.handleGetPollingConfig)
	apiGroup.Put("/polling", h.handleUpdatePollingConfig)

	logger.Infof("Registered polling configuration API endpoints under /api/v1/config")
}

// handleGetPollingConfig handles GET requests to retrieve the current polling config.
func (h *ConfigHandler) handleGetPollingConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config/polling")

	if !wantsYAML(c.Get(fiber.HeaderAccept)) {
		return c.JSON(h.settingsService.GetCurrentSettings())
	}

	yamlData, err := h.settingsService.GetCurrentSettingsYAML()
	if err != nil {
		h.logger.Errorf("Failed to render polling config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}
	c.Set(fiber.HeaderContentType, yamlContentType)
	return c.Send(yamlData)
}

// handleUpdatePollingConfig handles PUT requests to save the polling config.
func (h *ConfigHandler) handleUpdatePollingConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling PUT request for /api/v1/config/polling")

	body := c.Body()
	if len(body) == 0 {
		h.logger.Errorf("Received empty body in PUT request for polling config update.")
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	var err error
	if wantsYAML(c.Get(fiber.HeaderContentType)) {
		err = h.settingsService.UpdateSettingsYAML(body)
	} else {
		var cfg config.PollingConfig
		if perr := c.BodyParser(&cfg); perr != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid configuration body: %v", perr),
			})
		}
		err = h.settingsService.UpdateSettings(cfg)
	}

	if err != nil {
		h.logger.Errorf("Failed to update polling configuration: %v", err)
		if errors.Is(err, services.ErrInvalidSettings) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Configuration update failed: %v", err),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during configuration update: %v", err),
		})
	}

	h.logger.Infof("Successfully processed PUT request to update polling configuration.")
	return c.JSON(h.settingsService.GetCurrentSettings())
}

func wantsYAML(header string) bool {
	return strings.Contains(header, "yaml")
}
