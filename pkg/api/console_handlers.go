package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/rover-console/domain/activity"
	"github.com/open-teleop/rover-console/domain/drive"
	"github.com/open-teleop/rover-console/domain/mission"
	"github.com/open-teleop/rover-console/domain/telemetry"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/projection"
	"github.com/open-teleop/rover-console/pkg/rover"
	"github.com/open-teleop/rover-console/services"
)

// CenterZoom is the map zoom used when centering on the rover.
const CenterZoom = 18

// ConsoleService is the part of the console the operator API drives.
type ConsoleService interface {
	HandleInput(ev drive.Event) error
	Disconnect(sources ...drive.Source)
	SetSpeed(speed int) int
	Speed() int
	AddWaypoint(lat, lon float64) (int, error)
	ClearWaypoints()
	Waypoints() []rover.Waypoint
	StartMission() (string, error)
	StopMission()
	SendWaypoints() error
	MissionMode() mission.Mode
	MissionRunID() string
	RoverPosition() (telemetry.Fix, bool)
	Board() *projection.Board
	Log(view string) (*activity.Log, bool)
}

// ConsoleHandler holds dependencies for the operator console endpoints.
type ConsoleHandler struct {
	console ConsoleService
	logger  customlog.Logger
}

// NewConsoleHandler creates a new handler for console endpoints.
func NewConsoleHandler(console ConsoleService, logger customlog.Logger) *ConsoleHandler {
	if console == nil {
		panic("ConsoleService cannot be nil in NewConsoleHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConsoleHandler")
	}
	return &ConsoleHandler{
		console: console,
		logger:  logger,
	}
}

// RegisterConsoleRoutes registers the operator console endpoints with the Fiber app.
func RegisterConsoleRoutes(app *fiber.App, console ConsoleService, logger customlog.Logger) {
	h := NewConsoleHandler(console, logger)

	apiGroup := app.Group("/api/console")

	apiGroup.Post("/input", h.handleInput)
	apiGroup.Get("/speed", h.handleGetSpeed)
	apiGroup.Post("/speed", h.handleSetSpeed)

	apiGroup.Get("/waypoints", h.handleListWaypoints)
	apiGroup.Post("/waypoints", h.handleAddWaypoint)
	apiGroup.Delete("/waypoints", h.handleClearWaypoints)

	apiGroup.Post("/mission/start", h.handleStartMission)
	apiGroup.Post("/mission/stop", h.handleStopMission)
	apiGroup.Post("/mission/upload", h.handleUploadWaypoints)

	apiGroup.Get("/state", h.handleGetState)
	apiGroup.Get("/log", h.handleGetLog)
	apiGroup.Get("/rover/position", h.handleGetRoverPosition)

	logger.Infof("Registered console API endpoints under /api/console")
}

func (h *ConsoleHandler) handleInput(c *fiber.Ctx) error {
	var ev drive.Event
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid input event: %v", err),
		})
	}
	if err := h.console.HandleInput(ev); err != nil {
		h.logger.Warnf("Rejected input event %+v: %v", ev, err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ConsoleHandler) handleGetSpeed(c *fiber.Ctx) error {
	return c.JSON(SpeedResponse{Speed: h.console.Speed()})
}

func (h *ConsoleHandler) handleSetSpeed(c *fiber.Ctx) error {
	var req SpeedRequest
	if err := c.BodyParser(&req); err != nil || req.Speed == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must carry a numeric speed.",
		})
	}
	return c.JSON(SpeedResponse{Speed: h.console.SetSpeed(*req.Speed)})
}

func (h *ConsoleHandler) handleListWaypoints(c *fiber.Ctx) error {
	wps := h.console.Waypoints()
	return c.JSON(WaypointsResponse{Count: len(wps), Waypoints: wps})
}

func (h *ConsoleHandler) handleAddWaypoint(c *fiber.Ctx) error {
	var req WaypointRequest
	if err := c.BodyParser(&req); err != nil || req.Lat == nil || req.Lon == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body must carry lat and lon.",
		})
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Coordinates out of range: %f, %f", *req.Lat, *req.Lon),
		})
	}

	index, err := h.console.AddWaypoint(*req.Lat, *req.Lon)
	if err != nil {
		if errors.Is(err, services.ErrMissionActive) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"index": index,
	})
}

func (h *ConsoleHandler) handleClearWaypoints(c *fiber.Ctx) error {
	h.console.ClearWaypoints()
	return c.SendStatus(http.StatusNoContent)
}

func (h *ConsoleHandler) handleStartMission(c *fiber.Ctx) error {
	runID, err := h.console.StartMission()
	if err != nil {
		return h.missionError(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(MissionResponse{
		Mode:      h.console.MissionMode().String(),
		MissionID: runID,
	})
}

func (h *ConsoleHandler) handleStopMission(c *fiber.Ctx) error {
	h.console.StopMission()
	return c.Status(http.StatusAccepted).JSON(MissionResponse{
		Mode:      h.console.MissionMode().String(),
		MissionID: h.console.MissionRunID(),
	})
}

func (h *ConsoleHandler) handleUploadWaypoints(c *fiber.Ctx) error {
	if err := h.console.SendWaypoints(); err != nil {
		return h.missionError(c, err)
	}
	return c.SendStatus(http.StatusAccepted)
}

func (h *ConsoleHandler) missionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, mission.ErrNoWaypoints) {
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.logger.Errorf("Mission request failed: %v", err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (h *ConsoleHandler) handleGetState(c *fiber.Ctx) error {
	return c.JSON(h.console.Board().Snapshot())
}

func (h *ConsoleHandler) handleGetLog(c *fiber.Ctx) error {
	view := c.Query("view", services.ViewDrive)
	l, ok := h.console.Log(view)
	if !ok {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown log view %q", view),
		})
	}
	return c.JSON(LogResponse{
		View:   view,
		Local:  nonNil(l.Local()),
		Server: nonNil(l.Server()),
	})
}

func (h *ConsoleHandler) handleGetRoverPosition(c *fiber.Ctx) error {
	fix, ok := h.console.RoverPosition()
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error": "Rover position not available",
		})
	}
	return c.JSON(PositionResponse{Lat: fix.Lat, Lon: fix.Lon, Zoom: CenterZoom})
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
