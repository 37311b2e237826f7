package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/rover-console/domain/diagnostic"
	"github.com/open-teleop/rover-console/pkg/config"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/processing"
	"github.com/open-teleop/rover-console/pkg/projection"
	"github.com/open-teleop/rover-console/pkg/rover"
	"github.com/open-teleop/rover-console/pkg/store"
	"github.com/open-teleop/rover-console/services"
)

type fakeRover struct {
	mu       sync.Mutex
	address  string
	status   rover.Status
	controls []string
	uploads  int
}

func (f *fakeRover) Control(command string, speed int) (rover.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, command)
	return rover.Ack(`{"status":"ok"}`), nil
}

func (f *fakeRover) Status() (rover.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeRover) UploadWaypoints(waypoints []rover.Waypoint) (rover.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return rover.Ack(`{"status":"ok"}`), nil
}

func (f *fakeRover) Start() (rover.Ack, error) { return rover.Ack(`{"status":"ok"}`), nil }
func (f *fakeRover) Stop() (rover.Ack, error)  { return rover.Ack(`{"status":"ok"}`), nil }
func (f *fakeRover) Log() ([]string, error)    { return []string{"boot ok"}, nil }

func (f *fakeRover) SetAddress(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.address = rover.BaseURL(address)
}

func (f *fakeRover) Address() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

func (f *fakeRover) setStatus(s rover.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeRover) sentControls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.controls...)
}

type harness struct {
	app     *fiber.App
	rover   *fakeRover
	console *services.Console
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := customlog.NewLogrusLoggerWithOutput("error", io.Discard)

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	defaults := config.DefaultPollingConfig("")
	defaults.PollIntervalMs = config.MinPollIntervalMs
	settings, err := services.NewSettingsService(st, defaults, logger)
	require.NoError(t, err)

	rv := &fakeRover{address: rover.BaseURL(defaults.TargetAddress)}
	console := services.NewConsole(rv, services.ConsoleOptions{
		Settings:         settings.GetCurrentSettings(),
		SettleDelay:      10 * time.Millisecond,
		LogFetchInterval: time.Second,
	}, logger)
	settings.SetListener(console)
	require.NoError(t, console.Start(context.Background()))
	t.Cleanup(console.Shutdown)

	app := NewServer(console, settings, diagnostic.NewDiagnosticService(console), logger, ServerOptions{})
	return &harness{app: app, rover: rv, console: console}
}

func (h *harness) do(t *testing.T, method, path, contentType, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := h.app.Test(req, 2000)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(t, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestInputDrivesTheRover(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, "POST", "/api/console/input", fiber.MIMEApplicationJSON,
		`{"source":"btn-forward","edge":"press","command":"forward"}`)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = h.do(t, "POST", "/api/console/input", fiber.MIMEApplicationJSON,
		`{"source":"btn-forward","edge":"release"}`)
	require.Equal(t, http.StatusNoContent, code)

	require.Eventually(t, func() bool {
		return len(h.rover.sentControls()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"forward", "stop"}, h.rover.sentControls())
}

func TestInputRejectsBadEvents(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{
		`{"edge":"press","command":"forward"}`,
		`{"source":"pad","edge":"wiggle"}`,
		`{"source":"pad","edge":"press","command":"jump"}`,
		`not json`,
	} {
		code, _ := h.do(t, "POST", "/api/console/input", fiber.MIMEApplicationJSON, body)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}
	assert.Empty(t, h.rover.sentControls())
}

func TestSpeedIsClamped(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "POST", "/api/console/speed", fiber.MIMEApplicationJSON, `{"speed":5000}`)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"speed":200}`, string(body))

	code, _ = h.do(t, "POST", "/api/console/speed", fiber.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = h.do(t, "GET", "/api/console/speed", "", "")
	assert.JSONEq(t, `{"speed":200}`, string(body))
}

func TestWaypointLifecycle(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "POST", "/api/console/waypoints", fiber.MIMEApplicationJSON, `{"lat":23.81,"lon":90.41}`)
	require.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"index":1}`, string(body))

	code, _ = h.do(t, "POST", "/api/console/waypoints", fiber.MIMEApplicationJSON, `{"lat":123,"lon":90}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, body = h.do(t, "GET", "/api/console/waypoints", "", "")
	var list WaypointsResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, []rover.Waypoint{{Lat: 23.81, Lon: 90.41}}, list.Waypoints)

	code, _ = h.do(t, "DELETE", "/api/console/waypoints", "", "")
	require.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, h.console.Waypoints())
}

func TestMissionWithoutWaypointsConflicts(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, "POST", "/api/console/mission/start", "", "")
	assert.Equal(t, http.StatusConflict, code)
	code, _ = h.do(t, "POST", "/api/console/mission/upload", "", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Zero(t, h.rover.uploads)
}

func TestMissionStartBlocksPlanEdits(t *testing.T) {
	h := newHarness(t)
	h.do(t, "POST", "/api/console/waypoints", fiber.MIMEApplicationJSON, `{"lat":23.81,"lon":90.41}`)
	// keep the poller agreeing with the mission
	h.rover.setStatus(rover.Status{AutonomousMode: true})

	code, body := h.do(t, "POST", "/api/console/mission/start", "", "")
	require.Equal(t, http.StatusAccepted, code)
	var started MissionResponse
	require.NoError(t, json.Unmarshal(body, &started))
	assert.NotEmpty(t, started.MissionID)

	require.Eventually(t, func() bool {
		return h.console.MissionMode().String() == "Autonomous"
	}, time.Second, 5*time.Millisecond)

	code, _ = h.do(t, "POST", "/api/console/waypoints", fiber.MIMEApplicationJSON, `{"lat":23.82,"lon":90.42}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestRoverPosition(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, "GET", "/api/console/rover/position", "", "")
	assert.Equal(t, http.StatusNotFound, code)

	h.rover.setStatus(rover.Status{Latitude: 23.81, Longitude: 90.41, GPSValid: true, Satellites: 7})
	require.Eventually(t, func() bool {
		_, ok := h.console.RoverPosition()
		return ok
	}, time.Second, 5*time.Millisecond)

	code, body := h.do(t, "GET", "/api/console/rover/position", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"lat":23.81,"lon":90.41,"zoom":18}`, string(body))
}

func TestStateAndLogs(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "GET", "/api/console/state", "", "")
	require.Equal(t, http.StatusOK, code)
	var snap projection.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Contains(t, snap.Slots, services.SlotDriveSpeed)

	code, body = h.do(t, "GET", "/api/console/log?view=drive", "", "")
	require.Equal(t, http.StatusOK, code)
	var logs LogResponse
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Equal(t, "drive", logs.View)
	require.NotEmpty(t, logs.Local)
	assert.Contains(t, logs.Local[0], "Manual control ready")

	code, _ = h.do(t, "GET", "/api/console/log?view=garage", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPollingConfigRoutes(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "GET", "/api/v1/config/polling", "", "")
	require.Equal(t, http.StatusOK, code)
	var cfg config.PollingConfig
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, config.DefaultRoverAddress, cfg.TargetAddress)

	code, _ = h.do(t, "PUT", "/api/v1/config/polling", fiber.MIMEApplicationJSON, `{"pollIntervalMs":10}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, "PUT", "/api/v1/config/polling", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(t, "PUT", "/api/v1/config/polling", "application/x-yaml",
		"target_address: 10.0.0.7\npoll_interval_ms: 250\nspeed_limit: 120\n")
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, "http://10.0.0.7", h.console.RoverAddress())
	assert.Equal(t, 250, h.console.Settings().PollIntervalMs)

	req := httptest.NewRequest("GET", "/api/v1/config/polling", nil)
	req.Header.Set(fiber.HeaderAccept, "application/x-yaml")
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "speed_limit: 120")
}

func TestDiagnostics(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, "GET", "/api/console/diagnostics", "", "")
	require.Equal(t, http.StatusOK, code)
	var out struct {
		Status  string                   `json:"status"`
		Metrics diagnostic.SystemMetrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out.Status)
	assert.Contains(t, out.Metrics.Lanes, processing.PriorityHigh)
}

func TestWebSocketRoutesRequireUpgrade(t *testing.T) {
	h := newHarness(t)
	code, body := h.do(t, "GET", "/ws/control", "", "")
	assert.Equal(t, http.StatusUpgradeRequired, code)
	assert.Contains(t, string(body), "error")
}
