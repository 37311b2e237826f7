package diagnostic

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/rover-console/domain/mission"
	"github.com/open-teleop/rover-console/domain/telemetry"
	"github.com/open-teleop/rover-console/pkg/processing"
)

type staticSource struct {
	lanes map[string]processing.PoolMetrics
	stats []processing.EndpointInfo
}

func (s staticSource) LaneMetrics() map[string]processing.PoolMetrics { return s.lanes }
func (s staticSource) EndpointStats() []processing.EndpointInfo       { return s.stats }
func (s staticSource) ConnectionState() telemetry.State                { return telemetry.Connected }
func (s staticSource) MissionMode() mission.Mode                       { return mission.Autonomous }
func (s staticSource) MissionRunID() string                            { return "run-1" }
func (s staticSource) RoverAddress() string                            { return "http://192.168.4.1" }

func TestRefreshCollectsFromSource(t *testing.T) {
	svc := NewDiagnosticService(staticSource{
		lanes: map[string]processing.PoolMetrics{"high": {ProcessedCount: 3}},
		stats: []processing.EndpointInfo{{Endpoint: "control", Priority: "high", CallCount: 3}},
	})

	m := svc.Refresh()
	assert.Equal(t, "Connected", m.Connection)
	assert.Equal(t, "Autonomous", m.Mode)
	assert.Equal(t, "run-1", m.MissionID)
	assert.Equal(t, int64(3), m.Lanes["high"].ProcessedCount)
	require.Len(t, m.Endpoints, 1)
	assert.Equal(t, m, svc.GetMetrics())
}

func TestRefreshNeverReturnsNilCollections(t *testing.T) {
	m := NewDiagnosticService(staticSource{}).Refresh()
	assert.NotNil(t, m.Lanes)
	assert.NotNil(t, m.Endpoints)
}

func TestGetMetricsHandler(t *testing.T) {
	svc := NewDiagnosticService(staticSource{})
	app := fiber.New()
	app.Get("/diagnostics", svc.GetMetricsHandler)

	resp, err := app.Test(httptest.NewRequest("GET", "/diagnostics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out struct {
		Status  string        `json:"status"`
		Metrics SystemMetrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, "http://192.168.4.1", out.Metrics.RoverAddress)
}
