package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/rover-console/domain/mission"
	"github.com/open-teleop/rover-console/domain/telemetry"
	"github.com/open-teleop/rover-console/pkg/processing"
)

// SystemMetrics represents console diagnostics information
type SystemMetrics struct {
	Timestamp    time.Time                         `json:"timestamp"`
	Uptime       string                            `json:"uptime"`
	RoverAddress string                            `json:"rover_address"`
	Connection   string                            `json:"connection"`
	Mode         string                            `json:"mode"`
	MissionID    string                            `json:"mission_id,omitempty"`
	Lanes        map[string]processing.PoolMetrics `json:"lanes"`
	Endpoints    []processing.EndpointInfo         `json:"endpoints"`
}

// Source is the part of the console the diagnostics read from.
type Source interface {
	LaneMetrics() map[string]processing.PoolMetrics
	EndpointStats() []processing.EndpointInfo
	ConnectionState() telemetry.State
	MissionMode() mission.Mode
	MissionRunID() string
	RoverAddress() string
}

// DiagnosticService handles console diagnostics
type DiagnosticService struct {
	mu      sync.RWMutex
	source  Source
	started time.Time
	metrics SystemMetrics
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(source Source) *DiagnosticService {
	return &DiagnosticService{
		source:  source,
		started: time.Now(),
		metrics: SystemMetrics{
			Timestamp: time.Now(),
			Lanes:     map[string]processing.PoolMetrics{},
			Endpoints: []processing.EndpointInfo{},
		},
	}
}

// GetMetricsHandler handles API requests for console metrics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.Refresh(),
	})
}

// Refresh collects fresh metrics from the source and stores them.
func (s *DiagnosticService) Refresh() SystemMetrics {
	now := time.Now()
	metrics := SystemMetrics{
		Timestamp:    now,
		Uptime:       now.Sub(s.started).Round(time.Second).String(),
		RoverAddress: s.source.RoverAddress(),
		Connection:   s.source.ConnectionState().String(),
		Mode:         s.source.MissionMode().String(),
		MissionID:    s.source.MissionRunID(),
		Lanes:        s.source.LaneMetrics(),
		Endpoints:    s.source.EndpointStats(),
	}
	if metrics.Lanes == nil {
		metrics.Lanes = map[string]processing.PoolMetrics{}
	}
	if metrics.Endpoints == nil {
		metrics.Endpoints = []processing.EndpointInfo{}
	}

	s.mu.Lock()
	s.metrics = metrics
	s.mu.Unlock()
	return metrics
}

// GetMetrics returns the last collected metrics
func (s *DiagnosticService) GetMetrics() SystemMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.metrics
}
