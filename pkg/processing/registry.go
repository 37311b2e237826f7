package processing

import (
	"sort"
	"sync"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// Rover API endpoints known to the console.
const (
	EndpointControl   = "control"
	EndpointStatus    = "status"
	EndpointWaypoints = "waypoints"
	EndpointStart     = "start"
	EndpointStop      = "stop"
	EndpointLog       = "log"
)

// EndpointInfo holds routing and call statistics for a rover endpoint
type EndpointInfo struct {
	Endpoint     string `json:"endpoint"`
	Priority     string `json:"priority"`
	CallCount    int64  `json:"count"`
	FailureCount int64  `json:"failures"`
	LastCalled   int64  `json:"last_called_ns"`
	LastError    string `json:"last_error,omitempty"`
}

// EndpointRegistry maps rover endpoints to request lanes and keeps call stats.
type EndpointRegistry struct {
	logger    customlog.Logger
	endpoints map[string]*EndpointInfo
	mu        sync.RWMutex
}

// NewEndpointRegistry creates a registry preloaded with the rover API routes.
// Drive commands get the HIGH lane so a queue of polls never delays a Stop.
func NewEndpointRegistry(logger customlog.Logger) *EndpointRegistry {
	r := &EndpointRegistry{
		logger:    logger,
		endpoints: make(map[string]*EndpointInfo),
	}
	r.Register(EndpointControl, PriorityHigh)
	r.Register(EndpointWaypoints, PriorityStandard)
	r.Register(EndpointStart, PriorityStandard)
	r.Register(EndpointStop, PriorityStandard)
	r.Register(EndpointStatus, PriorityLow)
	r.Register(EndpointLog, PriorityLow)
	return r
}

// Register sets the lane for an endpoint, keeping existing stats.
func (r *EndpointRegistry) Register(endpoint, priority string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.endpoints[endpoint]; ok {
		info.Priority = priority
		return
	}
	r.endpoints[endpoint] = &EndpointInfo{Endpoint: endpoint, Priority: priority}
}

// GetPriority gets the lane for an endpoint
func (r *EndpointRegistry) GetPriority(endpoint string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.endpoints[endpoint]
	if !exists {
		return "", false
	}
	return info.Priority, true
}

// RecordResult updates statistics for an endpoint
func (r *EndpointRegistry) RecordResult(result *ProcessResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.endpoints[result.Endpoint]
	if !exists {
		info = &EndpointInfo{Endpoint: result.Endpoint, Priority: PriorityStandard}
		r.endpoints[result.Endpoint] = info
	}

	info.CallCount++
	info.LastCalled = result.Timestamp
	if result.Error != nil {
		info.FailureCount++
		info.LastError = result.Error.Error()
	}
}

// GetEndpointInfo returns a copy of one endpoint's info
func (r *EndpointRegistry) GetEndpointInfo(endpoint string) (EndpointInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.endpoints[endpoint]
	if !exists {
		return EndpointInfo{}, false
	}
	return *info, true
}

// GetAllEndpoints returns copies of all endpoint records sorted by name
func (r *EndpointRegistry) GetAllEndpoints() []EndpointInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EndpointInfo, 0, len(r.endpoints))
	for _, info := range r.endpoints {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}
