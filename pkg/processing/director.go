package processing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// Constants for priority levels
const (
	PriorityHigh     = "HIGH"
	PriorityStandard = "STANDARD"
	PriorityLow      = "LOW"
)

// ErrDirectorStopped is returned by Submit before Start or after Stop.
var ErrDirectorStopped = errors.New("request director is not running")

// RequestDirector routes rover requests to the lane registered for their endpoint.
type RequestDirector struct {
	logger           customlog.Logger
	highPriorityPool *ProcessingPool
	standardPool     *ProcessingPool
	lowPriorityPool  *ProcessingPool
	registry         *EndpointRegistry
	resultHandler    ResultHandler
	running          bool
	mu               sync.RWMutex

	defaultQueueSize int
}

// DirectorOptions holds configuration options for the RequestDirector
type DirectorOptions struct {
	DefaultQueueSize int
}

// NewRequestDirector creates a new request director
func NewRequestDirector(
	logger customlog.Logger,
	registry *EndpointRegistry,
	options *DirectorOptions,
) *RequestDirector {
	if options == nil {
		options = &DirectorOptions{
			DefaultQueueSize: 100,
		}
	}

	return &RequestDirector{
		logger:           logger,
		registry:         registry,
		defaultQueueSize: options.DefaultQueueSize,
	}
}

// Initialize creates the lanes with the given worker counts
func (d *RequestDirector) Initialize(highWorkers, standardWorkers, lowWorkers int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.highPriorityPool = NewProcessingPool(PriorityHigh, highWorkers, d.defaultQueueSize, d.logger)
	d.standardPool = NewProcessingPool(PriorityStandard, standardWorkers, d.defaultQueueSize, d.logger)
	d.lowPriorityPool = NewProcessingPool(PriorityLow, lowWorkers, d.defaultQueueSize, d.logger)

	handler := d.handleResult
	d.highPriorityPool.SetResultHandler(handler)
	d.standardPool.SetResultHandler(handler)
	d.lowPriorityPool.SetResultHandler(handler)

	d.logger.Infof("Request Director initialized with lanes: HIGH(%d), STANDARD(%d), LOW(%d)",
		highWorkers, standardWorkers, lowWorkers)
}

// SetResultHandler sets an extra observer for every completed request
func (d *RequestDirector) SetResultHandler(handler ResultHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resultHandler = handler
}

func (d *RequestDirector) handleResult(result *ProcessResult) {
	d.registry.RecordResult(result)

	d.mu.RLock()
	handler := d.resultHandler
	d.mu.RUnlock()
	if handler != nil {
		handler(result)
	}
}

// Submit queues run on the lane for endpoint. It never waits for run.
func (d *RequestDirector) Submit(endpoint string, run func() error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return ErrDirectorStopped
	}

	priority, exists := d.registry.GetPriority(endpoint)
	if !exists {
		d.logger.Warnf("No lane registered for endpoint '%s', using STANDARD", endpoint)
		priority = PriorityStandard
	}

	req := &Request{Endpoint: endpoint, Run: run, Enqueued: time.Now()}

	var successful bool
	switch priority {
	case PriorityHigh:
		successful = d.highPriorityPool.Submit(req)
	case PriorityLow:
		successful = d.lowPriorityPool.Submit(req)
	default:
		successful = d.standardPool.Submit(req)
	}

	if !successful {
		return fmt.Errorf("failed to enqueue %s request (priority: %s)", endpoint, priority)
	}
	return nil
}

// Run calls run on the caller's goroutine and records the result like a
// queued request. Periodic polls use it so that one slow call never holds
// up the next tick.
func (d *RequestDirector) Run(endpoint string, run func() error) error {
	start := time.Now()
	err := run()
	d.handleResult(&ProcessResult{
		Endpoint:  endpoint,
		Timestamp: start.UnixNano(),
		Duration:  time.Since(start),
		Error:     err,
	})
	return err
}

// Start starts all lanes
func (d *RequestDirector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}

	d.running = true
	d.logger.Infof("Starting Request Director")

	d.highPriorityPool.Start()
	d.standardPool.Start()
	d.lowPriorityPool.Start()
}

// Stop drains and stops all lanes
func (d *RequestDirector) Stop() {
	d.mu.Lock()
	running := d.running
	d.running = false
	d.mu.Unlock()

	if !running {
		return
	}

	d.logger.Infof("Stopping Request Director")

	d.highPriorityPool.Stop()
	d.standardPool.Stop()
	d.lowPriorityPool.Stop()

	d.logger.Infof("Request Director stopped")
}

// GetPoolMetrics returns metrics for all lanes
func (d *RequestDirector) GetPoolMetrics() map[string]PoolMetrics {
	d.mu.RLock()
	defer d.mu.RUnlock()

	metrics := make(map[string]PoolMetrics)

	if d.highPriorityPool != nil {
		metrics[PriorityHigh] = d.highPriorityPool.GetMetrics()
	}
	if d.standardPool != nil {
		metrics[PriorityStandard] = d.standardPool.GetMetrics()
	}
	if d.lowPriorityPool != nil {
		metrics[PriorityLow] = d.lowPriorityPool.GetMetrics()
	}

	return metrics
}

// Registry returns the endpoint registry backing the director
func (d *RequestDirector) Registry() *EndpointRegistry {
	return d.registry
}
