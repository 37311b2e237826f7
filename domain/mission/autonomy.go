package mission

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/processing"
	"github.com/open-teleop/rover-console/pkg/rover"
)

// DefaultSettleDelay separates the waypoint upload from the start call.
// The start is not conditioned on the upload's outcome.
const DefaultSettleDelay = 500 * time.Millisecond

// ErrNoWaypoints is returned when a mission is started with an empty plan.
var ErrNoWaypoints = errors.New("no waypoints set")

// Mode is the mission mode as last known to the console.
type Mode int

const (
	Manual Mode = iota
	Autonomous
)

func (m Mode) String() string {
	if m == Autonomous {
		return "Autonomous"
	}
	return "Manual"
}

// Transport is the part of the rover client missions need.
type Transport interface {
	UploadWaypoints(waypoints []rover.Waypoint) (rover.Ack, error)
	Start() (rover.Ack, error)
	Stop() (rover.Ack, error)
}

// Submitter queues a rover call without waiting for it.
type Submitter interface {
	Submit(endpoint string, run func() error) error
}

// Autonomy sequences mission start and stop. Its mode is optimistic after
// a successful start or stop and is overwritten by every poll.
type Autonomy struct {
	mu        sync.Mutex
	mode      Mode
	runID     string
	pending   *time.Timer
	settle    time.Duration
	store     *WaypointStore
	transport Transport
	lanes     Submitter
	log       ActivityLog
	projector Projector
	logger    customlog.Logger
}

// NewAutonomy creates a controller in Manual mode.
func NewAutonomy(store *WaypointStore, transport Transport, lanes Submitter, log ActivityLog,
	projector Projector, logger customlog.Logger, settle time.Duration) *Autonomy {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	a := &Autonomy{
		mode:      Manual,
		settle:    settle,
		store:     store,
		transport: transport,
		lanes:     lanes,
		log:       log,
		projector: projector,
		logger:    logger,
	}
	a.projectMode(Manual)
	return a
}

// StartMission uploads the plan, then starts the rover after the settle
// delay. An empty plan makes no rover calls.
func (a *Autonomy) StartMission() (string, error) {
	waypoints := a.store.Snapshot()
	if len(waypoints) == 0 {
		return "", ErrNoWaypoints
	}

	runID := uuid.NewString()
	logger := a.logger.WithField("mission", runID)
	logger.Infof("Starting mission with %d waypoints", len(waypoints))

	a.upload(waypoints, logger)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Stop()
	}
	a.pending = time.AfterFunc(a.settle, func() {
		a.submit(processing.EndpointStart, func() error {
			if _, err := a.transport.Start(); err != nil {
				logger.Errorf("Start autonomous failed: %v", err)
				a.log.AppendLocalf("Error: %v", err)
				return err
			}
			a.setMode(Autonomous, runID)
			a.log.AppendLocal("Autonomous mode started")
			return nil
		})
	})
	return runID, nil
}

// SendWaypoints uploads the plan without starting.
func (a *Autonomy) SendWaypoints() error {
	waypoints := a.store.Snapshot()
	if len(waypoints) == 0 {
		return ErrNoWaypoints
	}
	a.upload(waypoints, a.logger)
	return nil
}

// StopMission asks the rover to leave autonomous mode. A start still
// waiting out its settle delay is cancelled.
func (a *Autonomy) StopMission() {
	a.mu.Lock()
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
	a.mu.Unlock()

	a.submit(processing.EndpointStop, func() error {
		if _, err := a.transport.Stop(); err != nil {
			a.logger.Errorf("Stop autonomous failed: %v", err)
			a.log.AppendLocalf("Error: %v", err)
			return err
		}
		a.setMode(Manual, "")
		a.log.AppendLocal("Autonomous mode stopped")
		return nil
	})
}

// SyncMode applies the server-reported mode. The server always wins.
func (a *Autonomy) SyncMode(autonomous bool) {
	mode := Manual
	if autonomous {
		mode = Autonomous
	}
	a.mu.Lock()
	runID := a.runID
	if mode == Manual {
		runID = ""
	}
	a.mu.Unlock()
	a.setMode(mode, runID)
}

// Mode returns the current mission mode.
func (a *Autonomy) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// RunID identifies the autonomous run the console started, if any.
func (a *Autonomy) RunID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runID
}

// Close cancels a pending start.
func (a *Autonomy) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

func (a *Autonomy) upload(waypoints []rover.Waypoint, logger customlog.Logger) {
	a.submit(processing.EndpointWaypoints, func() error {
		if _, err := a.transport.UploadWaypoints(waypoints); err != nil {
			logger.Errorf("Send waypoints failed: %v", err)
			a.log.AppendLocalf("Error: %v", err)
			return err
		}
		a.log.AppendLocalf("%d waypoints sent to rover", len(waypoints))
		return nil
	})
}

func (a *Autonomy) submit(endpoint string, run func() error) {
	if err := a.lanes.Submit(endpoint, run); err != nil {
		a.logger.Errorf("Request %s not sent: %v", endpoint, err)
		a.log.AppendLocalf("Error: %v", err)
	}
}

func (a *Autonomy) setMode(mode Mode, runID string) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.runID = runID
	a.mu.Unlock()

	if changed {
		a.logger.Infof("Mission mode: %s", mode)
	}
	a.projectMode(mode)
}

func (a *Autonomy) projectMode(mode Mode) {
	if a.projector != nil {
		a.projector.SetSlot(SlotMode, mode.String())
	}
}
