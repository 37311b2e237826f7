package drive

import (
	"sync"

	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/processing"
	"github.com/open-teleop/rover-console/pkg/rover"
)

// DefaultSpeed is the speed slider's initial value.
const DefaultSpeed = 150

// Transport is the part of the rover client the dispatcher needs.
type Transport interface {
	Control(command string, speed int) (rover.Ack, error)
}

// Submitter queues a rover call without waiting for it.
type Submitter interface {
	Submit(endpoint string, run func() error) error
}

// ActivityLog receives one operator-visible line per command outcome.
type ActivityLog interface {
	AppendLocal(text string)
	AppendLocalf(format string, args ...interface{})
}

// Dispatcher turns a command into exactly one control call. It never
// retries and never waits; overlapping calls may be in flight.
type Dispatcher struct {
	mu         sync.RWMutex
	transport  Transport
	lanes      Submitter
	log        ActivityLog
	logger     customlog.Logger
	speed      int
	speedLimit int
}

// NewDispatcher creates a dispatcher with the default speed clamped to speedLimit.
func NewDispatcher(transport Transport, lanes Submitter, log ActivityLog, logger customlog.Logger, speedLimit int) *Dispatcher {
	d := &Dispatcher{
		transport:  transport,
		lanes:      lanes,
		log:        log,
		logger:     logger,
		speedLimit: speedLimit,
	}
	d.speed = d.clamp(DefaultSpeed)
	return d
}

// Dispatch sends cmd at the current speed.
func (d *Dispatcher) Dispatch(cmd Command) {
	d.DispatchSpeed(cmd, 0)
}

// DispatchSpeed sends cmd at speed; zero means the current speed.
func (d *Dispatcher) DispatchSpeed(cmd Command, speed int) {
	if cmd == None {
		return
	}
	if speed <= 0 {
		speed = d.Speed()
	}

	err := d.lanes.Submit(processing.EndpointControl, func() error {
		if _, err := d.transport.Control(string(cmd), speed); err != nil {
			d.logger.Warnf("Control command %s failed: %v", cmd, err)
			d.log.AppendLocalf("Error: %v", err)
			return err
		}
		d.log.AppendLocalf("Command: %s (speed: %d)", cmd, speed)
		return nil
	})
	if err != nil {
		d.logger.Errorf("Control command %s not sent: %v", cmd, err)
		d.log.AppendLocalf("Error: %v", err)
	}
}

// SetSpeed sets the current speed, clamped to [0, speed limit], and returns it.
func (d *Dispatcher) SetSpeed(speed int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = d.clampLocked(speed)
	return d.speed
}

// Speed returns the current speed.
func (d *Dispatcher) Speed() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.speed
}

// SetSpeedLimit applies a new limit and re-clamps the current speed.
func (d *Dispatcher) SetSpeedLimit(limit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speedLimit = limit
	d.speed = d.clampLocked(d.speed)
}

func (d *Dispatcher) clamp(speed int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.clampLocked(speed)
}

func (d *Dispatcher) clampLocked(speed int) int {
	if speed < 0 {
		return 0
	}
	if d.speedLimit > 0 && speed > d.speedLimit {
		return d.speedLimit
	}
	return speed
}
