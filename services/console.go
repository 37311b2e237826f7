// Package services wires the engine components into the process-owned
// console and manages its persisted settings.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/open-teleop/rover-console/domain/activity"
	"github.com/open-teleop/rover-console/domain/drive"
	"github.com/open-teleop/rover-console/domain/mission"
	"github.com/open-teleop/rover-console/domain/telemetry"
	"github.com/open-teleop/rover-console/pkg/config"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/processing"
	"github.com/open-teleop/rover-console/pkg/projection"
	"github.com/open-teleop/rover-console/pkg/rover"
	"github.com/open-teleop/rover-console/pkg/schedule"
)

// Console views.
const (
	ViewDrive   = "drive"
	ViewMission = "mission"
)

// Console-level slots.
const (
	SlotConnectionText = "connectionText"
	SlotDriveSpeed     = "speed.value"
)

// Rover calls slower than this are logged at warn.
const slowRequestUs = 1000000

// Periodic job names.
const (
	JobStatus = "status"
	JobLog    = "log"
)

// ErrMissionActive is returned for plan edits while the rover drives itself.
var ErrMissionActive = errors.New("autonomous mission in progress")

// RoverTransport is everything the console asks of the rover.
type RoverTransport interface {
	Control(command string, speed int) (rover.Ack, error)
	Status() (rover.Status, error)
	UploadWaypoints(waypoints []rover.Waypoint) (rover.Ack, error)
	Start() (rover.Ack, error)
	Stop() (rover.Ack, error)
	Log() ([]string, error)
	SetAddress(address string)
	Address() string
}

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	Settings         config.PollingConfig
	SettleDelay      time.Duration
	LogFetchInterval time.Duration
	Processing       config.ProcessingConfig
	// Extra observers, such as the ZeroMQ fan-out.
	Sinks               []telemetry.SnapshotSink
	ConnectionListeners []telemetry.ConnectionListener
}

// Console owns every engine component for one operator session.
type Console struct {
	logger    customlog.Logger
	transport RoverTransport
	director  *processing.RequestDirector
	board     *projection.Board

	driveLog   *activity.Log
	missionLog *activity.Log

	dispatcher *drive.Dispatcher
	arbiter    *drive.Arbiter
	conn       *telemetry.Connection
	poller     *telemetry.Poller
	waypoints  *mission.WaypointStore
	autonomy   *mission.Autonomy
	runner     *schedule.Runner

	logFetchInterval time.Duration

	mu       sync.RWMutex
	settings config.PollingConfig
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
}

// NewConsole builds the engine around transport. Nothing runs until Start.
func NewConsole(transport RoverTransport, opts ConsoleOptions, logger customlog.Logger) *Console {
	if opts.LogFetchInterval <= 0 {
		opts.LogFetchInterval = 5 * time.Second
	}
	// Drive commands must reach the rover in input order.
	if opts.Processing.HighPriorityWorkers != 1 {
		if opts.Processing.HighPriorityWorkers > 1 {
			logger.Warnf("Ignoring high_priority_workers=%d, the drive lane runs one worker",
				opts.Processing.HighPriorityWorkers)
		}
		opts.Processing.HighPriorityWorkers = 1
	}
	if opts.Processing.StandardPriorityWorkers <= 0 {
		opts.Processing.StandardPriorityWorkers = 2
	}
	if opts.Processing.LowPriorityWorkers <= 0 {
		opts.Processing.LowPriorityWorkers = 2
	}
	if opts.Processing.QueueSize <= 0 {
		opts.Processing.QueueSize = 100
	}

	board := projection.NewBoard()
	c := &Console{
		logger:           logger,
		transport:        transport,
		board:            board,
		settings:         opts.Settings,
		logFetchInterval: opts.LogFetchInterval,
	}

	registry := processing.NewEndpointRegistry(logger)
	c.director = processing.NewRequestDirector(logger, registry, &processing.DirectorOptions{
		DefaultQueueSize: opts.Processing.QueueSize,
	})
	c.director.Initialize(opts.Processing.HighPriorityWorkers,
		opts.Processing.StandardPriorityWorkers, opts.Processing.LowPriorityWorkers)
	c.director.SetResultHandler(processing.NewLoggingResultHandler(logger, slowRequestUs).CreateHandlerFunc())

	c.driveLog = activity.NewLog(ViewDrive, activity.DriveCapacity, board)
	c.missionLog = activity.NewLog(ViewMission, activity.MissionCapacity, board)

	c.dispatcher = drive.NewDispatcher(transport, c.director, c.driveLog,
		logger.WithField("component", "drive"), opts.Settings.SpeedLimit)
	c.arbiter = drive.NewArbiter(c.dispatcher, board, logger.WithField("component", "input"))

	listeners := append([]telemetry.ConnectionListener{
		telemetry.ConnectionListenerFunc(c.projectConnection),
	}, opts.ConnectionListeners...)
	c.conn = telemetry.NewConnection(logger.WithField("component", "connection"), listeners...)
	c.projectConnection(telemetry.Disconnected)

	c.waypoints = mission.NewWaypointStore(board, c.missionLog)
	c.autonomy = mission.NewAutonomy(c.waypoints, transport, c.director, c.missionLog, board,
		logger.WithField("component", "mission"), opts.SettleDelay)

	c.poller = telemetry.NewPoller(transport, c.conn, logger.WithField("component", "telemetry"),
		telemetry.PollerOptions{
			Mode:      c.autonomy,
			Projector: board,
			ServerLog: c.missionLog,
			Sinks:     opts.Sinks,
		})

	c.runner = schedule.NewRunner(logger)
	board.SetSlot(SlotDriveSpeed, c.dispatcher.Speed())
	return c
}

// Start runs the request lanes and the periodic status and log fetches.
// Both fire once immediately.
func (c *Console) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("console already started")
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.director.Start()
	if err := c.runner.Start(c.ctx, c.jobsLocked(), true); err != nil {
		c.director.Stop()
		c.cancel()
		return fmt.Errorf("failed to start periodic tasks: %w", err)
	}
	c.started = true

	c.driveLog.AppendLocal("Manual control ready")
	c.missionLog.AppendLocal("Control panel initialized")
	c.logger.Infof("Console started against rover %s", c.transport.Address())
	return nil
}

// Shutdown sends a final Stop, cancels the periodic tasks and drains the
// request lanes.
func (c *Console) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return
	}
	c.arbiter.Teardown()
	c.autonomy.Close()
	c.runner.Stop()
	c.cancel()
	c.director.Stop()
	c.started = false
	c.logger.Infof("Console stopped")
}

// ApplySettings retargets the rover client, re-clamps the speed and
// restarts both periodic tasks. No tick of the old schedule fires after
// this returns.
func (c *Console) ApplySettings(cfg config.PollingConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings = cfg
	c.transport.SetAddress(cfg.TargetAddress)
	c.dispatcher.SetSpeedLimit(cfg.SpeedLimit)
	c.board.SetSlot(SlotDriveSpeed, c.dispatcher.Speed())

	if c.started {
		if err := c.runner.Reconfigure(c.ctx, c.jobsLocked()); err != nil {
			return fmt.Errorf("failed to restart periodic tasks: %w", err)
		}
	}
	c.missionLog.AppendLocal("Settings saved")
	return nil
}

// Settings returns the active polling configuration.
func (c *Console) Settings() config.PollingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// HandleInput feeds one input event to the arbiter.
func (c *Console) HandleInput(ev drive.Event) error {
	return c.arbiter.Handle(ev)
}

// Disconnect drops the input sources of a closed operator view and sends
// one final Stop.
func (c *Console) Disconnect(sources ...drive.Source) {
	c.arbiter.Disconnect(sources...)
}

// SetSpeed sets the drive speed and returns the clamped value.
func (c *Console) SetSpeed(speed int) int {
	v := c.dispatcher.SetSpeed(speed)
	c.board.SetSlot(SlotDriveSpeed, v)
	return v
}

// Speed returns the drive speed.
func (c *Console) Speed() int {
	return c.dispatcher.Speed()
}

// AddWaypoint appends to the plan unless a mission is running.
func (c *Console) AddWaypoint(lat, lon float64) (int, error) {
	if c.autonomy.Mode() == mission.Autonomous {
		return 0, ErrMissionActive
	}
	return c.waypoints.Add(lat, lon), nil
}

// ClearWaypoints empties the plan.
func (c *Console) ClearWaypoints() {
	c.waypoints.Clear()
}

// Waypoints returns the plan.
func (c *Console) Waypoints() []rover.Waypoint {
	return c.waypoints.Snapshot()
}

// StartMission uploads the plan and starts the rover after the settle delay.
func (c *Console) StartMission() (string, error) {
	return c.autonomy.StartMission()
}

// StopMission stops the autonomous run.
func (c *Console) StopMission() {
	c.autonomy.StopMission()
}

// SendWaypoints uploads the plan without starting.
func (c *Console) SendWaypoints() error {
	return c.autonomy.SendWaypoints()
}

// MissionMode returns the mission mode.
func (c *Console) MissionMode() mission.Mode {
	return c.autonomy.Mode()
}

// MissionRunID returns the running mission's ID, if any.
func (c *Console) MissionRunID() string {
	return c.autonomy.RunID()
}

// ConnectionState returns the rover connection state.
func (c *Console) ConnectionState() telemetry.State {
	return c.conn.State()
}

// RoverPosition returns the last usable rover position.
func (c *Console) RoverPosition() (telemetry.Fix, bool) {
	return c.poller.LastFix()
}

// Board returns the display model.
func (c *Console) Board() *projection.Board {
	return c.board
}

// Log returns the view's log.
func (c *Console) Log(view string) (*activity.Log, bool) {
	switch view {
	case ViewDrive:
		return c.driveLog, true
	case ViewMission:
		return c.missionLog, true
	}
	return nil, false
}

// LaneMetrics returns the request lane metrics.
func (c *Console) LaneMetrics() map[string]processing.PoolMetrics {
	return c.director.GetPoolMetrics()
}

// EndpointStats returns per-endpoint request statistics.
func (c *Console) EndpointStats() []processing.EndpointInfo {
	return c.director.Registry().GetAllEndpoints()
}

// RoverAddress returns the rover base URL.
func (c *Console) RoverAddress() string {
	return c.transport.Address()
}

func (c *Console) jobsLocked() []schedule.Job {
	return []schedule.Job{
		{Name: JobStatus, Interval: c.settings.PollInterval(), Run: c.direct(processing.EndpointStatus, c.poller.Tick)},
		{Name: JobLog, Interval: c.logFetchInterval, Run: c.direct(processing.EndpointLog, c.poller.FetchLog)},
	}
}

// direct runs a periodic fetch on its tick goroutine. Ticks never share a
// lane, so a hanging call cannot hold back the ones after it.
func (c *Console) direct(endpoint string, run func() error) func() {
	return func() {
		_ = c.director.Run(endpoint, run)
	}
}

func (c *Console) projectConnection(state telemetry.State) {
	c.board.SetConnected(state == telemetry.Connected)
	c.board.SetSlot(SlotConnectionText, state.String())
}
