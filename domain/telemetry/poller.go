package telemetry

import (
	"fmt"
	"strconv"
	"sync"

	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/rover"
)

// Display slots written on every successful poll.
const (
	SlotPosition  = "drive.position"
	SlotGPSStatus = "drive.gpsStatus"

	SlotLatitude         = "mission.latitude"
	SlotLongitude        = "mission.longitude"
	SlotSatellites       = "mission.satellites"
	SlotGPSValid         = "mission.gpsStatus"
	SlotWaypoint         = "mission.waypoint"
	SlotDistanceToTarget = "mission.distanceToTarget"
	SlotRoverPosition    = "mission.roverPosition"

	SlotHeading = "heading"
	SlotSpeed   = "speed"
)

// NoValue fills progress slots outside autonomous mode.
const NoValue = "--"

// Fix is a usable rover position.
type Fix struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Source is the part of the rover client the poller reads from.
type Source interface {
	Status() (rover.Status, error)
	Log() ([]string, error)
}

// Projector receives display values. It must not block.
type Projector interface {
	SetSlot(name string, value interface{})
}

// ModeSync is told the server-reported mission mode on every good poll.
type ModeSync interface {
	SyncMode(autonomous bool)
}

// ServerLog is replaced wholesale by each log fetch.
type ServerLog interface {
	ReplaceFromServer(lines []string)
}

// SnapshotSink gets every successful snapshot after projection.
type SnapshotSink interface {
	PublishSnapshot(status rover.Status)
}

// Poller runs one status or log fetch per call. Calls may overlap; the
// last response applied wins.
type Poller struct {
	source    Source
	conn      *Connection
	mode      ModeSync
	projector Projector
	serverLog ServerLog
	sinks     []SnapshotSink
	logger    customlog.Logger

	mu      sync.RWMutex
	lastFix *Fix
}

// PollerOptions wires the poller's collaborators. Nil members are skipped.
type PollerOptions struct {
	Mode      ModeSync
	Projector Projector
	ServerLog ServerLog
	Sinks     []SnapshotSink
}

// NewPoller creates a poller reading from source.
func NewPoller(source Source, conn *Connection, logger customlog.Logger, opts PollerOptions) *Poller {
	return &Poller{
		source:    source,
		conn:      conn,
		mode:      opts.Mode,
		projector: opts.Projector,
		serverLog: opts.ServerLog,
		sinks:     opts.Sinks,
		logger:    logger,
	}
}

// Tick fetches one status snapshot and applies it.
func (p *Poller) Tick() error {
	status, err := p.source.Status()
	if err != nil {
		p.conn.Fail()
		p.logger.Warnf("Status update failed: %v", err)
		return fmt.Errorf("status poll: %w", err)
	}

	p.conn.Succeed()
	if p.mode != nil {
		p.mode.SyncMode(status.AutonomousMode)
	}
	p.project(status)
	for _, sink := range p.sinks {
		sink.PublishSnapshot(status)
	}
	return nil
}

// FetchLog replaces the server log mirror. Failures leave the connection
// state alone.
func (p *Poller) FetchLog() error {
	lines, err := p.source.Log()
	if err != nil {
		p.logger.Warnf("Fetch log failed: %v", err)
		return fmt.Errorf("log fetch: %w", err)
	}
	if p.serverLog != nil {
		p.serverLog.ReplaceFromServer(lines)
	}
	return nil
}

// LastFix returns the most recent valid rover position.
func (p *Poller) LastFix() (Fix, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastFix == nil {
		return Fix{}, false
	}
	return *p.lastFix, true
}

// HasFix reports whether status carries a position worth showing.
// A valid GPS flag with 0,0 means the receiver has not settled yet.
func HasFix(status rover.Status) bool {
	return status.GPSValid && status.Latitude != 0 && status.Longitude != 0
}

func (p *Poller) project(status rover.Status) {
	if HasFix(status) {
		fix := Fix{Lat: status.Latitude, Lon: status.Longitude}
		p.mu.Lock()
		p.lastFix = &fix
		p.mu.Unlock()
		p.setSlot(SlotRoverPosition, fix)
	}

	for name, value := range Project(status) {
		p.setSlot(name, value)
	}
}

func (p *Poller) setSlot(name string, value interface{}) {
	if p.projector != nil {
		p.projector.SetSlot(name, value)
	}
}

// Project renders a snapshot into its display slots, both views included.
func Project(status rover.Status) map[string]string {
	slots := map[string]string{
		SlotPosition:   fmt.Sprintf("%s, %s", fixed(status.Latitude, 5), fixed(status.Longitude, 5)),
		SlotHeading:    fixed(status.Heading, 1) + "°",
		SlotSpeed:      fixed(status.Speed, 2) + " km/h",
		SlotLatitude:   fixed(status.Latitude, 7),
		SlotLongitude:  fixed(status.Longitude, 7),
		SlotSatellites: strconv.Itoa(status.Satellites),
	}

	if status.GPSValid {
		slots[SlotGPSStatus] = fmt.Sprintf("✓ %d sats", status.Satellites)
		slots[SlotGPSValid] = "✓ Valid"
	} else {
		slots[SlotGPSStatus] = "✗ No fix"
		slots[SlotGPSValid] = "✗ Invalid"
	}

	slots[SlotWaypoint] = NoValue
	slots[SlotDistanceToTarget] = NoValue
	if status.AutonomousMode {
		if status.CurrentWaypoint != nil && status.TotalWaypoints != nil {
			slots[SlotWaypoint] = fmt.Sprintf("%d / %d", *status.CurrentWaypoint+1, *status.TotalWaypoints)
		}
		if status.DistanceToTarget != nil {
			slots[SlotDistanceToTarget] = fixed(*status.DistanceToTarget, 2) + " m"
		}
	}
	return slots
}

func fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
