// Package mission holds the operator's waypoint plan and sequences the
// rover's autonomous runs.
package mission

import (
	"sync"

	"github.com/open-teleop/rover-console/pkg/rover"
)

// Display slots owned by the mission view.
const (
	SlotWaypointCount = "mission.waypointCount"
	SlotPath          = "mission.path"
	SlotMode          = "mission.mode"
)

// Projector receives display values. It must not block.
type Projector interface {
	SetSlot(name string, value interface{})
	ClearSlot(name string)
}

// ActivityLog receives operator-visible lines.
type ActivityLog interface {
	AppendLocal(text string)
	AppendLocalf(format string, args ...interface{})
}

// WaypointStore is the ordered, append-only plan. It is only emptied
// all at once.
type WaypointStore struct {
	mu        sync.RWMutex
	points    []rover.Waypoint
	projector Projector
	log       ActivityLog
}

// NewWaypointStore creates an empty store and projects a zero count.
func NewWaypointStore(projector Projector, log ActivityLog) *WaypointStore {
	s := &WaypointStore{projector: projector, log: log}
	if projector != nil {
		projector.SetSlot(SlotWaypointCount, 0)
	}
	return s
}

// Add appends a waypoint and returns its 1-based position.
func (s *WaypointStore) Add(lat, lon float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points, rover.Waypoint{Lat: lat, Lon: lon})
	n := len(s.points)
	s.projectLocked()
	if s.log != nil {
		s.log.AppendLocalf("Waypoint %d added: %.6f, %.6f", n, lat, lon)
	}
	return n
}

// Clear empties the plan and removes the path.
func (s *WaypointStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = nil
	s.projectLocked()
	if s.log != nil {
		s.log.AppendLocal("All waypoints cleared")
	}
}

// Snapshot returns a copy of the plan in order.
func (s *WaypointStore) Snapshot() []rover.Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]rover.Waypoint{}, s.points...)
}

// Len returns the number of waypoints.
func (s *WaypointStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func (s *WaypointStore) projectLocked() {
	if s.projector == nil {
		return
	}
	s.projector.SetSlot(SlotWaypointCount, len(s.points))
	if len(s.points) == 0 {
		s.projector.ClearSlot(SlotPath)
		return
	}
	path := make([][2]float64, len(s.points))
	for i, p := range s.points {
		path[i] = [2]float64{p.Lat, p.Lon}
	}
	s.projector.SetSlot(SlotPath, path)
}
