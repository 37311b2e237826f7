package api

import "github.com/open-teleop/rover-console/pkg/rover"

// --- Request and response bodies for the operator API ---

// SpeedRequest sets the drive speed.
type SpeedRequest struct {
	Speed *int `json:"speed"`
}

// SpeedResponse reports the clamped drive speed.
type SpeedResponse struct {
	Speed int `json:"speed"`
}

// WaypointRequest adds one waypoint, usually from a map click.
type WaypointRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// WaypointsResponse lists the current plan.
type WaypointsResponse struct {
	Count     int              `json:"count"`
	Waypoints []rover.Waypoint `json:"waypoints"`
}

// MissionResponse reports the mission mode after an operator action.
type MissionResponse struct {
	Mode      string `json:"mode"`
	MissionID string `json:"missionId,omitempty"`
}

// LogResponse is one view's activity log.
type LogResponse struct {
	View   string   `json:"view"`
	Local  []string `json:"local"`
	Server []string `json:"server"`
}

// PositionResponse is the center-on-rover target.
type PositionResponse struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom"`
}
