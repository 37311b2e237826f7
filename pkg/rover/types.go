package rover

import "encoding/json"

// Status is the body of GET /api/status.
type Status struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Heading          float64  `json:"heading"`
	Speed            float64  `json:"speed"`
	Satellites       int      `json:"satellites"`
	GPSValid         bool     `json:"gpsValid"`
	AutonomousMode   bool     `json:"autonomousMode"`
	CurrentWaypoint  *int     `json:"currentWaypoint,omitempty"`
	TotalWaypoints   *int     `json:"totalWaypoints,omitempty"`
	DistanceToTarget *float64 `json:"distanceToTarget,omitempty"`
}

// Waypoint is one element of the POST /api/waypoints body.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ack is the raw JSON the rover answers a command with. Any JSON value is
// a valid ack: an object, a bare string such as "OK", true or an array.
type Ack json.RawMessage

// UnmarshalJSON keeps the reply as is.
func (a *Ack) UnmarshalJSON(data []byte) error {
	*a = append((*a)[:0], data...)
	return nil
}

// MarshalJSON writes the reply back unchanged.
func (a Ack) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return []byte("null"), nil
	}
	return a, nil
}

// String returns the reply text.
func (a Ack) String() string {
	return string(a)
}
