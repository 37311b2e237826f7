package zeromq

import (
	"errors"
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	fb "github.com/open-teleop/rover-console/pkg/flatbuffers/rover_console/telemetry"
	"github.com/open-teleop/rover-console/pkg/rover"
)

// Topics published by the console.
const (
	TopicTelemetry  = "rover.telemetry"
	TopicConnection = "rover.connection"
)

// ErrInvalidFrame is returned for buffers that are not a frame.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is one published telemetry snapshot.
type Frame struct {
	Timestamp time.Time
	Status    rover.Status
	Connected bool
	MissionID string
}

// ConnectionEvent is one published connection transition.
type ConnectionEvent struct {
	Timestamp    time.Time
	Connected    bool
	RoverAddress string
}

// EncodeFrame serializes f as a TelemetryFrame table.
func EncodeFrame(f Frame) []byte {
	builder := flatbuffers.NewBuilder(256)
	var missionID flatbuffers.UOffsetT
	if f.MissionID != "" {
		missionID = builder.CreateString(f.MissionID)
	}

	s := f.Status
	fb.TelemetryFrameStart(builder)
	fb.TelemetryFrameAddTimestampMs(builder, f.Timestamp.UnixMilli())
	fb.TelemetryFrameAddLatitude(builder, s.Latitude)
	fb.TelemetryFrameAddLongitude(builder, s.Longitude)
	fb.TelemetryFrameAddHeading(builder, s.Heading)
	fb.TelemetryFrameAddSpeed(builder, s.Speed)
	fb.TelemetryFrameAddSatellites(builder, int32(s.Satellites))
	fb.TelemetryFrameAddGpsValid(builder, s.GPSValid)
	fb.TelemetryFrameAddAutonomousMode(builder, s.AutonomousMode)
	if s.CurrentWaypoint != nil {
		fb.TelemetryFrameAddCurrentWaypoint(builder, int32(*s.CurrentWaypoint))
	}
	if s.TotalWaypoints != nil {
		fb.TelemetryFrameAddTotalWaypoints(builder, int32(*s.TotalWaypoints))
	}
	if s.DistanceToTarget != nil {
		fb.TelemetryFrameAddDistanceToTarget(builder, *s.DistanceToTarget)
	}
	fb.TelemetryFrameAddConnected(builder, f.Connected)
	if missionID != 0 {
		fb.TelemetryFrameAddMissionId(builder, missionID)
	}
	builder.Finish(fb.TelemetryFrameEnd(builder))
	return builder.FinishedBytes()
}

// DecodeFrame parses a TelemetryFrame. Absent optional fields stay nil.
func DecodeFrame(buf []byte) (f Frame, err error) {
	defer recoverInvalid(&err)
	if len(buf) < flatbuffers.SizeUOffsetT {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(buf))
	}

	t := fb.GetRootAsTelemetryFrame(buf, 0)
	f = Frame{
		Timestamp: time.UnixMilli(t.TimestampMs()),
		Connected: t.Connected(),
		MissionID: string(t.MissionId()),
		Status: rover.Status{
			Latitude:       t.Latitude(),
			Longitude:      t.Longitude(),
			Heading:        t.Heading(),
			Speed:          t.Speed(),
			Satellites:     int(t.Satellites()),
			GPSValid:       t.GpsValid(),
			AutonomousMode: t.AutonomousMode(),
		},
	}
	if v := t.CurrentWaypoint(); v >= 0 {
		n := int(v)
		f.Status.CurrentWaypoint = &n
	}
	if v := t.TotalWaypoints(); v >= 0 {
		n := int(v)
		f.Status.TotalWaypoints = &n
	}
	if v := t.DistanceToTarget(); v >= 0 {
		f.Status.DistanceToTarget = &v
	}
	return f, nil
}

// EncodeConnectionEvent serializes e as a ConnectionEvent table.
func EncodeConnectionEvent(e ConnectionEvent) []byte {
	builder := flatbuffers.NewBuilder(64)
	addr := builder.CreateString(e.RoverAddress)
	fb.ConnectionEventStart(builder)
	fb.ConnectionEventAddTimestampMs(builder, e.Timestamp.UnixMilli())
	fb.ConnectionEventAddConnected(builder, e.Connected)
	fb.ConnectionEventAddRoverAddress(builder, addr)
	builder.Finish(fb.ConnectionEventEnd(builder))
	return builder.FinishedBytes()
}

// DecodeConnectionEvent parses a ConnectionEvent.
func DecodeConnectionEvent(buf []byte) (e ConnectionEvent, err error) {
	defer recoverInvalid(&err)
	if len(buf) < flatbuffers.SizeUOffsetT {
		return ConnectionEvent{}, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(buf))
	}

	t := fb.GetRootAsConnectionEvent(buf, 0)
	return ConnectionEvent{
		Timestamp:    time.UnixMilli(t.TimestampMs()),
		Connected:    t.Connected(),
		RoverAddress: string(t.RoverAddress()),
	}, nil
}

// The flatbuffers runtime indexes the buffer without bounds checks of its own.
func recoverInvalid(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInvalidFrame, r)
	}
}
