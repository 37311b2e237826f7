package zeromq

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/open-teleop/rover-console/domain/telemetry"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/rover"
)

func testLogger() customlog.Logger {
	return customlog.NewLogrusLoggerWithOutput("error", io.Discard)
}

func TestFrameCarriesOptionalFields(t *testing.T) {
	current, total, dist := 1, 4, 7.5
	in := Frame{
		Timestamp: time.UnixMilli(1700000000123),
		Connected: true,
		MissionID: "run-1",
		Status: rover.Status{
			Latitude: 23.81, Longitude: 90.41, Heading: 180, Speed: 2.5,
			Satellites: 8, GPSValid: true, AutonomousMode: true,
			CurrentWaypoint: &current, TotalWaypoints: &total, DistanceToTarget: &dist,
		},
	}

	out, err := DecodeFrame(EncodeFrame(in))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !out.Timestamp.Equal(in.Timestamp) || out.MissionID != "run-1" || !out.Connected {
		t.Errorf("Header mismatch: %+v", out)
	}
	if out.Status.Latitude != 23.81 || out.Status.Satellites != 8 || !out.Status.AutonomousMode {
		t.Errorf("Status mismatch: %+v", out.Status)
	}
	if out.Status.CurrentWaypoint == nil || *out.Status.CurrentWaypoint != 1 {
		t.Errorf("Expected current waypoint 1, got %v", out.Status.CurrentWaypoint)
	}
	if out.Status.DistanceToTarget == nil || *out.Status.DistanceToTarget != 7.5 {
		t.Errorf("Expected distance 7.5, got %v", out.Status.DistanceToTarget)
	}
}

func TestFrameLeavesAbsentFieldsNil(t *testing.T) {
	out, err := DecodeFrame(EncodeFrame(Frame{Timestamp: time.Now()}))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if out.Status.CurrentWaypoint != nil || out.Status.TotalWaypoints != nil || out.Status.DistanceToTarget != nil {
		t.Errorf("Expected nil progress fields, got %+v", out.Status)
	}
	if out.MissionID != "" {
		t.Errorf("Expected empty mission id, got %q", out.MissionID)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrame([]byte{1}); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Expected ErrInvalidFrame for short buffer, got %v", err)
	}
	if _, err := DecodeFrame([]byte{0xff, 0xff, 0xff, 0x7f, 0, 0}); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Expected ErrInvalidFrame for bad offset, got %v", err)
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
	err    error
}

func (c *capturePublisher) PublishMessage(topic string, message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.bodies = append(c.bodies, message)
	return c.err
}

func TestPublisherTagsFrames(t *testing.T) {
	capture := &capturePublisher{}
	p := NewTelemetryPublisher(capture, testLogger(),
		func() string { return "run-9" },
		func() string { return "http://192.168.4.1" })

	p.ConnectionChanged(telemetry.Connected)
	p.PublishSnapshot(rover.Status{Latitude: 1, Longitude: 2, GPSValid: true})

	if len(capture.topics) != 2 || capture.topics[0] != TopicConnection || capture.topics[1] != TopicTelemetry {
		t.Fatalf("Unexpected topics %v", capture.topics)
	}
	event, err := DecodeConnectionEvent(capture.bodies[0])
	if err != nil || !event.Connected || event.RoverAddress != "http://192.168.4.1" {
		t.Errorf("Unexpected connection event %+v (%v)", event, err)
	}
	frame, err := DecodeFrame(capture.bodies[1])
	if err != nil || !frame.Connected || frame.MissionID != "run-9" {
		t.Errorf("Unexpected frame %+v (%v)", frame, err)
	}
}

func TestPublisherSwallowsErrors(t *testing.T) {
	capture := &capturePublisher{err: ErrServiceClosed}
	p := NewTelemetryPublisher(capture, testLogger(), nil, nil)
	p.PublishSnapshot(rover.Status{})
	p.ConnectionChanged(telemetry.Disconnected)
	if len(capture.topics) != 2 {
		t.Errorf("Expected both publishes attempted, got %v", capture.topics)
	}
}

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewMessageDispatcher(testLogger())
	d.RegisterHandler(MsgTypeStateRequest, NewStateHandler(func() interface{} {
		return map[string]int{"version": 3}
	}, testLogger()))

	reply, err := d.Dispatch([]byte(`{"type":"STATE_REQUEST","timestamp":1}`))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if string(reply) == "" {
		t.Errorf("Expected a reply body")
	}
	if _, err := d.Dispatch([]byte(`{"type":"NOPE"}`)); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("Expected ErrUnknownMessageType, got %v", err)
	}
	if _, err := d.Dispatch([]byte(`not json`)); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Expected ErrInvalidMessage, got %v", err)
	}
}

func TestServiceEndToEnd(t *testing.T) {
	svc, err := NewTelemetryService(Options{
		PublishAddress: "tcp://127.0.0.1:*",
		ReplyAddress:   "tcp://127.0.0.1:*",
	}, testLogger())
	if err != nil {
		t.Fatalf("NewTelemetryService: %v", err)
	}
	RegisterQueryHandlers(svc,
		func() interface{} { return map[string]int{"pollIntervalMs": 500} },
		func() interface{} { return map[string]bool{"connected": true} },
		testLogger())
	svc.Start()
	defer svc.Stop()

	resp, err := Query(svc.ReplyEndpoint(), MsgTypeConfigRequest, 2*time.Second)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Type != MsgTypeConfigResponse {
		t.Errorf("Expected %s, got %s", MsgTypeConfigResponse, resp.Type)
	}

	listener, err := NewTelemetryListener(svc.PublishEndpoint(), "rover.", testLogger())
	if err != nil {
		t.Fatalf("NewTelemetryListener: %v", err)
	}
	frames := make(chan Frame, 16)
	listener.OnFrame(func(topic string, f Frame) { frames <- f })
	listener.Start()
	defer listener.Stop()

	publisher := NewTelemetryPublisher(svc, testLogger(), nil, nil)
	deadline := time.After(3 * time.Second)
	// SUB sockets miss whatever is published before they finish joining.
	for {
		publisher.PublishSnapshot(rover.Status{Satellites: 6})
		select {
		case f := <-frames:
			if f.Status.Satellites != 6 {
				t.Errorf("Expected 6 satellites, got %d", f.Status.Satellites)
			}
			return
		case <-deadline:
			t.Fatalf("No frame received")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
