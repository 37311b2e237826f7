package main

import (
	"strings"
	"testing"
	"time"

	"github.com/open-teleop/rover-console/pkg/rover"
	"github.com/open-teleop/rover-console/pkg/zeromq"
)

func TestFormatFrameIncludesMissionProgress(t *testing.T) {
	cur, total, dist := 1, 3, 12.345
	line := formatFrame(zeromq.TopicTelemetry, zeromq.Frame{
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Status: rover.Status{
			Latitude: 23.81, Longitude: 90.41, GPSValid: true, AutonomousMode: true,
			CurrentWaypoint: &cur, TotalWaypoints: &total, DistanceToTarget: &dist,
		},
		MissionID: "run-1",
	})

	for _, want := range []string{"lat=23.8100000", "wp=2/3", "dist=12.35m", "mission=run-1", "auto=true"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
}

func TestFormatFrameOmitsAbsentFields(t *testing.T) {
	line := formatFrame(zeromq.TopicTelemetry, zeromq.Frame{Timestamp: time.Now()})
	if strings.Contains(line, "wp=") || strings.Contains(line, "dist=") || strings.Contains(line, "mission=") {
		t.Errorf("expected no optional fields, got %q", line)
	}
}

func TestRunQueryRejectsUnknownName(t *testing.T) {
	if err := runQuery("tcp://127.0.0.1:1", "weather", 10*time.Millisecond); err == nil {
		t.Fatalf("expected an error for an unknown query")
	}
}
