// telemetry-tap subscribes to a console's telemetry fan-out and prints
// every decoded frame, or asks the query socket for one reply.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/zeromq"
)

func main() {
	address := flag.String("address", "tcp://127.0.0.1:5556", "console PUB endpoint")
	topic := flag.String("topic", "rover.", "topic prefix to subscribe to")
	query := flag.String("query", "", "send one query (state|config) instead of subscribing")
	replyAddress := flag.String("reply-address", "tcp://127.0.0.1:5557", "console query endpoint")
	timeout := flag.Duration("timeout", 2*time.Second, "query reply timeout")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := customlog.NewLogrusLoggerWithOutput(*level, os.Stderr)

	if *query != "" {
		if err := runQuery(*replyAddress, *query, *timeout); err != nil {
			logger.Errorf("Query failed: %v", err)
			os.Exit(1)
		}
		return
	}

	listener, err := zeromq.NewTelemetryListener(*address, *topic, logger)
	if err != nil {
		logger.Fatalf("Failed to subscribe: %v", err)
	}
	listener.OnFrame(func(topic string, f zeromq.Frame) {
		fmt.Println(formatFrame(topic, f))
	})
	listener.OnConnection(func(e zeromq.ConnectionEvent) {
		state := "disconnected"
		if e.Connected {
			state = "connected"
		}
		fmt.Printf("%s %s rover %s %s\n", e.Timestamp.Format("15:04:05.000"), zeromq.TopicConnection, e.RoverAddress, state)
	})
	listener.Start()
	logger.Infof("Listening on %s for %q", *address, *topic)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	listener.Stop()
}

func runQuery(address, name string, timeout time.Duration) error {
	var msgType string
	switch strings.ToLower(name) {
	case "state":
		msgType = zeromq.MsgTypeStateRequest
	case "config":
		msgType = zeromq.MsgTypeConfigRequest
	default:
		return fmt.Errorf("unknown query %q, want state or config", name)
	}

	resp, err := zeromq.Query(address, msgType, timeout)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render reply: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func formatFrame(topic string, f zeromq.Frame) string {
	s := f.Status
	line := fmt.Sprintf("%s %s lat=%.7f lon=%.7f hdg=%.1f spd=%.2f sats=%d gps=%t auto=%t connected=%t",
		f.Timestamp.Format("15:04:05.000"), topic, s.Latitude, s.Longitude, s.Heading, s.Speed,
		s.Satellites, s.GPSValid, s.AutonomousMode, f.Connected)
	if s.CurrentWaypoint != nil && s.TotalWaypoints != nil {
		line += fmt.Sprintf(" wp=%d/%d", *s.CurrentWaypoint+1, *s.TotalWaypoints)
	}
	if s.DistanceToTarget != nil {
		line += fmt.Sprintf(" dist=%.2fm", *s.DistanceToTarget)
	}
	if f.MissionID != "" {
		line += " mission=" + f.MissionID
	}
	return line
}
