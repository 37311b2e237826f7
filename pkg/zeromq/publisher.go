package zeromq

import (
	"sync"
	"time"

	"github.com/open-teleop/rover-console/domain/telemetry"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/rover"
)

// MessagePublisher sends one topic-tagged payload.
type MessagePublisher interface {
	PublishMessage(topic string, message []byte) error
}

// TelemetryPublisher turns poll results and connection transitions into
// frames. Publish failures are logged and never reach the poller.
type TelemetryPublisher struct {
	publisher MessagePublisher
	logger    customlog.Logger
	missionID func() string
	address   func() string

	mu        sync.Mutex
	connected bool
}

// NewTelemetryPublisher creates a publisher. missionID and address may be nil.
func NewTelemetryPublisher(publisher MessagePublisher, logger customlog.Logger, missionID, address func() string) *TelemetryPublisher {
	return &TelemetryPublisher{
		publisher: publisher,
		logger:    logger,
		missionID: missionID,
		address:   address,
	}
}

// PublishSnapshot publishes one telemetry frame.
func (p *TelemetryPublisher) PublishSnapshot(status rover.Status) {
	p.mu.Lock()
	connected := p.connected
	p.mu.Unlock()

	frame := Frame{
		Timestamp: time.Now(),
		Status:    status,
		Connected: connected,
	}
	if p.missionID != nil {
		frame.MissionID = p.missionID()
	}
	if err := p.publisher.PublishMessage(TopicTelemetry, EncodeFrame(frame)); err != nil {
		p.logger.Warnf("Failed to publish telemetry frame: %v", err)
	}
}

// ConnectionChanged publishes a connection event.
func (p *TelemetryPublisher) ConnectionChanged(state telemetry.State) {
	connected := state == telemetry.Connected
	p.mu.Lock()
	p.connected = connected
	p.mu.Unlock()

	event := ConnectionEvent{Timestamp: time.Now(), Connected: connected}
	if p.address != nil {
		event.RoverAddress = p.address()
	}
	if err := p.publisher.PublishMessage(TopicConnection, EncodeConnectionEvent(event)); err != nil {
		p.logger.Warnf("Failed to publish connection event: %v", err)
	}
}
