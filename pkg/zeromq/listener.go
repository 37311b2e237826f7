package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// TelemetryListener subscribes to a console's PUB socket and decodes
// what it receives.
type TelemetryListener struct {
	socket       *zmq4.Socket
	poller       *zmq4.Poller
	logger       customlog.Logger
	onFrame      func(topic string, frame Frame)
	onConnection func(event ConnectionEvent)
	running      atomic.Bool
	done         chan struct{}
	closeOnce    sync.Once
}

// NewTelemetryListener connects a SUB socket to address and subscribes to
// every topic starting with prefix.
func NewTelemetryListener(address, prefix string, logger customlog.Logger) (*TelemetryListener, error) {
	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetSubscribe(prefix); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", prefix, err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	return &TelemetryListener{
		socket: socket,
		poller: poller,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// OnFrame sets the telemetry callback. Call before Start.
func (l *TelemetryListener) OnFrame(fn func(topic string, frame Frame)) {
	l.onFrame = fn
}

// OnConnection sets the connection event callback. Call before Start.
func (l *TelemetryListener) OnConnection(fn func(event ConnectionEvent)) {
	l.onConnection = fn
}

// Start begins the receive loop.
func (l *TelemetryListener) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	go l.receiveLoop()
}

// Stop ends the receive loop and closes the socket.
func (l *TelemetryListener) Stop() {
	if l.running.CompareAndSwap(true, false) {
		<-l.done
	}
	l.closeOnce.Do(func() { l.socket.Close() })
}

func (l *TelemetryListener) receiveLoop() {
	defer close(l.done)

	for l.running.Load() {
		sockets, err := l.poller.Poll(200 * time.Millisecond)
		if err != nil {
			l.logger.Warnf("Error polling subscriber: %v", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		parts, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			l.logger.Warnf("Error receiving message: %v", err)
			continue
		}
		if len(parts) != 2 {
			l.logger.Warnf("Dropping %d-part message", len(parts))
			continue
		}
		l.handle(string(parts[0]), parts[1])
	}
}

func (l *TelemetryListener) handle(topic string, payload []byte) {
	switch topic {
	case TopicConnection:
		event, err := DecodeConnectionEvent(payload)
		if err != nil {
			l.logger.Warnf("Bad connection event: %v", err)
			return
		}
		if l.onConnection != nil {
			l.onConnection(event)
		}
	default:
		frame, err := DecodeFrame(payload)
		if err != nil {
			l.logger.Warnf("Bad frame on %s: %v", topic, err)
			return
		}
		if l.onFrame != nil {
			l.onFrame(topic, frame)
		}
	}
}
