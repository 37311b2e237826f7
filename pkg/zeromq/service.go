// Package zeromq fans console telemetry out over ZeroMQ. A PUB socket
// carries FlatBuffers frames; an optional REP socket answers JSON queries.
package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeStateRequest   = "STATE_REQUEST"
	MsgTypeStateResponse  = "STATE_RESPONSE"
	MsgTypeError          = "ERROR"
)

// ZeroMQMessage is the JSON envelope of the query socket.
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler answers one query type.
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// Options selects the sockets to bind. An empty ReplyAddress disables queries.
type Options struct {
	PublishAddress string
	ReplyAddress   string
}

// MessageReceiver serves the REP socket.
type MessageReceiver struct {
	socket     *zmq4.Socket
	dispatcher *MessageDispatcher
	poller     *zmq4.Poller
	logger     customlog.Logger
	endpoint   string
	running    atomic.Bool
	started    atomic.Bool
	wg         *sync.WaitGroup
}

func newMessageReceiver(ctx *zmq4.Context, address string, dispatcher *MessageDispatcher, logger customlog.Logger, wg *sync.WaitGroup) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.REP)
	if err != nil {
		return nil, fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	// Bounded timeouts keep shutdown from blocking on a half-finished exchange.
	const socketTimeout = 1 * time.Second
	if err := socket.SetRcvtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(socketTimeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	endpoint, _ := socket.GetLastEndpoint()
	logger.Infof("Query socket bound on %s", endpoint)
	return &MessageReceiver{
		socket:     socket,
		dispatcher: dispatcher,
		poller:     poller,
		logger:     logger,
		endpoint:   endpoint,
		wg:         wg,
	}, nil
}

// Start begins the receive loop.
func (r *MessageReceiver) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.running.Store(true)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer r.socket.Close()

		for r.running.Load() {
			sockets, err := r.poller.Poll(200 * time.Millisecond)
			if err != nil {
				if r.running.Load() {
					r.logger.Warnf("Error polling query socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			msg, err := r.socket.RecvBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Warnf("Error receiving query: %v", err)
				}
				continue
			}

			response, err := r.dispatcher.Dispatch(msg)
			if err != nil {
				r.logger.Warnf("Error dispatching query: %v", err)
				response, _ = json.Marshal(ZeroMQMessage{
					Type:      MsgTypeError,
					Timestamp: float64(time.Now().Unix()),
					Data:      ErrorResponse{Message: err.Error(), Code: 400},
				})
			}
			if _, err := r.socket.SendBytes(response, 0); err != nil && r.running.Load() {
				r.logger.Warnf("Error sending reply: %v", err)
			}
		}
	}()
}

// Stop ends the receive loop; the loop closes the socket on exit.
func (r *MessageReceiver) Stop() {
	r.running.Store(false)
}

// MessageSender owns the PUB socket.
type MessageSender struct {
	socket   *zmq4.Socket
	logger   customlog.Logger
	endpoint string
	running  bool
	mu       sync.Mutex
}

func newMessageSender(ctx *zmq4.Context, address string, logger customlog.Logger) (*MessageSender, error) {
	socket, err := ctx.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	endpoint, _ := socket.GetLastEndpoint()
	logger.Infof("Telemetry publisher bound on %s", endpoint)
	return &MessageSender{socket: socket, logger: logger, endpoint: endpoint, running: true}, nil
}

// PublishMessage sends topic and payload as one two-part message.
func (s *MessageSender) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrServiceClosed
	}
	if _, err := s.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(message, 0); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close cleans up resources
func (s *MessageSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.socket != nil {
		s.socket.Close()
		s.socket = nil
	}
}

// MessageDispatcher routes queries to the handler for their type.
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   customlog.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch parses the envelope and runs the matching handler.
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
	return handler.HandleMessage(data)
}

// TelemetryService coordinates the console's ZeroMQ sockets.
type TelemetryService struct {
	ctx        *zmq4.Context
	receiver   *MessageReceiver
	sender     *MessageSender
	dispatcher *MessageDispatcher
	logger     customlog.Logger
	running    bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// NewTelemetryService binds the configured sockets.
func NewTelemetryService(opts Options, logger customlog.Logger) (*TelemetryService, error) {
	if opts.PublishAddress == "" {
		return nil, fmt.Errorf("publish address is required")
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &TelemetryService{
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
	}

	s.sender, err = newMessageSender(ctx, opts.PublishAddress, logger)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	if opts.ReplyAddress != "" {
		s.receiver, err = newMessageReceiver(ctx, opts.ReplyAddress, s.dispatcher, logger, &s.wg)
		if err != nil {
			s.sender.Close()
			ctx.Term()
			return nil, err
		}
	}
	return s, nil
}

// RegisterHandler adds a handler for a specific message type
func (s *TelemetryService) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// Start begins serving queries.
func (s *TelemetryService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	if s.receiver != nil {
		s.receiver.Start()
	}
	s.logger.Infof("ZeroMQ telemetry service started")
}

// Stop closes every socket and terminates the context.
func (s *TelemetryService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return
	}
	s.running = false
	if s.receiver != nil {
		s.receiver.Stop()
	}
	s.sender.Close()
	s.wg.Wait()
	if s.receiver != nil && !s.receiver.started.Load() {
		// Never started: the loop did not get the chance to close it.
		s.receiver.socket.Close()
	}

	s.ctx.Term()
	s.ctx = nil
	s.logger.Infof("ZeroMQ telemetry service stopped")
}

// PublishMessage sends a message with the given topic
func (s *TelemetryService) PublishMessage(topic string, message []byte) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrServiceClosed
	}
	return s.sender.PublishMessage(topic, message)
}

// PublishEndpoint returns the bound PUB endpoint, with wildcards resolved.
func (s *TelemetryService) PublishEndpoint() string {
	return s.sender.endpoint
}

// ReplyEndpoint returns the bound REP endpoint, or "" when disabled.
func (s *TelemetryService) ReplyEndpoint() string {
	if s.receiver == nil {
		return ""
	}
	return s.receiver.endpoint
}
