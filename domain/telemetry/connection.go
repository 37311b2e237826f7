// Package telemetry polls the rover's status endpoint, keeps the
// connection state and projects each snapshot for the operator.
package telemetry

import (
	"sync"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// State is the console's view of rover reachability.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "Connected"
	}
	return "Disconnected"
}

// ConnectionListener hears about every transition.
type ConnectionListener interface {
	ConnectionChanged(state State)
}

// ConnectionListenerFunc adapts a function to ConnectionListener.
type ConnectionListenerFunc func(state State)

// ConnectionChanged calls f(state).
func (f ConnectionListenerFunc) ConnectionChanged(state State) { f(state) }

// Connection is Connected exactly when the most recent poll succeeded.
// There is no debounce: one failure disconnects, one success reconnects.
type Connection struct {
	mu        sync.Mutex
	state     State
	listeners []ConnectionListener
	logger    customlog.Logger
}

// NewConnection starts Disconnected.
func NewConnection(logger customlog.Logger, listeners ...ConnectionListener) *Connection {
	return &Connection{state: Disconnected, listeners: listeners, logger: logger}
}

// AddListener registers another transition listener.
func (c *Connection) AddListener(l ConnectionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Succeed records a successful poll.
func (c *Connection) Succeed() {
	c.set(Connected)
}

// Fail records a failed poll.
func (c *Connection) Fail() {
	c.set(Disconnected)
}

// State returns the current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) set(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == state {
		return
	}
	c.state = state
	c.logger.Infof("Rover connection state: %s", state)
	for _, l := range c.listeners {
		l.ConnectionChanged(state)
	}
}
