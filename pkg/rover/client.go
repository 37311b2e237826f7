// Package rover is the HTTP client for the rover's polling API.
package rover

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds every rover call when the caller passes zero.
const DefaultTimeout = 2 * time.Second

// Client talks to one rover. The base address can be swapped at any time;
// calls already in flight finish against the old address.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration
}

// NewClient creates a client for address ("host", "host:port" or a full URL).
func NewClient(address string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: BaseURL(address), timeout: timeout}
}

// BaseURL normalizes a configured rover address into a URL prefix.
func BaseURL(address string) string {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

// SetAddress retargets the client.
func (c *Client) SetAddress(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = BaseURL(address)
}

// Address returns the current base URL.
func (c *Client) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Control sends POST /api/control with a form-encoded command and speed.
func (c *Client) Control(command string, speed int) (Ack, error) {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("command", command)
	args.Set("speed", strconv.Itoa(speed))

	agent := fiber.Post(c.url("/api/control")).Form(args)
	var ack Ack
	if err := c.do("control", agent, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Status fetches GET /api/status.
func (c *Client) Status() (Status, error) {
	var status *Status
	if err := c.do("status", fiber.Get(c.url("/api/status")), &status); err != nil {
		return Status{}, err
	}
	if status == nil {
		return Status{}, &TransportError{Op: "status", Status: fiber.StatusOK, Err: errors.New("malformed response: empty status")}
	}
	return *status, nil
}

// UploadWaypoints sends the full ordered waypoint list.
func (c *Client) UploadWaypoints(waypoints []Waypoint) (Ack, error) {
	if waypoints == nil {
		waypoints = []Waypoint{}
	}
	agent := fiber.Post(c.url("/api/waypoints")).JSON(waypoints)
	var ack Ack
	if err := c.do("waypoints", agent, &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Start sends POST /api/start.
func (c *Client) Start() (Ack, error) {
	var ack Ack
	if err := c.do("start", fiber.Post(c.url("/api/start")), &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Stop sends POST /api/stop.
func (c *Client) Stop() (Ack, error) {
	var ack Ack
	if err := c.do("stop", fiber.Post(c.url("/api/stop")), &ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Log fetches GET /api/log, a JSON array of preformatted lines.
func (c *Client) Log() ([]string, error) {
	var lines []string
	if err := c.do("log", fiber.Get(c.url("/api/log")), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (c *Client) url(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL + path
}

// do runs the agent, then decodes a 2xx JSON body into out.
func (c *Client) do(op string, agent *fiber.Agent, out interface{}) error {
	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return &TransportError{Op: op, Err: err}
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return &TransportError{Op: op, Err: errors.Join(errs...)}
	}
	if code < 200 || code > 299 {
		return &TransportError{Op: op, Status: code, Err: fmt.Errorf("unexpected status")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Status: code, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
