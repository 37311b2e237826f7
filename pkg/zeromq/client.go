package zeromq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pebbe/zmq4"
)

// Query sends one JSON request of msgType to a console's query socket and
// returns the reply envelope.
func Query(address, msgType string, timeout time.Duration) (*ZeroMQMessage, error) {
	socket, err := zmq4.NewSocket(zmq4.REQ)
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	defer socket.Close()

	if err := socket.SetLinger(0); err != nil {
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetRcvtimeo(timeout); err != nil {
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.Connect(address); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	req, err := json.Marshal(ZeroMQMessage{Type: msgType, Timestamp: float64(time.Now().Unix())})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := socket.SendBytes(req, 0); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	respData, err := socket.RecvBytes(0)
	if err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}
	var resp ZeroMQMessage
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &resp, nil
}
