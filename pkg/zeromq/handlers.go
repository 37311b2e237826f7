package zeromq

import (
	"encoding/json"
	"fmt"
	"time"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// QueryHandler answers one request type with whatever its source returns.
type QueryHandler struct {
	requestType  string
	responseType string
	source       func() interface{}
	logger       customlog.Logger
}

// NewConfigHandler answers CONFIG_REQUEST with the current polling config.
func NewConfigHandler(source func() interface{}, logger customlog.Logger) *QueryHandler {
	return &QueryHandler{
		requestType:  MsgTypeConfigRequest,
		responseType: MsgTypeConfigResponse,
		source:       source,
		logger:       logger,
	}
}

// NewStateHandler answers STATE_REQUEST with the current display snapshot.
func NewStateHandler(source func() interface{}, logger customlog.Logger) *QueryHandler {
	return &QueryHandler{
		requestType:  MsgTypeStateRequest,
		responseType: MsgTypeStateResponse,
		source:       source,
		logger:       logger,
	}
}

// HandleMessage validates the request envelope and returns the JSON reply.
func (h *QueryHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type != h.requestType {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	response := ZeroMQMessage{
		Type:      h.responseType,
		Timestamp: float64(time.Now().Unix()),
		Data:      h.source(),
	}
	responseData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}

	h.logger.Debugf("Answered %s (%d bytes)", h.requestType, len(responseData))
	return responseData, nil
}

// RegisterQueryHandlers installs the config and state handlers.
func RegisterQueryHandlers(service *TelemetryService, config, state func() interface{}, logger customlog.Logger) {
	service.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(config, logger))
	service.RegisterHandler(MsgTypeStateRequest, NewStateHandler(state, logger))
}
