package processing

import (
	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// LoggingResultHandler logs slow and failed rover requests
type LoggingResultHandler struct {
	logger customlog.Logger
	slowUs int64
}

// NewLoggingResultHandler creates a handler that warns about requests slower than slowUs microseconds
func NewLoggingResultHandler(logger customlog.Logger, slowUs int64) *LoggingResultHandler {
	return &LoggingResultHandler{
		logger: logger,
		slowUs: slowUs,
	}
}

// HandleResult handles a completed request
func (h *LoggingResultHandler) HandleResult(result *ProcessResult) {
	if result.Error != nil {
		h.logger.Debugf("Rover request '%s' failed after %s: %v", result.Endpoint, result.Duration, result.Error)
		return
	}

	if h.slowUs > 0 && result.Duration.Microseconds() > h.slowUs {
		h.logger.Warnf("Rover request '%s' took %s", result.Endpoint, result.Duration)
		return
	}

	h.logger.Debugf("Rover request '%s' completed in %s", result.Endpoint, result.Duration)
}

// CreateHandlerFunc creates a ResultHandler function for the RequestDirector
func (h *LoggingResultHandler) CreateHandlerFunc() ResultHandler {
	return func(processResult *ProcessResult) {
		if processResult == nil {
			h.logger.Errorf("Received nil ProcessResult")
			return
		}
		h.HandleResult(processResult)
	}
}
