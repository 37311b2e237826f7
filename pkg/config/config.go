package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the operator-editable polling configuration.
const (
	DefaultRoverAddress       = "192.168.4.1"
	DefaultPollIntervalMs     = 500
	DefaultSpeedLimit         = 200
	DefaultProximityThreshold = 5

	MinPollIntervalMs = 50
	MaxSpeedLimit     = 1000
)

// PollingConfig is the operator-editable configuration persisted in the
// settings store. Changing it restarts the periodic telemetry and log tasks.
type PollingConfig struct {
	TargetAddress      string `yaml:"target_address" json:"targetAddress"`
	PollIntervalMs     int    `yaml:"poll_interval_ms" json:"pollIntervalMs"`
	SpeedLimit         int    `yaml:"speed_limit" json:"speedLimit"`
	ProximityThreshold int    `yaml:"proximity_threshold" json:"proximityThreshold"`
}

// DefaultPollingConfig returns the configuration used when nothing was saved yet.
func DefaultPollingConfig(address string) PollingConfig {
	if address == "" {
		address = DefaultRoverAddress
	}
	return PollingConfig{
		TargetAddress:      address,
		PollIntervalMs:     DefaultPollIntervalMs,
		SpeedLimit:         DefaultSpeedLimit,
		ProximityThreshold: DefaultProximityThreshold,
	}
}

// PollInterval returns the telemetry period as a duration.
func (c PollingConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Validate checks the fields an operator can get wrong in the settings form.
func (c PollingConfig) Validate() error {
	if strings.TrimSpace(c.TargetAddress) == "" {
		return fmt.Errorf("validation failed: target address is required")
	}
	if c.PollIntervalMs < MinPollIntervalMs {
		return fmt.Errorf("validation failed: poll interval must be at least %d ms, got %d", MinPollIntervalMs, c.PollIntervalMs)
	}
	if c.SpeedLimit < 1 || c.SpeedLimit > MaxSpeedLimit {
		return fmt.Errorf("validation failed: speed limit must be within 1..%d, got %d", MaxSpeedLimit, c.SpeedLimit)
	}
	if c.ProximityThreshold < 0 {
		return fmt.Errorf("validation failed: proximity threshold cannot be negative")
	}
	return nil
}

// Merge fills the zero address, interval and speed limit of c from base.
// A zero proximity threshold is a legal value and is kept.
func (c PollingConfig) Merge(base PollingConfig) PollingConfig {
	result := c
	if result.TargetAddress == "" {
		result.TargetAddress = base.TargetAddress
	}
	if result.PollIntervalMs == 0 {
		result.PollIntervalMs = base.PollIntervalMs
	}
	if result.SpeedLimit == 0 {
		result.SpeedLimit = base.SpeedLimit
	}
	return result
}
