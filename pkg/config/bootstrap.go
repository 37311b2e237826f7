package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFilename is the file LoadBootstrapConfig reads inside the config directory.
const BootstrapFilename = "console_config.yaml"

// BootstrapConfig holds the initial configuration loaded from console_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Rover      RoverConfig      `yaml:"rover"`
	ZeroMQ     ZeroMQBootstrap  `yaml:"zeromq"`
	Data       DataConfig       `yaml:"data"`
	Processing ProcessingConfig `yaml:"processing"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// ServerConfig holds the operator-facing HTTP server settings
type ServerConfig struct {
	HTTPPort  int    `yaml:"http_port"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// RoverConfig holds rover transport settings that are not operator-editable.
type RoverConfig struct {
	DefaultAddress     string `yaml:"default_address"`
	RequestTimeoutMs   int    `yaml:"request_timeout_ms"`
	SettleDelayMs      int    `yaml:"settle_delay_ms"`
	LogFetchIntervalMs int    `yaml:"log_fetch_interval_ms"`
}

// ZeroMQBootstrap holds the telemetry fan-out socket settings.
// An empty PublishBindAddress disables fan-out; an empty ReplyBindAddress
// disables the query socket.
type ZeroMQBootstrap struct {
	PublishBindAddress string `yaml:"publish_bind_address,omitempty"`
	ReplyBindAddress   string `yaml:"reply_bind_address,omitempty"`
}

// ProcessingConfig holds request lane worker configuration from bootstrap
type ProcessingConfig struct {
	HighPriorityWorkers     int `yaml:"high_priority_workers"`
	StandardPriorityWorkers int `yaml:"standard_priority_workers"`
	LowPriorityWorkers      int `yaml:"low_priority_workers"`
	QueueSize               int `yaml:"queue_size"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory string `yaml:"directory"`
}

// LoadBootstrapConfig loads the bootstrap configuration from console_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFilename)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}

	bootstrapCfg.applyDefaults()
	return &bootstrapCfg, nil
}

func (c *BootstrapConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Rover.DefaultAddress == "" {
		c.Rover.DefaultAddress = DefaultRoverAddress
	}
	if c.Rover.RequestTimeoutMs <= 0 {
		c.Rover.RequestTimeoutMs = 2000
	}
	if c.Rover.SettleDelayMs <= 0 {
		c.Rover.SettleDelayMs = 500
	}
	if c.Rover.LogFetchIntervalMs <= 0 {
		c.Rover.LogFetchIntervalMs = 5000
	}
	if c.Processing.HighPriorityWorkers <= 0 {
		c.Processing.HighPriorityWorkers = 1
	}
	if c.Processing.StandardPriorityWorkers <= 0 {
		c.Processing.StandardPriorityWorkers = 2
	}
	if c.Processing.LowPriorityWorkers <= 0 {
		c.Processing.LowPriorityWorkers = 2
	}
	if c.Processing.QueueSize <= 0 {
		c.Processing.QueueSize = 100
	}
}
