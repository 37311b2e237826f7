package services

import (
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/open-teleop/rover-console/pkg/config"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/store"
)

// ErrInvalidSettings wraps every rejected settings update.
var ErrInvalidSettings = errors.New("invalid settings")

// SettingsStore persists the polling configuration.
type SettingsStore interface {
	LoadPolling() (config.PollingConfig, error)
	SavePolling(cfg config.PollingConfig) error
}

// SettingsListener applies a saved configuration to the running engine.
type SettingsListener interface {
	ApplySettings(cfg config.PollingConfig) error
}

// SettingsService manages the operator-editable polling configuration.
type SettingsService interface {
	LoadSettings() error
	GetCurrentSettings() config.PollingConfig
	GetCurrentSettingsYAML() ([]byte, error)
	UpdateSettings(cfg config.PollingConfig) error
	UpdateSettingsYAML(data []byte) error
	SetListener(l SettingsListener)
}

type settingsService struct {
	store    SettingsStore
	defaults config.PollingConfig
	logger   customlog.Logger
	listener SettingsListener
	current  config.PollingConfig
	mu       sync.RWMutex
}

// NewSettingsService creates the service and loads the saved settings,
// falling back to defaults when nothing was saved.
func NewSettingsService(st SettingsStore, defaults config.PollingConfig, logger customlog.Logger) (SettingsService, error) {
	if st == nil {
		return nil, fmt.Errorf("settings store cannot be nil")
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default settings: %w", err)
	}

	s := &settingsService{
		store:    st,
		defaults: defaults,
		logger:   logger,
		current:  defaults,
	}
	if err := s.LoadSettings(); err != nil {
		logger.Warnf("Loading saved settings failed, using defaults: %v", err)
	}
	return s, nil
}

// LoadSettings reads the store. Missing settings are not an error.
func (s *settingsService) LoadSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.store.LoadPolling()
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Infof("No saved settings, using defaults (rover %s, every %d ms)",
			s.defaults.TargetAddress, s.defaults.PollIntervalMs)
		s.current = s.defaults
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading settings: %w", err)
	}

	merged := saved.Merge(s.defaults)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("saved settings rejected: %w", err)
	}
	s.current = merged
	s.logger.Infof("Loaded settings: rover %s, every %d ms, speed limit %d",
		merged.TargetAddress, merged.PollIntervalMs, merged.SpeedLimit)
	return nil
}

// GetCurrentSettings returns the active configuration.
func (s *settingsService) GetCurrentSettings() config.PollingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetCurrentSettingsYAML renders the active configuration as YAML.
func (s *settingsService) GetCurrentSettingsYAML() ([]byte, error) {
	data, err := yaml.Marshal(s.GetCurrentSettings())
	if err != nil {
		return nil, fmt.Errorf("error encoding settings: %w", err)
	}
	return data, nil
}

// UpdateSettings validates, persists and then applies cfg. Nothing is
// applied if persisting fails.
func (s *settingsService) UpdateSettings(cfg config.PollingConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg = cfg.Merge(s.current)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if err := s.store.SavePolling(cfg); err != nil {
		s.logger.Errorf("Error persisting settings: %v", err)
		return fmt.Errorf("error persisting settings: %w", err)
	}

	old := s.current
	s.current = cfg
	s.logger.Infof("Settings updated: rover %s -> %s, interval %d -> %d ms",
		old.TargetAddress, cfg.TargetAddress, old.PollIntervalMs, cfg.PollIntervalMs)

	if s.listener != nil {
		if err := s.listener.ApplySettings(cfg); err != nil {
			return fmt.Errorf("settings saved but not applied: %w", err)
		}
	}
	return nil
}

// UpdateSettingsYAML parses data and calls UpdateSettings.
func (s *settingsService) UpdateSettingsYAML(data []byte) error {
	var cfg config.PollingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("%w: invalid YAML format: %v", ErrInvalidSettings, err)
	}
	return s.UpdateSettings(cfg)
}

// SetListener injects the engine after both sides exist.
func (s *settingsService) SetListener(l SettingsListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}
