// Package store persists console settings in a bbolt database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/open-teleop/rover-console/pkg/config"
)

// Filename is the database file inside the data directory.
const Filename = "console.db"

var (
	settingsBucket = []byte("settings")
	pollingKey     = []byte("polling")
)

// ErrNotFound is returned when no settings have been saved yet.
var ErrNotFound = errors.New("settings not found")

// Store is the settings database.
type Store struct {
	db   *bbolt.DB
	path string
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, Filename)
	db, err := bbolt.Open(path, 0o666, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings bucket: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// LoadPolling reads the saved polling configuration.
func (s *Store) LoadPolling() (config.PollingConfig, error) {
	var cfg config.PollingConfig
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(settingsBucket).Get(pollingKey)
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &cfg)
	})
	if err != nil {
		return config.PollingConfig{}, err
	}
	return cfg, nil
}

// SavePolling writes the polling configuration.
func (s *Store) SavePolling(cfg config.PollingConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode polling config: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(pollingKey, raw)
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
