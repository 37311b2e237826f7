package store

import (
	"errors"
	"testing"

	"github.com/open-teleop/rover-console/pkg/config"
)

func TestLoadBeforeSave(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.LoadPolling(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSaveSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := config.PollingConfig{
		TargetAddress:      "10.0.0.7",
		PollIntervalMs:     250,
		SpeedLimit:         180,
		ProximityThreshold: 3,
	}
	if err := s.SavePolling(want); err != nil {
		t.Fatalf("SavePolling: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer s.Close()

	got, err := s.LoadPolling()
	if err != nil {
		t.Fatalf("LoadPolling: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
