package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("debug", &buf)

	logger.WithField("source", "keyboard").WithField("command", "forward").Infof("dispatching %s", "forward")

	line := buf.String()
	if !strings.Contains(line, "[INF] dispatching forward") {
		t.Errorf("Expected level and message in line, got %q", line)
	}
	if !strings.HasSuffix(line, " command=forward source=keyboard\n") {
		t.Errorf("Expected sorted fields at end of line, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("warn", &buf)

	logger.Infof("hidden")
	logger.Warnf("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[WAR] shown") {
		t.Errorf("Expected warn line, got %q", out)
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithOutput("loud", &buf)

	logger.Debugf("debug line")
	logger.Infof("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Errorf("Debug should be filtered when level falls back to info")
	}
	if !strings.Contains(out, "info line") {
		t.Errorf("Expected info line, got %q", out)
	}
}

func TestFileLoggerWritesOnlyToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogrusFileLogger("info", dir)
	if err != nil {
		t.Fatalf("NewLogrusFileLogger failed: %v", err)
	}
	logger.Infof("terminal view active")

	data, err := os.ReadFile(filepath.Join(dir, "console.log"))
	if err != nil {
		t.Fatalf("Expected console.log, got %v", err)
	}
	if !strings.Contains(string(data), "[INF] terminal view active") {
		t.Errorf("Expected line in log file, got %q", string(data))
	}
}
