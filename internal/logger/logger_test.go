package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(Config{Level: "debug", Format: "json", Output: "file", FilePath: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log line in %s", path)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at info level")
	}
}
