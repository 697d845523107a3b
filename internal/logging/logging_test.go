package logging

import (
	"path/filepath"
	"testing"
)

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcmtkctl.log")
	logger := New(Config{Path: path, Level: "debug"})
	logger.Info("hello", "key", "value")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if parseLevel("bogus") != parseLevel("info") {
		t.Error("expected unknown level name to default to info")
	}
}

func TestValidateRejectsUnknownLevel(t *testing.T) {
	if err := Validate("trace"); err == nil {
		t.Error("expected error for unknown level name")
	}
	if err := Validate("warning"); err != nil {
		t.Errorf("expected warning to be accepted, got %v", err)
	}
}
