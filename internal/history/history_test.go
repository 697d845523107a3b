package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecentRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	run := Run{
		CorrelationID: "11111111-1111-1111-1111-111111111111",
		RunName:       "blissful-tesla",
		Tool:          "echoscu",
		Argv:          "echoscu -aec ME -aet THEM 10.0.0.1 104",
		StartedAt:     now,
		FinishedAt:    now.Add(200 * time.Millisecond),
		ExitCode:      0,
		Status:        "ok",
	}
	if err := s.RecordRun(run); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := s.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Tool != "echoscu" || runs[0].Status != "ok" {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open (re-migrate) failed: %v", err)
	}
	defer s2.Close()
}
