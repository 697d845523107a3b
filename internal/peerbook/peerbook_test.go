package peerbook

import (
	"path/filepath"
	"testing"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.conf")
	peers := []Peer{
		{Name: "pacs-main", Hostname: "10.0.0.10", Port: 104, AETitle: "PACSMAIN"},
		{Name: "qa-node", Hostname: "10.0.0.20", Port: 11112, AETitle: "QANODE"},
	}
	if err := Save(path, peers); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(loaded))
	}

	p, ok := Lookup(loaded, "pacs-main")
	if !ok {
		t.Fatal("expected to find pacs-main")
	}
	if p.Hostname != "10.0.0.10" || p.Port != 104 || p.AETitle != "PACSMAIN" {
		t.Errorf("loaded peer = %+v", p)
	}
}

func TestLoadMissingFileReturnsEmptyBook(t *testing.T) {
	peers, err := Load(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(peers) != 0 {
		t.Errorf("expected empty book, got %d peers", len(peers))
	}
}

func TestLookupMiss(t *testing.T) {
	if _, ok := Lookup(nil, "nope"); ok {
		t.Error("expected miss on empty book")
	}
}
