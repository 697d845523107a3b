package server

import (
	"testing"
	"time"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/result"
)

func shArgv(script string) command.Argv {
	return command.Argv{Bin: "/bin/sh", Args: []string{"-c", script}}
}

func TestValidatePortRejectsOutOfRange(t *testing.T) {
	if err := validatePort(0); err == nil {
		t.Error("expected error for port 0")
	}
	if err := validatePort(70000); err == nil {
		t.Error("expected error for port > 65535")
	}
	if err := validatePort(104); err != nil {
		t.Errorf("expected no error for a valid port, got %v", err)
	}
}

func TestShellDispatchesTypedAssociationEvents(t *testing.T) {
	script := `
echo "I: Listening on port 11112"
echo "I: Association Received from AE: TESTCLIENT (peer 10.0.0.5)"
echo "I: Association Acknowledged (Max Send PDV: 16372)"
echo "I: Received Store SCP RQ: MsgID 1"
echo "I: storing DICOM file: /tmp/out/IMG001.dcm"
echo "I: store SCP: file stored: /tmp/out/IMG001.dcm"
echo "I: Association Release"
sleep 10
`
	sh := buildShell("storescp-test", shArgv(script), storeSCPPatterns(), fatalEvents(), []Option{
		WithStartTimeout(2 * time.Second),
		WithDrainTimeout(500 * time.Millisecond),
	})
	defer sh.Dispose()

	var mu chanSync
	mu.init("listening", "assoc", "ack", "storing", "stored", "release")

	var gotListening ListeningData
	var gotAssoc AssociationData
	var gotStoring, gotStored StoringFileData
	var ackCount, releaseCount int

	sh.OnListening(func(d ListeningData) { gotListening = d; mu.done("listening") })
	sh.OnAssociationReceived(func(d AssociationData) { gotAssoc = d; mu.done("assoc") })
	sh.OnAssociationAcknowledged(func() { ackCount++; mu.done("ack") })
	sh.OnStoringFile(func(d StoringFileData) { gotStoring = d; mu.done("storing") })
	sh.OnStoredFile(func(d StoringFileData) { gotStored = d; mu.done("stored") })
	sh.OnAssociationRelease(func() { releaseCount++; mu.done("release") })

	if r := sh.Start(); r.IsErr() {
		t.Fatalf("Start failed: %v", r.Error())
	}

	mu.waitAll(t, 3*time.Second, "listening", "assoc", "ack", "storing", "stored", "release")

	if gotListening.Port != "11112" {
		t.Errorf("listening port = %q", gotListening.Port)
	}
	if gotAssoc.CallingAE != "TESTCLIENT" || gotAssoc.PeerAddr != "10.0.0.5" {
		t.Errorf("association data = %+v", gotAssoc)
	}
	if ackCount != 1 {
		t.Errorf("ack count = %d", ackCount)
	}
	if gotStoring.FilePath != "/tmp/out/IMG001.dcm" {
		t.Errorf("storing file = %q", gotStoring.FilePath)
	}
	if gotStored.FilePath != "/tmp/out/IMG001.dcm" {
		t.Errorf("stored file = %q", gotStored.FilePath)
	}
	if releaseCount != 1 {
		t.Errorf("release count = %d", releaseCount)
	}

	if r := sh.Stop(); r.IsErr() {
		t.Fatalf("Stop failed: %v", r.Error())
	}
}

func TestShellFatalEventFiresOnFatalError(t *testing.T) {
	script := `echo "E: cannot listen on port 11112: Address already in use"; exit 1`
	sh := buildShell("storescp-test", shArgv(script), storeSCPPatterns(), fatalEvents(), []Option{
		WithStartTimeout(2 * time.Second),
	})
	defer sh.Dispose()

	var mu chanSync
	mu.init("fatal")
	sh.OnFatalError(func(err *result.Error) { mu.done("fatal") })

	sh.Start()
	mu.waitAll(t, 2*time.Second, "fatal")
}

// chanSync is a tiny fan-in test helper: every name passed to init gets its
// own buffered channel up front (so an event firing before waitAll is
// called is never silently lost), and waitAll blocks until every named
// signal has fired or the timeout elapses.
type chanSync struct {
	chans map[string]chan struct{}
}

func (c *chanSync) init(names ...string) {
	c.chans = make(map[string]chan struct{}, len(names))
	for _, n := range names {
		c.chans[n] = make(chan struct{}, 1)
	}
}

func (c *chanSync) done(name string) {
	ch, ok := c.chans[name]
	if !ok {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (c *chanSync) waitAll(t *testing.T, timeout time.Duration, names ...string) {
	t.Helper()
	deadline := time.After(timeout)
	for _, n := range names {
		select {
		case <-c.chans[n]:
		case <-deadline:
			t.Fatalf("timed out waiting for signal %q", n)
		}
	}
}
