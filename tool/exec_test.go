package tool

import (
	"strings"
	"testing"
	"time"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/result"
)

func shArgv(script string) command.Argv {
	return command.Argv{Bin: "/bin/sh", Args: []string{"-c", script}}
}

func TestExecCapturesStdoutStderrAndExitCode(t *testing.T) {
	r := Exec(shArgv(`echo out-line; echo err-line 1>&2; exit 7`), Options{Timeout: 2 * time.Second})
	if r.IsErr() {
		t.Fatalf("expected Ok, got error: %v", r.Error())
	}
	out, _ := r.Value()
	if strings.TrimSpace(out.Stdout) != "out-line" {
		t.Errorf("stdout = %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "err-line" {
		t.Errorf("stderr = %q", out.Stderr)
	}
	if out.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", out.ExitCode)
	}
}

func TestExecSpawnFailureReturnsError(t *testing.T) {
	r := Exec(command.Argv{Bin: "/no/such/binary-really"}, Options{Timeout: time.Second})
	if r.IsOk() {
		t.Fatal("expected spawn error for a nonexistent binary")
	}
	var rerr *result.Error
	if e, ok := r.Error().(*result.Error); ok {
		rerr = e
	}
	if rerr == nil || rerr.Kind != result.KindSpawn {
		t.Errorf("expected KindSpawn, got %v", r.Error())
	}
}

func TestExecTimesOutAndKillsProcess(t *testing.T) {
	start := time.Now()
	r := Exec(shArgv(`trap '' TERM; sleep 10`), Options{Timeout: 150 * time.Millisecond})
	elapsed := time.Since(start)
	if r.IsOk() {
		t.Fatal("expected a timeout error")
	}
	rerr, ok := r.Error().(*result.Error)
	if !ok || rerr.Kind != result.KindStartTimeout {
		t.Errorf("expected KindStartTimeout, got %v", r.Error())
	}
	if elapsed > DefaultDrainTimeout+2*time.Second {
		t.Errorf("took %s to escalate to a kill, expected roughly DefaultDrainTimeout", elapsed)
	}
}

func TestExecCancelStopsProcess(t *testing.T) {
	cancel := make(chan struct{})
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(cancel)
	}()
	r := Exec(shArgv(`sleep 10`), Options{Timeout: 5 * time.Second, Cancel: cancel})
	if r.IsOk() {
		t.Fatal("expected a cancellation error")
	}
	rerr, ok := r.Error().(*result.Error)
	if !ok || rerr.Kind != result.KindCancelled {
		t.Errorf("expected KindCancelled, got %v", r.Error())
	}
}

func TestExecOverflowReportsBufferOverflow(t *testing.T) {
	r := Exec(shArgv(`yes | head -c 1000000`), Options{Timeout: 2 * time.Second, MaxOutputBytes: 64})
	if r.IsOk() {
		t.Fatal("expected overflow error")
	}
	rerr, ok := r.Error().(*result.Error)
	if !ok || rerr.Kind != result.KindOverflow {
		t.Errorf("expected KindOverflow, got %v", r.Error())
	}
}

func TestExecNonZeroExitIsStillOk(t *testing.T) {
	r := Exec(shArgv(`exit 3`), Options{Timeout: time.Second})
	if r.IsErr() {
		t.Fatalf("non-zero exit should be Ok per spec: %v", r.Error())
	}
	out, _ := r.Value()
	if out.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", out.ExitCode)
	}
}
