package process

import (
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/event"
	"github.com/dcmtkgo/dcmtkgo/ioline"
)

func shArgv(script string) command.Argv {
	return command.Argv{Bin: "/bin/sh", Args: []string{"-c", script}}
}

func newTestSupervisor(t *testing.T, cfg Config) *Supervisor {
	t.Helper()
	if cfg.Parser == nil {
		cfg.Parser = event.New()
	}
	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = 2 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 30 * time.Millisecond
	}
	if cfg.DrainTimeout == 0 {
		cfg.DrainTimeout = time.Second
	}
	s := New(cfg)
	t.Cleanup(s.Dispose)
	return s
}

func TestStartResolvesReadyOnPredicate(t *testing.T) {
	cfg := Config{
		Argv:      shArgv(`echo READY; sleep 1`),
		IsStarted: func(l ioline.LineRecord) bool { return strings.Contains(l.Text, "READY") },
	}
	s := newTestSupervisor(t, cfg)

	var states []State
	var mu sync.Mutex
	s.On(func(e Emission) {
		if e.Kind == EmissionState {
			mu.Lock()
			states = append(states, e.State)
			mu.Unlock()
		}
	})

	res := s.Start()
	if res.IsErr() {
		t.Fatalf("Start: %v", res.Error())
	}
	if got := s.State(); got != RUNNING {
		t.Fatalf("state after Start = %v, want RUNNING", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[0] != STARTING || states[1] != RUNNING {
		t.Fatalf("state trace = %v, want [STARTING RUNNING ...]", states)
	}
}

func TestStartResolvesOnSettleDelayWithoutPredicate(t *testing.T) {
	cfg := Config{Argv: shArgv(`sleep 1`)}
	s := newTestSupervisor(t, cfg)

	res := s.Start()
	if res.IsErr() {
		t.Fatalf("Start: %v", res.Error())
	}
	if got := s.State(); got != RUNNING {
		t.Fatalf("state = %v, want RUNNING", got)
	}
}

// TestStartFailsOnEarlyExit models spec.md §4.5's "early exit" path: the
// child exits before the readiness predicate ever matches, so Start must
// resolve with an error and the state must be FAILED (never STOPPED),
// matching V2.
func TestStartFailsOnEarlyExit(t *testing.T) {
	cfg := Config{
		Argv:      shArgv(`echo boom 1>&2; exit 3`),
		IsStarted: func(ioline.LineRecord) bool { return false },
	}
	s := newTestSupervisor(t, cfg)

	res := s.Start()
	if res.IsOk() {
		t.Fatalf("expected Start to fail on early exit")
	}
	if got := s.State(); got != FAILED {
		t.Fatalf("state = %v, want FAILED", got)
	}
}

func TestStopDrainsRunningProcessGracefully(t *testing.T) {
	cfg := Config{
		Argv:         shArgv(`trap 'exit 0' TERM; echo READY; sleep 5 & wait`),
		IsStarted:    func(l ioline.LineRecord) bool { return strings.Contains(l.Text, "READY") },
		DrainTimeout: 2 * time.Second,
	}
	s := newTestSupervisor(t, cfg)

	if res := s.Start(); res.IsErr() {
		t.Fatalf("Start: %v", res.Error())
	}

	start := time.Now()
	res := s.Stop()
	if res.IsErr() {
		t.Fatalf("Stop: %v", res.Error())
	}
	if elapsed := time.Since(start); elapsed > cfg.DrainTimeout {
		t.Fatalf("Stop took %v, expected graceful exit well under drain timeout %v", elapsed, cfg.DrainTimeout)
	}
	if got := s.State(); got != STOPPED {
		t.Fatalf("state = %v, want STOPPED", got)
	}
}

// TestStopEscalatesToKillOnDrainTimeout exercises the DRAINING→KILLING→
// STOPPED branch for a child that ignores the graceful signal.
func TestStopEscalatesToKillOnDrainTimeout(t *testing.T) {
	cfg := Config{
		Argv:         shArgv(`trap '' TERM; echo READY; sleep 10`),
		IsStarted:    func(l ioline.LineRecord) bool { return strings.Contains(l.Text, "READY") },
		DrainTimeout: 200 * time.Millisecond,
	}
	s := newTestSupervisor(t, cfg)

	var sawKilling bool
	var mu sync.Mutex
	s.On(func(e Emission) {
		if e.Kind == EmissionState && e.State == KILLING {
			mu.Lock()
			sawKilling = true
			mu.Unlock()
		}
	})

	if res := s.Start(); res.IsErr() {
		t.Fatalf("Start: %v", res.Error())
	}
	if res := s.Stop(); res.IsErr() {
		t.Fatalf("Stop: %v", res.Error())
	}
	if got := s.State(); got != STOPPED {
		t.Fatalf("state = %v, want STOPPED", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if !sawKilling {
		t.Fatalf("expected a KILLING state transition before STOPPED")
	}
}

// TestStopIsIdempotent is V3: calling Stop on a supervisor that never
// started returns success without ever spawning anything.
func TestStopIsIdempotent(t *testing.T) {
	s := newTestSupervisor(t, Config{Argv: shArgv(`true`)})
	for i := 0; i < 3; i++ {
		if res := s.Stop(); res.IsErr() {
			t.Fatalf("Stop() #%d: %v", i, res.Error())
		}
	}
	if got := s.State(); got != IDLE {
		t.Fatalf("state = %v, want IDLE (never started)", got)
	}
}

// TestDisposeStopsFurtherEmissions is V4.
func TestDisposeStopsFurtherEmissions(t *testing.T) {
	s := New(Config{Argv: shArgv(`true`), Parser: event.New()})
	var calls int
	var mu sync.Mutex
	s.On(func(Emission) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	s.emit(newStateEmission(IDLE))
	s.Dispose()
	s.emit(newStateEmission(STOPPED))

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly 1 listener invocation before Dispose, got %d", calls)
	}
}

func TestFatalEventEmitsErrorWithFatalFlag(t *testing.T) {
	parser := event.New()
	parser.AddPattern(event.Pattern{
		Event: "cannot_listen",
		Regex: regexp.MustCompile(`cannot listen on port`),
	})
	cfg := Config{
		Argv:        shArgv(`echo "cannot listen on port 104" 1>&2; sleep 1`),
		Parser:      parser,
		FatalEvents: map[string]bool{"cannot_listen": true},
		IsStarted:   func(l ioline.LineRecord) bool { return strings.Contains(l.Text, "cannot listen") },
	}
	s := newTestSupervisor(t, cfg)

	var sawFatal bool
	var mu sync.Mutex
	done := make(chan struct{})
	s.On(func(e Emission) {
		if e.Kind == EmissionError && e.Fatal {
			mu.Lock()
			sawFatal = true
			mu.Unlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})

	if res := s.Start(); res.IsErr() {
		t.Fatalf("Start: %v", res.Error())
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fatal error emission")
	}

	mu.Lock()
	defer mu.Unlock()
	if !sawFatal {
		t.Fatalf("expected a fatal error emission")
	}
}
