// Package process implements ProcessSupervisor: the state machine that owns
// one spawned DCMTK binary end to end — spawn, readiness detection, line and
// event propagation, graceful drain, forced kill, and descendant teardown.
//
// Grounded on the reference native-process.go's localProcess/processTracker
// (process-group spawn, tree kill via syscall.Kill(-pgid, sig), signal name
// mapping) and the teacher's containers.go Exec path
// (SysProcAttr{Setpgid: true}). All concurrency in this package lives here;
// event.Parser and ioline.Extractor stay synchronous, as spec requires of
// the rest of the core.
package process

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/event"
	"github.com/dcmtkgo/dcmtkgo/internal/treekill"
	"github.com/dcmtkgo/dcmtkgo/ioline"
	"github.com/dcmtkgo/dcmtkgo/result"
)

const (
	// DefaultStartTimeout is spec.md §4.5's "default ~10s".
	DefaultStartTimeout = 10 * time.Second
	// DefaultSettleDelay is spec.md §4.5's "default ~500ms" used when no
	// readiness predicate is registered.
	DefaultSettleDelay = 500 * time.Millisecond
	// DefaultDrainTimeout is spec.md §4.5's "default ~3s".
	DefaultDrainTimeout = 3 * time.Second
	// DefaultMaxLineBytes is passed through to both LineExtractors unless
	// overridden.
	DefaultMaxLineBytes = ioline.DefaultMaxLineBytes

	stderrTailCap = 4096
)

// Config configures one Supervisor instance. Parser and FatalEvents are
// supplied by a ServerShell (or a one-shot ToolExecutor caller) per binary;
// IsStarted is the per-tool readiness predicate described in spec.md §9's
// "Open question — readiness".
type Config struct {
	Argv         command.Argv
	Parser       *event.Parser
	FatalEvents  map[string]bool
	IsStarted    func(ioline.LineRecord) bool
	StartTimeout time.Duration
	SettleDelay  time.Duration
	DrainTimeout time.Duration
	MaxLineBytes int
	Cancel       <-chan struct{}
}

func (c Config) withDefaults() Config {
	if c.StartTimeout <= 0 {
		c.StartTimeout = DefaultStartTimeout
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.FatalEvents == nil {
		c.FatalEvents = map[string]bool{}
	}
	return c
}

// Supervisor owns one subprocess. It is exclusively owned by its creator;
// concurrent calls are serialized internally but are not meant to be issued
// concurrently by unrelated callers (spec.md §5).
type Supervisor struct {
	cfg          Config
	outExtractor *ioline.Extractor
	errExtractor *ioline.Extractor

	mu       sync.Mutex
	state    State
	cmd      *exec.Cmd
	pid      int
	treeH    treekill.Handle
	disposed bool
	listeners []Listener

	startTimer *time.Timer
	drainTimer *time.Timer
	blockTimer *time.Timer

	startOnce     sync.Once
	startResultCh chan result.Result[struct{}]

	terminalOnce sync.Once
	terminalCh   chan struct{}

	stderrTail strings.Builder

	emitMu sync.Mutex
}

// New builds a Supervisor in IDLE. cfg.Parser must not be shared with any
// other Supervisor (spec.md §5: "no two supervisor instances may share an
// EventParser").
func New(cfg Config) *Supervisor {
	cfg = cfg.withDefaults()
	s := &Supervisor{
		cfg:           cfg,
		outExtractor:  ioline.New(ioline.Stdout, cfg.MaxLineBytes),
		errExtractor:  ioline.New(ioline.Stderr, cfg.MaxLineBytes),
		state:         IDLE,
		startResultCh: make(chan result.Result[struct{}], 1),
		terminalCh:    make(chan struct{}),
	}
	cfg.Parser.OnMatch = func(m event.MatchRecord) {
		s.emit(newMatchEmission(m.Event, m.Data))
		if s.cfg.FatalEvents[m.Event] {
			s.emit(newErrorEmission(result.New(result.KindFatalEvent, fmt.Sprintf("fatal event observed: %s", m.Event)), true))
		}
	}
	cfg.Parser.OnBlockTimeout = func(ev string, lines []string) {
		s.emit(newBlockTimeoutEmission(ev, lines))
		if s.cfg.FatalEvents[ev] {
			s.emit(newErrorEmission(result.New(result.KindFatalEvent, fmt.Sprintf("fatal event observed: %s", ev)), true))
		}
	}
	return s
}

// On registers a listener invoked, in registration order, for every
// Emission until Dispose.
func (s *Supervisor) On(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.listeners = append(s.listeners, l)
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the child's process ID, or 0 before a successful Start.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// transitionLocked applies state if the forward-only transition is legal.
// Must be called with s.mu held; does not emit (callers emit after
// unlocking, to keep listener invocation off the critical section).
func (s *Supervisor) transitionLocked(next State) bool {
	if !s.state.canAdvanceTo(next) {
		return false
	}
	s.state = next
	return true
}

func (s *Supervisor) markTerminal() {
	s.terminalOnce.Do(func() { close(s.terminalCh) })
}

func (s *Supervisor) sendStartResult(r result.Result[struct{}]) {
	s.startOnce.Do(func() { s.startResultCh <- r })
}

// emit delivers e to every registered listener, in order, unless the
// supervisor has been disposed. See Dispose for the synchronization that
// makes V4 ("no listener invoked after dispose returns") hold even against
// an emit already in flight when Dispose is called.
func (s *Supervisor) emit(e Emission) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return
	}
	for _, l := range listeners {
		l(e)
	}
}

func (s *Supervisor) appendStderrTail(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stderrTail.Len() > 0 {
		s.stderrTail.WriteByte('\n')
	}
	s.stderrTail.WriteString(text)
	if s.stderrTail.Len() > stderrTailCap {
		tail := s.stderrTail.String()
		s.stderrTail.Reset()
		s.stderrTail.WriteString(tail[len(tail)-stderrTailCap:])
	}
}

func (s *Supervisor) stderrTailString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderrTail.String()
}

func (s *Supervisor) stopStartTimer() {
	s.mu.Lock()
	t := s.startTimer
	s.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

func (s *Supervisor) stopDrainTimer() {
	s.mu.Lock()
	t := s.drainTimer
	s.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

func (s *Supervisor) stopBlockTimer() {
	s.mu.Lock()
	t := s.blockTimer
	s.blockTimer = nil
	s.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// syncBlockTimer arms a timer against the event parser's active block
// deadline, if any, so a footer that never arrives still produces a
// blockTimeout per spec.md §4.4(b). The parser itself never runs a timer.
func (s *Supervisor) syncBlockTimer() {
	dl, ok := s.cfg.Parser.ActiveDeadline()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		if s.blockTimer != nil {
			s.blockTimer.Stop()
			s.blockTimer = nil
		}
		return
	}
	if s.blockTimer != nil {
		return
	}
	d := time.Until(dl)
	if d < 0 {
		d = 0
	}
	s.blockTimer = time.AfterFunc(d, func() {
		s.cfg.Parser.AbandonActiveBlock()
		s.mu.Lock()
		s.blockTimer = nil
		s.mu.Unlock()
	})
}

func (s *Supervisor) handleLine(rec ioline.LineRecord) {
	s.mu.Lock()
	disposed := s.disposed
	state := s.state
	s.mu.Unlock()
	if disposed || state == STOPPED {
		return
	}

	if rec.Source == ioline.Stderr && !rec.Truncated {
		s.appendStderrTail(rec.Text)
	}
	s.emit(newLineEmission(rec.Source, rec.Text, rec.Truncated))

	if !rec.Truncated {
		s.cfg.Parser.Feed(rec.Text)
		s.syncBlockTimer()
	}

	s.mu.Lock()
	starting := s.state == STARTING
	hasPredicate := s.cfg.IsStarted != nil
	s.mu.Unlock()
	if starting && hasPredicate && s.cfg.IsStarted(rec) {
		s.resolveReady()
	}
}

func (s *Supervisor) resolveReady() {
	s.mu.Lock()
	if !s.transitionLocked(RUNNING) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.emit(newStateEmission(RUNNING))
	s.stopStartTimer()
	s.sendStartResult(result.Ok(struct{}{}))
}

func (s *Supervisor) onSettleDelay() {
	s.mu.Lock()
	if s.state != STARTING {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	select {
	case <-s.terminalCh:
		return // the child already exited; waitLoop owns resolution
	default:
	}
	s.resolveReady()
}

func (s *Supervisor) onStartTimeout() {
	s.failStarting(result.KindStartTimeout, "start timed out before readiness")
}

// failStarting moves a STARTING supervisor directly to FAILED — per spec.md
// §3's transition diagram, STARTING has no route to STOPPED, only to
// RUNNING or FAILED — and begins tearing the tree down.
func (s *Supervisor) failStarting(kind result.Kind, msg string) {
	s.mu.Lock()
	if !s.transitionLocked(FAILED) {
		s.mu.Unlock()
		return
	}
	h := s.treeH
	pid := s.pid
	s.mu.Unlock()

	s.emit(newStateEmission(FAILED))
	s.stopStartTimer()
	err := result.New(kind, msg)
	s.emit(newErrorEmission(err, false))
	s.sendStartResult(result.Err[struct{}](err))

	treekill.Send(h, pid, treekill.Graceful)
	time.AfterFunc(s.cfg.DrainTimeout, func() { treekill.Send(h, pid, treekill.Kill) })
}

func (s *Supervisor) watchCancel(cancel <-chan struct{}) {
	select {
	case <-cancel:
		s.Stop()
	case <-s.terminalCh:
	}
}

// Start is valid only from IDLE. It blocks until the child becomes ready,
// exits early, the start timer fires, or the supervisor is cancelled.
func (s *Supervisor) Start() result.Result[struct{}] {
	s.mu.Lock()
	if s.state != IDLE {
		s.mu.Unlock()
		return result.Err[struct{}](result.New(result.KindValidation, "Start called outside IDLE"))
	}

	cmd := exec.Command(s.cfg.Argv.Bin, s.cfg.Argv.Args...)
	treekill.PrepareCmd(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.mu.Unlock()
		return s.failSpawn(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.mu.Unlock()
		return s.failSpawn(err)
	}

	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return s.failSpawn(err)
	}

	h, err := treekill.AfterStart(cmd)
	if err != nil {
		_ = cmd.Process.Kill()
		s.mu.Unlock()
		return s.failSpawn(err)
	}

	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.treeH = h
	s.transitionLocked(STARTING)
	s.mu.Unlock()
	s.emit(newStateEmission(STARTING))

	if s.cfg.Cancel != nil {
		go s.watchCancel(s.cfg.Cancel)
	}

	s.mu.Lock()
	s.startTimer = time.AfterFunc(s.cfg.StartTimeout, s.onStartTimeout)
	s.mu.Unlock()
	if s.cfg.IsStarted == nil {
		time.AfterFunc(s.cfg.SettleDelay, s.onSettleDelay)
	}

	var eg errgroup.Group
	eg.Go(func() error { return s.outExtractor.Run(stdout, s.handleLine) })
	eg.Go(func() error { return s.errExtractor.Run(stderr, s.handleLine) })
	go s.waitLoop(cmd, &eg)

	return <-s.startResultCh
}

// failSpawn is the IDLE→FAILED path for an OS refusal to start the child at
// all (spec.md §7's SpawnError); no listeners have fired yet for this
// instance, so there is nothing to unwind beyond emitting state and error.
func (s *Supervisor) failSpawn(err error) result.Result[struct{}] {
	s.mu.Lock()
	s.transitionLocked(FAILED)
	s.mu.Unlock()
	e := result.Wrap(result.KindSpawn, "failed to start process", err)
	s.emit(newStateEmission(FAILED))
	s.emit(newErrorEmission(e, false))
	s.markTerminal()
	return result.Err[struct{}](e)
}

func (s *Supervisor) waitLoop(cmd *exec.Cmd, eg *errgroup.Group) {
	pipeErr := eg.Wait()
	waitErr := cmd.Wait()
	code, sig := treekill.ExitInfo(waitErr)

	s.mu.Lock()
	state := s.state
	h := s.treeH
	s.mu.Unlock()

	switch state {
	case STARTING:
		tail := s.stderrTailString()
		s.mu.Lock()
		s.transitionLocked(FAILED)
		s.mu.Unlock()
		s.emit(newStateEmission(FAILED))
		s.stopStartTimer()
		exitErr := result.Wrap(result.KindExit, fmt.Sprintf("process exited before becoming ready (code=%d)", code), errors.New(tail))
		s.emit(newErrorEmission(exitErr, false))
		s.emit(newExitEmission(code, sig, "early_exit"))
		s.sendStartResult(result.Err[struct{}](exitErr))
	case RUNNING:
		s.mu.Lock()
		s.transitionLocked(FAILED)
		s.mu.Unlock()
		s.emit(newStateEmission(FAILED))
		s.emit(newErrorEmission(result.New(result.KindExit, fmt.Sprintf("process exited unexpectedly (code=%d)", code)), false))
		s.emit(newExitEmission(code, sig, "crash"))
	case DRAINING, KILLING:
		reason := "stopped"
		if state == KILLING {
			reason = "killed"
		}
		s.mu.Lock()
		s.transitionLocked(STOPPED)
		s.mu.Unlock()
		s.emit(newStateEmission(STOPPED))
		s.emit(newExitEmission(code, sig, reason))
	case FAILED:
		// Already failed (start timeout or cancel-during-STARTING); the
		// tree-kill was already issued by failStarting.
		s.emit(newExitEmission(code, sig, "cancelled"))
	default:
		s.emit(newExitEmission(code, sig, "exited"))
	}

	if pipeErr != nil {
		s.emit(newErrorEmission(result.Wrap(result.KindSpawn, "reading child output failed", pipeErr), false))
	}

	treekill.Close(h)
	s.stopStartTimer()
	s.stopDrainTimer()
	s.stopBlockTimer()
	s.markTerminal()
}

// Stop is idempotent: in IDLE/STOPPED/FAILED it returns success immediately;
// in STARTING it aborts the pending start; in RUNNING it drains, escalating
// to a forced kill if the drain timer fires; in DRAINING/KILLING it waits
// for the stop already in progress.
func (s *Supervisor) Stop() result.Result[struct{}] {
	s.mu.Lock()
	switch s.state {
	case IDLE, STOPPED, FAILED:
		s.mu.Unlock()
		return result.Ok(struct{}{})
	case STARTING:
		s.mu.Unlock()
		s.failStarting(result.KindCancelled, "start aborted by stop")
		<-s.terminalCh
		return result.Ok(struct{}{})
	case DRAINING, KILLING:
		s.mu.Unlock()
		<-s.terminalCh
		return result.Ok(struct{}{})
	case RUNNING:
		s.transitionLocked(DRAINING)
		h := s.treeH
		pid := s.pid
		s.mu.Unlock()
		s.emit(newStateEmission(DRAINING))
		_ = treekill.Send(h, pid, treekill.Graceful)
		s.armDrainTimer()
		<-s.terminalCh
		return result.Ok(struct{}{})
	default:
		s.mu.Unlock()
		return result.Ok(struct{}{})
	}
}

func (s *Supervisor) armDrainTimer() {
	s.mu.Lock()
	s.drainTimer = time.AfterFunc(s.cfg.DrainTimeout, func() {
		s.mu.Lock()
		if !s.transitionLocked(KILLING) {
			s.mu.Unlock()
			return
		}
		h := s.treeH
		pid := s.pid
		s.mu.Unlock()
		s.emit(newStateEmission(KILLING))
		_ = treekill.Send(h, pid, treekill.Kill)
	})
	s.mu.Unlock()
}

// Dispose synchronously releases every resource this supervisor holds
// (timers, listeners) and, if the child is still alive, forces it down. It
// is callable in any state, including terminal ones, and is idempotent.
// After Dispose returns, no listener registered on this instance is ever
// invoked again — see emit's synchronization against emitMu.
func (s *Supervisor) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.listeners = nil
	h := s.treeH
	pid := s.pid
	state := s.state
	s.mu.Unlock()

	s.stopStartTimer()
	s.stopDrainTimer()
	s.stopBlockTimer()

	if !state.Terminal() && pid != 0 {
		_ = treekill.Send(h, pid, treekill.Kill)
	}

	// Wait for any emit already in flight to finish (this blocks until its
	// listener returns), then release emitMu so later emits are not held up;
	// they see disposed and return without calling anything.
	s.emitMu.Lock()
	s.emitMu.Unlock()
}
