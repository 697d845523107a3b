// Package tool implements ToolExecutor: a one-shot subprocess invocation
// that captures stdout/stderr into bounded buffers and yields a structured
// Result, per spec.md §4.6.
//
// Grounded on containers.go's ContainerSvc.Exec (process-group spawn,
// pipe-to-buffer capture) and images.go's Pull buffered-capture pattern;
// reuses internal/treekill for the graceful-then-forced-kill escalation
// process.Supervisor also uses, instead of hand-rolling a second copy of
// the same syscall/Job Object plumbing.
package tool

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/internal/treekill"
	"github.com/dcmtkgo/dcmtkgo/result"
)

// DefaultTimeout is used when Options.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// DefaultDrainTimeout bounds how long Exec waits after a graceful signal
// before escalating to a forced kill, mirroring process.Supervisor's stop
// sequence.
const DefaultDrainTimeout = 3 * time.Second

// DefaultMaxOutputBytes caps each of stdout and stderr.
const DefaultMaxOutputBytes = 8 << 20 // 8 MiB

// Options configures one Exec call.
type Options struct {
	Timeout        time.Duration
	Cancel         <-chan struct{}
	MaxOutputBytes int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxOutputBytes <= 0 {
		o.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return o
}

// Output is the captured result of a completed (not timed out, not
// cancelled) invocation. A non-zero ExitCode is still an Ok Result —
// interpreting it is the per-tool wrapper's job.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec spawns argv, waits for it to exit (or for opts.Timeout/opts.Cancel
// to fire first), and returns the captured output or a tagged error.
func Exec(argv command.Argv, opts Options) result.Result[Output] {
	opts = opts.withDefaults()

	cmd := exec.Command(argv.Bin, argv.Args...)
	treekill.PrepareCmd(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return result.Err[Output](result.Wrap(result.KindSpawn, "creating stdout pipe", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result.Err[Output](result.Wrap(result.KindSpawn, "creating stderr pipe", err))
	}

	if err := cmd.Start(); err != nil {
		return result.Err[Output](result.Wrap(result.KindSpawn, "failed to start process", err))
	}

	h, err := treekill.AfterStart(cmd)
	if err != nil {
		_ = cmd.Process.Kill()
		return result.Err[Output](result.Wrap(result.KindSpawn, "failed to attach tree handle", err))
	}
	defer treekill.Close(h)

	outBuf := newCapBuffer(opts.MaxOutputBytes)
	errBuf := newCapBuffer(opts.MaxOutputBytes)

	var eg errgroup.Group
	eg.Go(func() error { _, err := outBuf.ReadFrom(stdout); return err })
	eg.Go(func() error { _, err := errBuf.ReadFrom(stderr); return err })

	waitDone := make(chan error, 1)
	go func() {
		pipeErr := eg.Wait()
		waitErr := cmd.Wait()
		if pipeErr != nil && waitErr == nil {
			waitErr = pipeErr
		}
		waitDone <- waitErr
	}()

	pid := cmd.Process.Pid

	select {
	case waitErr := <-waitDone:
		return finish(waitErr, outBuf, errBuf)
	case <-timeoutOrNever(opts.Timeout):
		return abort(h, pid, waitDone, result.KindStartTimeout, fmt.Sprintf("exec timed out after %s", opts.Timeout))
	case <-cancelOrNever(opts.Cancel):
		return abort(h, pid, waitDone, result.KindCancelled, "exec cancelled")
	}
}

func timeoutOrNever(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}

func cancelOrNever(c <-chan struct{}) <-chan struct{} {
	return c
}

// abort signals the tree gracefully, escalates to a forced kill after
// DefaultDrainTimeout if it hasn't exited by then, and always waits for
// waitDone so the OS process is confirmed reaped before returning.
func abort(h treekill.Handle, pid int, waitDone <-chan error, kind result.Kind, msg string) result.Result[Output] {
	_ = treekill.Send(h, pid, treekill.Graceful)
	killTimer := time.AfterFunc(DefaultDrainTimeout, func() {
		_ = treekill.Send(h, pid, treekill.Kill)
	})
	<-waitDone
	killTimer.Stop()
	return result.Err[Output](result.New(kind, msg))
}

func finish(waitErr error, outBuf, errBuf *capBuffer) result.Result[Output] {
	code, _ := treekill.ExitInfo(waitErr)
	if outBuf.overflowed || errBuf.overflowed {
		return result.Err[Output](result.New(result.KindOverflow, "captured output exceeded MaxOutputBytes"))
	}
	return result.Ok(Output{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		ExitCode: code,
	})
}

// capBuffer accumulates up to max bytes and silently discards (while still
// draining, so the child's pipe never blocks on a full OS buffer) anything
// beyond that, flagging overflowed for the caller to translate into a
// BufferOverflowError per spec.md §4.6.
type capBuffer struct {
	mu         sync.Mutex
	data       []byte
	max        int
	overflowed bool
}

func newCapBuffer(max int) *capBuffer {
	return &capBuffer{max: max}
}

func (c *capBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overflowed {
		return len(p), nil
	}
	room := c.max - len(c.data)
	if len(p) > room {
		if room > 0 {
			c.data = append(c.data, p[:room]...)
		}
		c.overflowed = true
		return len(p), nil
	}
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *capBuffer) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.Write(buf[:n])
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}

func (c *capBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.data)
}
