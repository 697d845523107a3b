//go:build !windows

package treekill

import (
	"os/exec"
	"syscall"
)

// Handle carries no extra state on POSIX: the process group itself,
// established at spawn time via Setpgid, is the tree handle.
type Handle struct{}

// PrepareCmd marks cmd to start as the leader of a new process group, so
// the whole tree it spawns can be signalled at once. Grounded on the
// reference native-process.go's localProcess spawn
// (`c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}`) and the teacher's
// containers.go Exec path.
func PrepareCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// AfterStart is a no-op on POSIX: the process group was already established
// by PrepareCmd before Start.
func AfterStart(cmd *exec.Cmd) (Handle, error) { return Handle{}, nil }

func Close(Handle) {}

// Send sends sig to the process group rooted at pid. Falls back to
// signalling pid alone if the group lookup fails (pid already reaped, or
// never became its own group leader).
func Send(h Handle, pid int, sig Signal) error {
	s := syscall.SIGTERM
	if sig == Kill {
		s = syscall.SIGKILL
	}
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return syscall.Kill(pid, s)
	}
	return syscall.Kill(-pgid, s)
}

// ExitInfo extracts the exit code and, if the process died from a signal,
// its name, from the error returned by exec.Cmd.Wait.
func ExitInfo(err error) (code int, signal string) {
	if err == nil {
		return 0, ""
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1, ""
	}
	code = exitErr.ExitCode()
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		signal = signalName(status.Signal())
	}
	return code, signal
}

func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGQUIT:
		return "SIGQUIT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGABRT:
		return "SIGABRT"
	case syscall.SIGSEGV:
		return "SIGSEGV"
	case syscall.SIGPIPE:
		return "SIGPIPE"
	default:
		return sig.String()
	}
}
