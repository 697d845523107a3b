//go:build windows

package treekill

import (
	"fmt"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Handle is the Job Object a child process and all of its descendants are
// assigned to, so the whole tree can be torn down in one call.
type Handle struct {
	job windows.Handle
}

// PrepareCmd puts the child in its own process group so CTRL_BREAK_EVENT
// (used as the "graceful" signal, since POSIX SIGTERM has no Windows
// analogue) reaches it without also hitting this process.
func PrepareCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// AfterStart creates a Job Object with JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
// and assigns the freshly spawned process to it, so descendants spawned
// after this call (DCMTK wrapper scripts, helper processes) are still
// covered by a later TerminateJobObject.
//
// There is a narrow window between cmd.Start() and this call during which
// a fast-forking child could spawn a grandchild outside the job; the
// alternative (CREATE_SUSPENDED + assign + ResumeThread) closes it but
// requires raw CreateProcess plumbing that os/exec does not expose.
func AfterStart(cmd *exec.Cmd) (Handle, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return Handle{}, fmt.Errorf("creating job object: %w", err)
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		windows.CloseHandle(job)
		return Handle{}, fmt.Errorf("configuring job object: %w", err)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, uint32(cmd.Process.Pid))
	if err != nil {
		windows.CloseHandle(job)
		return Handle{}, fmt.Errorf("opening process for job assignment: %w", err)
	}
	defer windows.CloseHandle(proc)

	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		windows.CloseHandle(job)
		return Handle{}, fmt.Errorf("assigning process to job object: %w", err)
	}
	return Handle{job: job}, nil
}

func Close(h Handle) {
	if h.job != 0 {
		windows.CloseHandle(h.job)
	}
}

// Send asks the tree rooted at pid to exit. Graceful posts a
// CTRL_BREAK_EVENT to the process group (the child must opt in by not
// ignoring it; DCMTK binaries built with the standard CRT do); Kill closes
// the entire job unconditionally.
func Send(h Handle, pid int, sig Signal) error {
	if sig == Kill {
		return windows.TerminateJobObject(h.job, 1)
	}
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid))
}

// ExitInfo extracts the exit code from the error returned by exec.Cmd.Wait.
// Windows has no POSIX signal concept, so signal is always empty; a
// TerminateJobObject kill surfaces here only as a non-zero exit code.
func ExitInfo(err error) (code int, signal string) {
	if err == nil {
		return 0, ""
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1, ""
	}
	return exitErr.ExitCode(), ""
}
