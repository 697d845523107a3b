// Package treekill implements descending an OS process tree to terminate
// it, shared by process.Supervisor (long-lived servers) and tool.Exec
// (one-shot invocations) — both need the same "signal the whole tree, not
// just the direct child" primitive spec.md §9's "Tree-kill" design note
// requires, since DCMTK wrappers and shell launchers fork helpers.
package treekill

// Signal abstracts the two ways a caller ever asks a process tree to go
// away; the underlying OS primitive differs by platform (POSIX signals vs.
// Windows job-object termination / console control events).
type Signal int

const (
	Graceful Signal = iota
	Kill
)
