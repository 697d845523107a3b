// Package toolwrap implements the per-tool wrapper pattern of spec.md §4.6:
// validate options -> resolve the binary -> build argv -> tool.Exec it ->
// translate a non-zero exit into the tool's own error variant -> on zero
// exit, return a typed record derived from stdout/stderr.
//
// Grounded on tool.Exec (this package's only spawn path) and on the
// teacher's per-operation methods on ContainerSvc/ImageSvc (containers.go,
// images.go), which follow the same "resolve then shell out then translate"
// shape one level up from raw exec.Command.
package toolwrap

import (
	"fmt"

	"github.com/dcmtkgo/dcmtkgo/command"
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// PeerOptions are the calling/called AE title flags shared by every SCU
// wrapper (echoscu, storescu, findscu, movescu, getscu, dcmsend).
type PeerOptions struct {
	CallingAETitle string `flag:"-aec" validate:"required,aetitle"`
	CalledAETitle  string `flag:"-aet" validate:"required,aetitle"`
}

// buildArgv resolves binary and renders argv, collapsing the two possible
// failure points (resolution, then validation/rendering) into one Result so
// every wrapper below has a single error-check site.
func buildArgv(res *resolver.Resolver, binary string, baseFlags []string, opts any, positional ...string) result.Result[command.Argv] {
	rootResult := res.Resolve()
	root, ok := rootResult.Value()
	if !ok {
		return result.Err[command.Argv](rootResult.Error())
	}
	return command.Build(root.Path(binary), baseFlags, opts, positional...)
}

// run executes argv and, on a clean spawn, reports whether the process
// itself exited zero. Spawn/timeout/cancel/overflow failures propagate as
// tool.Exec's own Result.Error(); a non-zero exit is reported via ok=false
// together with the captured Output, leaving the exit-code-to-error-variant
// translation to each wrapper (every DCMTK tool assigns its own meaning to
// particular exit codes).
func run(binary string, argv command.Argv, opts tool.Options) (out tool.Output, zeroExit bool, callErr *result.Error) {
	r := tool.Exec(argv, opts)
	if r.IsErr() {
		err := r.Error()
		if re, ok := err.(*result.Error); ok {
			return tool.Output{}, false, re
		}
		return tool.Output{}, false, result.Wrap(result.KindSpawn, fmt.Sprintf("%s: exec failed", binary), err)
	}
	out, _ = r.Value()
	return out, out.ExitCode == 0, nil
}

func exitError(binary string, out tool.Output) *result.Error {
	return result.Wrap(result.KindExit,
		fmt.Sprintf("%s exited %d", binary, out.ExitCode),
		fmt.Errorf("%s", out.Stderr))
}
