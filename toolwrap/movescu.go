package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// MoveSCUOptions configures a C-MOVE retrieval request, which asks the peer
// AE to push matching instances to a third "move destination" AE.
type MoveSCUOptions struct {
	PeerOptions
	MoveDestination string `flag:"-aem" validate:"required,aetitle"`
	Timeout         int    `flag:"-to"`
}

// MoveSCUResult reports the outcome of a C-MOVE request; the instances
// themselves arrive at the move destination's own storescp/dcmrecv, not
// here.
type MoveSCUResult struct {
	Output string
}

// MoveSCU sends a C-MOVE request, read from queryFile, to host:port.
func MoveSCU(res *resolver.Resolver, opts MoveSCUOptions, peerHost string, peerPort int, queryFile string, execOpts tool.Options) result.Result[MoveSCUResult] {
	argvR := buildArgv(res, "movescu", nil, opts, peerHost, strconv.Itoa(peerPort), queryFile)
	if argvR.IsErr() {
		return result.Err[MoveSCUResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("movescu", argv, execOpts)
	if callErr != nil {
		return result.Err[MoveSCUResult](callErr)
	}
	if !ok {
		return result.Err[MoveSCUResult](exitError("movescu", out))
	}
	return result.Ok(MoveSCUResult{Output: out.Stdout})
}
