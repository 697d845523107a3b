package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// GetSCUOptions configures a C-GET retrieval request. Unlike C-MOVE, C-GET
// pulls instances directly down the same association, into OutputDirectory.
type GetSCUOptions struct {
	PeerOptions
	OutputDirectory string `flag:"-od" validate:"required,path"`
	Timeout         int    `flag:"-to"`
}

// GetSCUResult reports the outcome of a C-GET retrieval.
type GetSCUResult struct {
	Output string
}

// GetSCU sends a C-GET request, read from queryFile, to host:port.
func GetSCU(res *resolver.Resolver, opts GetSCUOptions, peerHost string, peerPort int, queryFile string, execOpts tool.Options) result.Result[GetSCUResult] {
	argvR := buildArgv(res, "getscu", nil, opts, peerHost, strconv.Itoa(peerPort), queryFile)
	if argvR.IsErr() {
		return result.Err[GetSCUResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("getscu", argv, execOpts)
	if callErr != nil {
		return result.Err[GetSCUResult](callErr)
	}
	if !ok {
		return result.Err[GetSCUResult](exitError("getscu", out))
	}
	return result.Ok(GetSCUResult{Output: out.Stdout})
}
