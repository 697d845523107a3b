package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// FindSCUOptions configures a C-FIND query against a peer AE.
type FindSCUOptions struct {
	PeerOptions
	Timeout    int  `flag:"-to"`
	Extract    bool `flag:"-X"`
}

// FindSCUResult carries the raw matched-dataset dump printed to stdout; a
// higher layer (outside this package's scope) is responsible for parsing it
// into structured matches.
type FindSCUResult struct {
	Output string
}

// FindSCU sends a C-FIND query, read from queryFile, to host:port.
func FindSCU(res *resolver.Resolver, opts FindSCUOptions, peerHost string, peerPort int, queryFile string, execOpts tool.Options) result.Result[FindSCUResult] {
	argvR := buildArgv(res, "findscu", nil, opts, peerHost, strconv.Itoa(peerPort), queryFile)
	if argvR.IsErr() {
		return result.Err[FindSCUResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("findscu", argv, execOpts)
	if callErr != nil {
		return result.Err[FindSCUResult](callErr)
	}
	if !ok {
		return result.Err[FindSCUResult](exitError("findscu", out))
	}
	return result.Ok(FindSCUResult{Output: out.Stdout})
}
