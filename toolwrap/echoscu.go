package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// EchoSCUOptions configures a single C-ECHO verification against a peer AE.
type EchoSCUOptions struct {
	PeerOptions
	Timeout int `flag:"-to"`
}

// EchoSCUResult reports the outcome of a C-ECHO exchange.
type EchoSCUResult struct {
	Output string
}

// EchoSCU runs echoscu against host:port, confirming the peer AE is
// reachable and answering C-ECHO requests.
func EchoSCU(res *resolver.Resolver, opts EchoSCUOptions, peerHost string, peerPort int, execOpts tool.Options) result.Result[EchoSCUResult] {
	argvR := buildArgv(res, "echoscu", nil, opts, peerHost, strconv.Itoa(peerPort))
	if argvR.IsErr() {
		return result.Err[EchoSCUResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("echoscu", argv, execOpts)
	if callErr != nil {
		return result.Err[EchoSCUResult](callErr)
	}
	if !ok {
		return result.Err[EchoSCUResult](exitError("echoscu", out))
	}
	return result.Ok(EchoSCUResult{Output: out.Stdout})
}
