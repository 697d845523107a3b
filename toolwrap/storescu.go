package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// StoreSCUOptions configures a C-STORE push of one or more files to a peer AE.
type StoreSCUOptions struct {
	PeerOptions
	Timeout  int  `flag:"-to"`
	ScanDirs bool `flag:"+sd"`
	Recurse  bool `flag:"+r"`
}

// StoreSCUResult reports a completed C-STORE submission.
type StoreSCUResult struct {
	Output string
}

// StoreSCU sends dcmFiles to host:port via storescu.
func StoreSCU(res *resolver.Resolver, opts StoreSCUOptions, peerHost string, peerPort int, dcmFiles []string, execOpts tool.Options) result.Result[StoreSCUResult] {
	positional := append([]string{peerHost, strconv.Itoa(peerPort)}, dcmFiles...)
	argvR := buildArgv(res, "storescu", nil, opts, positional...)
	if argvR.IsErr() {
		return result.Err[StoreSCUResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("storescu", argv, execOpts)
	if callErr != nil {
		return result.Err[StoreSCUResult](callErr)
	}
	if !ok {
		return result.Err[StoreSCUResult](exitError("storescu", out))
	}
	return result.Ok(StoreSCUResult{Output: out.Stdout})
}
