package toolwrap

import (
	"strconv"

	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// DcmSendOptions configures dcmsend, DCMTK's higher-level store client —
// unlike storescu it accepts directories as input and reports per-file
// progress in a more structured form, but still resolves to one C-STORE
// association per invocation.
type DcmSendOptions struct {
	PeerOptions
	ScanDirs         bool `flag:"+sd"`
	Recurse          bool `flag:"-r"`
	ReadFromDicomdir bool `flag:"+rd"`
}

// DcmSendResult reports a completed dcmsend submission.
type DcmSendResult struct {
	Output string
}

// DcmSend sends dcmFilesOrDirs to host:port via dcmsend.
func DcmSend(res *resolver.Resolver, opts DcmSendOptions, peerHost string, peerPort int, dcmFilesOrDirs []string, execOpts tool.Options) result.Result[DcmSendResult] {
	positional := append([]string{peerHost, strconv.Itoa(peerPort)}, dcmFilesOrDirs...)
	argvR := buildArgv(res, "dcmsend", nil, opts, positional...)
	if argvR.IsErr() {
		return result.Err[DcmSendResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("dcmsend", argv, execOpts)
	if callErr != nil {
		return result.Err[DcmSendResult](callErr)
	}
	if !ok {
		return result.Err[DcmSendResult](exitError("dcmsend", out))
	}
	return result.Ok(DcmSendResult{Output: out.Stdout})
}
