package toolwrap

import (
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// DcmConvOptions configures a transfer-syntax conversion.
type DcmConvOptions struct {
	TransferSyntax string `flag:"-t" validate:"enum=ea,eb,ei,xi"`
	Compress       bool   `flag:"+compr"`
}

// DcmConvResult reports the converted file's path, unchanged from the
// caller-supplied outFile — the typed record exists so a wrapper's return
// shape is always a struct, matching every other toolwrap function.
type DcmConvResult struct {
	OutputPath string
}

// DcmConv converts inFile to outFile using dcmconv.
func DcmConv(res *resolver.Resolver, opts DcmConvOptions, inFile, outFile string, execOpts tool.Options) result.Result[DcmConvResult] {
	argvR := buildArgv(res, "dcmconv", nil, opts, inFile, outFile)
	if argvR.IsErr() {
		return result.Err[DcmConvResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("dcmconv", argv, execOpts)
	if callErr != nil {
		return result.Err[DcmConvResult](callErr)
	}
	if !ok {
		return result.Err[DcmConvResult](exitError("dcmconv", out))
	}
	return result.Ok(DcmConvResult{OutputPath: outFile})
}
