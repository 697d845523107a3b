package toolwrap

import (
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// DcmFTestResult reports whether a file parses as a DICOM instance.
type DcmFTestResult struct {
	IsDICOM bool
	Output  string
}

// DcmFTest checks whether file is a readable DICOM instance. Unlike the
// other wrappers, dcmftest's non-zero exit is an expected, meaningful
// answer ("not a DICOM file") rather than a failure of the tool itself, so
// it is reported in the typed result instead of translated into an error —
// only a spawn/timeout/cancel/overflow failure of the call itself is an
// error here.
func DcmFTest(res *resolver.Resolver, file string, execOpts tool.Options) result.Result[DcmFTestResult] {
	argvR := buildArgv(res, "dcmftest", nil, struct{}{}, file)
	if argvR.IsErr() {
		return result.Err[DcmFTestResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("dcmftest", argv, execOpts)
	if callErr != nil {
		return result.Err[DcmFTestResult](callErr)
	}
	return result.Ok(DcmFTestResult{IsDICOM: ok, Output: out.Stdout})
}
