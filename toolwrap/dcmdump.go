package toolwrap

import (
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// DcmDumpOptions configures a dataset dump.
type DcmDumpOptions struct {
	PrintAllElements bool   `flag:"+L"`
	SearchTag        string `flag:"+P"`
}

// DcmDumpResult carries the rendered element listing.
type DcmDumpResult struct {
	Text string
}

// DcmDump dumps the dataset in dcmFile as a human-readable element listing.
func DcmDump(res *resolver.Resolver, opts DcmDumpOptions, dcmFile string, execOpts tool.Options) result.Result[DcmDumpResult] {
	argvR := buildArgv(res, "dcmdump", nil, opts, dcmFile)
	if argvR.IsErr() {
		return result.Err[DcmDumpResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("dcmdump", argv, execOpts)
	if callErr != nil {
		return result.Err[DcmDumpResult](callErr)
	}
	if !ok {
		return result.Err[DcmDumpResult](exitError("dcmdump", out))
	}
	return result.Ok(DcmDumpResult{Text: out.Stdout})
}
