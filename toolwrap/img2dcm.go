package toolwrap

import (
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// Img2DcmOptions configures encapsulation of a non-DICOM image (JPEG,
// typically) into a DICOM instance.
type Img2DcmOptions struct {
	StudyUID  string `flag:"-k" validate:"required"`
	SeriesUID string `flag:"-k"`
}

// Img2DcmResult reports the produced DICOM file's path.
type Img2DcmResult struct {
	OutputPath string
}

// Img2Dcm wraps imgFile into a DICOM instance at outFile using img2dcm.
func Img2Dcm(res *resolver.Resolver, opts Img2DcmOptions, imgFile, outFile string, execOpts tool.Options) result.Result[Img2DcmResult] {
	argvR := buildArgv(res, "img2dcm", nil, opts, imgFile, outFile)
	if argvR.IsErr() {
		return result.Err[Img2DcmResult](argvR.Error())
	}
	argv, _ := argvR.Value()

	out, ok, callErr := run("img2dcm", argv, execOpts)
	if callErr != nil {
		return result.Err[Img2DcmResult](callErr)
	}
	if !ok {
		return result.Err[Img2DcmResult](exitError("img2dcm", out))
	}
	return result.Ok(Img2DcmResult{OutputPath: outFile})
}
