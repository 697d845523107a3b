package main

import (
	"fmt"
	"time"

	"github.com/dcmtkgo/dcmtkgo/ids"
	"github.com/dcmtkgo/dcmtkgo/internal/history"
	"github.com/dcmtkgo/dcmtkgo/toolwrap"
)

// DumpCmd wraps toolwrap.DcmDump.
type DumpCmd struct {
	File             string `arg:"" help:"DICOM file to dump"`
	PrintAllElements bool   `help:"print private and group-length elements too"`
	SearchTag        string `help:"only print elements matching this tag"`
}

func (c *DumpCmd) Run(ctx *Context) error {
	started := time.Now()
	r := toolwrap.DcmDump(ctx.Resolver, toolwrap.DcmDumpOptions{
		PrintAllElements: c.PrintAllElements,
		SearchTag:        c.SearchTag,
	}, c.File, ctx.execOpts())

	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: ids.NewCorrelationID(),
		RunName:       ids.NewRunName(),
		Tool:          "dcmdump",
		Argv:          fmt.Sprintf("dcmdump %s", c.File),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCodeFor(r.Error()),
		Status:        statusFor(r.Error()),
	})
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Text)
	return nil
}

// ConvCmd wraps toolwrap.DcmConv.
type ConvCmd struct {
	In             string `arg:"" help:"input DICOM file"`
	Out            string `arg:"" help:"output DICOM file"`
	TransferSyntax string `enum:"ea,eb,ei,xi" default:"ea" help:"output transfer syntax: ea=explicit little, eb=explicit big, ei=implicit little, xi=deflated explicit little"`
	Compress       bool   `help:"write with deflated explicit VR little endian transfer syntax"`
}

func (c *ConvCmd) Run(ctx *Context) error {
	started := time.Now()
	r := toolwrap.DcmConv(ctx.Resolver, toolwrap.DcmConvOptions{
		TransferSyntax: c.TransferSyntax,
		Compress:       c.Compress,
	}, c.In, c.Out, ctx.execOpts())

	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: ids.NewCorrelationID(),
		RunName:       ids.NewRunName(),
		Tool:          "dcmconv",
		Argv:          fmt.Sprintf("dcmconv %s %s", c.In, c.Out),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCodeFor(r.Error()),
		Status:        statusFor(r.Error()),
	})
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Printf("wrote %s\n", out.OutputPath)
	return nil
}

// Img2DcmCmd wraps toolwrap.Img2Dcm.
type Img2DcmCmd struct {
	In        string `arg:"" help:"input image file (e.g. JPEG)"`
	Out       string `arg:"" help:"output DICOM file"`
	StudyUID  string `required:"" help:"StudyInstanceUID to stamp onto the output"`
	SeriesUID string `help:"SeriesInstanceUID to stamp onto the output"`
}

func (c *Img2DcmCmd) Run(ctx *Context) error {
	started := time.Now()
	r := toolwrap.Img2Dcm(ctx.Resolver, toolwrap.Img2DcmOptions{
		StudyUID:  c.StudyUID,
		SeriesUID: c.SeriesUID,
	}, c.In, c.Out, ctx.execOpts())

	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: ids.NewCorrelationID(),
		RunName:       ids.NewRunName(),
		Tool:          "img2dcm",
		Argv:          fmt.Sprintf("img2dcm %s %s", c.In, c.Out),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCodeFor(r.Error()),
		Status:        statusFor(r.Error()),
	})
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Printf("wrote %s\n", out.OutputPath)
	return nil
}

// FTestCmd wraps toolwrap.DcmFTest. Unlike the other wrappers, a non-zero
// exit from dcmftest is not a command failure — it's the answer "no".
type FTestCmd struct {
	File string `arg:"" help:"file to test"`
}

func (c *FTestCmd) Run(ctx *Context) error {
	started := time.Now()
	r := toolwrap.DcmFTest(ctx.Resolver, c.File, ctx.execOpts())

	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: ids.NewCorrelationID(),
		RunName:       ids.NewRunName(),
		Tool:          "dcmftest",
		Argv:          fmt.Sprintf("dcmftest %s", c.File),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCodeFor(r.Error()),
		Status:        statusFor(r.Error()),
	})
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	if out.IsDICOM {
		fmt.Printf("%s: DICOM\n", c.File)
	} else {
		fmt.Printf("%s: not DICOM\n", c.File)
	}
	return nil
}

func exitCodeFor(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func statusFor(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
