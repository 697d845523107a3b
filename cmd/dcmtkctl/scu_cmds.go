package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dcmtkgo/dcmtkgo/ids"
	"github.com/dcmtkgo/dcmtkgo/internal/history"
	"github.com/dcmtkgo/dcmtkgo/internal/peerbook"
	"github.com/dcmtkgo/dcmtkgo/internal/telemetry"
	"github.com/dcmtkgo/dcmtkgo/toolwrap"
)

// resolvePeer returns the target of an SCU command. An explicit --host
// bypasses the address book and is used with --port and --called-ae-title
// as given; otherwise the named peer is looked up in the address book, and
// --called-ae-title, when set, overrides the peer's AE title.
func resolvePeer(ctx *Context, peerName, hostFlag string, portFlag int, aetFlag string) (host string, port int, aet string, err error) {
	if hostFlag != "" {
		return hostFlag, portFlag, aetFlag, nil
	}
	peers, err := ctx.loadPeers()
	if err != nil {
		return "", 0, "", err
	}
	p, ok := peerbook.Lookup(peers, peerName)
	if !ok {
		return "", 0, "", fmt.Errorf("unknown peer %q and no --host given", peerName)
	}
	if aetFlag != "" {
		return p.Hostname, p.Port, aetFlag, nil
	}
	return p.Hostname, p.Port, p.AETitle, nil
}

// recordRun writes one history.Run row, best-effort: a failure to record
// history must never fail the command that actually ran.
func recordRun(ctx *Context, toolName, argv string, started time.Time, runErr error) {
	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: ids.NewCorrelationID(),
		RunName:       ids.NewRunName(),
		Tool:          toolName,
		Argv:          argv,
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCodeFor(runErr),
		Status:        statusFor(runErr),
	})
}

// EchoCmd wraps toolwrap.EchoSCU.
type EchoCmd struct {
	Peer           string `arg:"" predictor:"peer-name" help:"configured peer name (see 'dcmtkctl peer list')"`
	Host           string `help:"peer host, overriding the configured peer"`
	Port           int    `help:"peer port, overriding the configured peer"`
	CallingAETitle string `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle  string `help:"peer AE title, overriding the configured peer"`
}

func (c *EchoCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	_, span := telemetry.StartToolSpan(context.Background(), "echoscu", "")
	started := time.Now()

	r := toolwrap.EchoSCU(ctx.Resolver, toolwrap.EchoSCUOptions{
		PeerOptions: toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
	}, host, port, ctx.execOpts())

	telemetry.EndSpan(span, r.Error())
	recordRun(ctx, "echoscu", fmt.Sprintf("echoscu %s %d", host, port), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}

// StoreCmd wraps toolwrap.StoreSCU.
type StoreCmd struct {
	Peer           string   `arg:"" predictor:"peer-name" help:"configured peer name"`
	Files          []string `arg:"" help:"DICOM files to send"`
	Host           string   `help:"peer host, overriding the configured peer"`
	Port           int      `help:"peer port, overriding the configured peer"`
	CallingAETitle string   `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle  string   `help:"peer AE title, overriding the configured peer"`
}

func (c *StoreCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	started := time.Now()
	r := toolwrap.StoreSCU(ctx.Resolver, toolwrap.StoreSCUOptions{
		PeerOptions: toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
	}, host, port, c.Files, ctx.execOpts())

	recordRun(ctx, "storescu", fmt.Sprintf("storescu %s %d %v", host, port, c.Files), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}

// FindCmd wraps toolwrap.FindSCU.
type FindCmd struct {
	Peer           string `arg:"" predictor:"peer-name" help:"configured peer name"`
	QueryFile      string `arg:"" help:"DICOM query dataset file"`
	Host           string `help:"peer host, overriding the configured peer"`
	Port           int    `help:"peer port, overriding the configured peer"`
	CallingAETitle string `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle  string `help:"peer AE title, overriding the configured peer"`
}

func (c *FindCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	started := time.Now()
	r := toolwrap.FindSCU(ctx.Resolver, toolwrap.FindSCUOptions{
		PeerOptions: toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
	}, host, port, c.QueryFile, ctx.execOpts())

	recordRun(ctx, "findscu", fmt.Sprintf("findscu %s %d %s", host, port, c.QueryFile), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}

// MoveCmd wraps toolwrap.MoveSCU.
type MoveCmd struct {
	Peer            string `arg:"" predictor:"peer-name" help:"configured peer name"`
	QueryFile       string `arg:"" help:"DICOM query dataset file"`
	Host            string `help:"peer host, overriding the configured peer"`
	Port            int    `help:"peer port, overriding the configured peer"`
	CallingAETitle  string `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle   string `help:"peer AE title, overriding the configured peer"`
	MoveDestination string `required:"" help:"AE title instances should be pushed to"`
}

func (c *MoveCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	started := time.Now()
	r := toolwrap.MoveSCU(ctx.Resolver, toolwrap.MoveSCUOptions{
		PeerOptions:     toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
		MoveDestination: c.MoveDestination,
	}, host, port, c.QueryFile, ctx.execOpts())

	recordRun(ctx, "movescu", fmt.Sprintf("movescu %s %d %s", host, port, c.QueryFile), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}

// GetCmd wraps toolwrap.GetSCU.
type GetCmd struct {
	Peer            string `arg:"" predictor:"peer-name" help:"configured peer name"`
	QueryFile       string `arg:"" help:"DICOM query dataset file"`
	Host            string `help:"peer host, overriding the configured peer"`
	Port            int    `help:"peer port, overriding the configured peer"`
	CallingAETitle  string `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle   string `help:"peer AE title, overriding the configured peer"`
	OutputDirectory string `required:"" help:"directory retrieved instances are written to"`
}

func (c *GetCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	started := time.Now()
	r := toolwrap.GetSCU(ctx.Resolver, toolwrap.GetSCUOptions{
		PeerOptions:     toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
		OutputDirectory: c.OutputDirectory,
	}, host, port, c.QueryFile, ctx.execOpts())

	recordRun(ctx, "getscu", fmt.Sprintf("getscu %s %d %s", host, port, c.QueryFile), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}

// SendCmd wraps toolwrap.DcmSend.
type SendCmd struct {
	Peer           string   `arg:"" predictor:"peer-name" help:"configured peer name"`
	Paths          []string `arg:"" help:"DICOM files or directories to send"`
	Host           string   `help:"peer host, overriding the configured peer"`
	Port           int      `help:"peer port, overriding the configured peer"`
	CallingAETitle string   `default:"DCMTKCTL" help:"our AE title"`
	CalledAETitle  string   `help:"peer AE title, overriding the configured peer"`
	ScanDirs       bool     `help:"recurse into directory arguments"`
}

func (c *SendCmd) Run(ctx *Context) error {
	host, port, aet, err := resolvePeer(ctx, c.Peer, c.Host, c.Port, c.CalledAETitle)
	if err != nil {
		return err
	}
	started := time.Now()
	r := toolwrap.DcmSend(ctx.Resolver, toolwrap.DcmSendOptions{
		PeerOptions: toolwrap.PeerOptions{CallingAETitle: c.CallingAETitle, CalledAETitle: aet},
		ScanDirs:    c.ScanDirs,
	}, host, port, c.Paths, ctx.execOpts())

	recordRun(ctx, "dcmsend", fmt.Sprintf("dcmsend %s %d %v", host, port, c.Paths), started, r.Error())
	if r.IsErr() {
		return r.Error()
	}
	out, _ := r.Value()
	fmt.Print(out.Output)
	return nil
}
