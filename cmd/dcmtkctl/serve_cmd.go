package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcmtkgo/dcmtkgo/ids"
	"github.com/dcmtkgo/dcmtkgo/internal/history"
	"github.com/dcmtkgo/dcmtkgo/internal/telemetry"
	"github.com/dcmtkgo/dcmtkgo/result"
	"github.com/dcmtkgo/dcmtkgo/server"
)

// ServeCmd runs one of the six long-lived DCMTK SCP binaries in the
// foreground, generalizing cmd/sand/daemon_cmd.go's start/stop control
// surface to a single blocking "run until signalled" command: there is no
// equivalent here of sand's background daemon + unix-socket control mux,
// since every SPEC_FULL.md server is already supervised in-process by
// process.Supervisor and is meant to be run under whatever the operator's
// own service manager is (systemd, a container entrypoint, ...).
type ServeCmd struct {
	StoreSCP StoreSCPCmd `cmd:"" name:"storescp" help:"run storescp"`
	DcmRecv  DcmRecvCmd  `cmd:"" name:"dcmrecv" help:"run dcmrecv"`
	DcmQRSCP DcmQRSCPCmd `cmd:"" name:"dcmqrscp" help:"run dcmqrscp"`
	DcmPSRcv DcmPSRcvCmd `cmd:"" name:"dcmpsrcv" help:"run dcmpsrcv"`
	DcmPRScp DcmPRScpCmd `cmd:"" name:"dcmprscp" help:"run dcmprscp"`
	Wlmscpfs WlmscpfsCmd `cmd:"" name:"wlmscpfs" help:"run wlmscpfs"`
}

type commonServeFlags struct {
	AETitle  string `required:"" help:"AE title this server answers to"`
	Port     int    `required:"" help:"TCP port to listen on"`
	Verbose  bool   `help:"enable verbose DCMTK logging"`
	LogLevel string `default:"" placeholder:"<level>" help:"DCMTK's own --log-level (debug, info, warning, error, fatal), separate from --log-level on dcmtkctl itself"`
}

func (f commonServeFlags) common() server.CommonOptions {
	return server.CommonOptions{AETitle: f.AETitle, Verbose: f.Verbose, LogLevel: f.LogLevel}
}

// runShell starts sh, logs its association-received, association-aborted
// and fatal-error events to ctx.Logger,
// blocks until SIGINT/SIGTERM, then stops it and records one history.Run
// row spanning the whole foreground lifetime.
func runShell(ctx *Context, toolName string, sh *server.Shell) error {
	started := time.Now()
	corrID := ids.NewCorrelationID()
	_, span := telemetry.StartProcessSpan(context.Background(), toolName, corrID)

	sh.OnAssociationReceived(func(d server.AssociationData) {
		ctx.Logger.Info("association received", "tool", toolName, "calling_ae", d.CallingAE, "peer_addr", d.PeerAddr)
	})
	sh.OnAssociationAborted(func() {
		ctx.Logger.Warn("association aborted", "tool", toolName)
	})
	sh.OnFatalError(func(e *result.Error) {
		ctx.Logger.Error("fatal error", "tool", toolName, "error", e.Error())
	})

	startR := sh.Start()
	if startR.IsErr() {
		telemetry.EndSpan(span, startR.Error())
		return startR.Error()
	}
	ctx.Logger.Info("server started", "tool", toolName, "pid", sh.PID())
	fmt.Printf("%s running (pid %d), press Ctrl+C to stop\n", toolName, sh.PID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	signal.Stop(sigCh)

	stopR := sh.Stop()
	sh.Dispose()
	telemetry.EndSpan(span, stopR.Error())

	status, exitCode := "ok", 0
	if stopR.IsErr() {
		status, exitCode = "error", 1
	}
	_ = ctx.History.RecordRun(history.Run{
		CorrelationID: corrID,
		RunName:       ids.NewRunName(),
		Tool:          toolName,
		Argv:          fmt.Sprintf("%s (pid %d)", toolName, sh.PID()),
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ExitCode:      exitCode,
		Status:        status,
	})
	if stopR.IsErr() {
		return stopR.Error()
	}
	return nil
}

type StoreSCPCmd struct {
	commonServeFlags
	OutputDirectory string `required:"" help:"directory received instances are written to"`
	MaxPDU          int    `help:"maximum PDU size in bytes"`
}

func (c *StoreSCPCmd) Run(ctx *Context) error {
	r := server.CreateStoreSCP(ctx.Resolver, server.StoreSCPOptions{
		CommonOptions:   c.common(),
		Port:            c.Port,
		OutputDirectory: c.OutputDirectory,
		MaxPDU:          c.MaxPDU,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "storescp", sh)
}

type DcmRecvCmd struct {
	commonServeFlags
	Output string `required:"" help:"directory received instances are written to"`
}

func (c *DcmRecvCmd) Run(ctx *Context) error {
	r := server.CreateDcmRecv(ctx.Resolver, server.DcmRecvOptions{
		CommonOptions: c.common(),
		Port:          c.Port,
		Output:        c.Output,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "dcmrecv", sh)
}

type DcmQRSCPCmd struct {
	commonServeFlags
	ConfigFile string `required:"" help:"dcmqrscp.cfg path"`
}

func (c *DcmQRSCPCmd) Run(ctx *Context) error {
	r := server.CreateDcmQRSCP(ctx.Resolver, server.DcmQRSCPOptions{
		CommonOptions: c.common(),
		Port:          c.Port,
		ConfigFile:    c.ConfigFile,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "dcmqrscp", sh)
}

type DcmPSRcvCmd struct {
	commonServeFlags
	OutputDirectory string `required:"" help:"directory received presentation states are written to"`
}

func (c *DcmPSRcvCmd) Run(ctx *Context) error {
	r := server.CreateDcmPSRcv(ctx.Resolver, server.DcmPSRcvOptions{
		CommonOptions:   c.common(),
		Port:            c.Port,
		OutputDirectory: c.OutputDirectory,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "dcmpsrcv", sh)
}

type DcmPRScpCmd struct {
	commonServeFlags
	OutputDirectory string `required:"" help:"directory received print jobs are written to"`
}

func (c *DcmPRScpCmd) Run(ctx *Context) error {
	r := server.CreateDcmPRScp(ctx.Resolver, server.DcmPRScpOptions{
		CommonOptions:   c.common(),
		Port:            c.Port,
		OutputDirectory: c.OutputDirectory,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "dcmprscp", sh)
}

type WlmscpfsCmd struct {
	commonServeFlags
	DataDir string `required:"" help:"filesystem worklist database directory"`
}

func (c *WlmscpfsCmd) Run(ctx *Context) error {
	r := server.CreateWlmscpfs(ctx.Resolver, server.WlmscpfsOptions{
		CommonOptions: c.common(),
		Port:          c.Port,
		DataDir:       c.DataDir,
	})
	if r.IsErr() {
		return r.Error()
	}
	sh, _ := r.Value()
	return runShell(ctx, "wlmscpfs", sh)
}
