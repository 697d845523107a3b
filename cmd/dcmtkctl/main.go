// Command dcmtkctl is the CLI front-end over the resolver/command/process/
// event/tool/server core: one subcommand per toolwrap SCU/conversion tool,
// a "serve" group for the long-lived SCP binaries, and "peer"/"history"
// for the address book and run ledger.
//
// Grounded on cmd/sand/main.go (kong.Parse + kong.Configuration + initSlog
// bootstrap sequence), cmd/sand/new_cmd.go (per-command Run(cctx) shape),
// and cmd/sand/daemon_cmd.go (a long-running foreground command that waits
// on a signal before exiting cleanly, the template "serve" subcommands
// follow).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongplete "github.com/jotaen/kong-completion"
	"github.com/posener/complete"

	"github.com/dcmtkgo/dcmtkgo/internal/history"
	"github.com/dcmtkgo/dcmtkgo/internal/logging"
	"github.com/dcmtkgo/dcmtkgo/internal/peerbook"
	"github.com/dcmtkgo/dcmtkgo/internal/telemetry"
	"github.com/dcmtkgo/dcmtkgo/resolver"
)

type CLI struct {
	LogFile        string        `default:"" placeholder:"<log-file-path>" help:"location of the JSON log file (defaults to <app-dir>/dcmtkctl.log)"`
	LogLevel       string        `default:"info" enum:"debug,info,warning,error,fatal" help:"the logging level"`
	AppDir         string        `default:"" placeholder:"<dir>" help:"directory for history.db/peers.conf/logs (defaults to the OS config dir)"`
	Timeout        time.Duration `default:"30s" help:"per-invocation timeout for one-shot tool commands"`
	OTLPEndpoint   string        `default:"" placeholder:"<host:port>" help:"OTLP/gRPC collector endpoint; tracing is disabled if unset"`

	Echo    EchoCmd    `cmd:"" help:"verify a peer AE answers C-ECHO"`
	Store   StoreCmd   `cmd:"" help:"push files to a peer AE via C-STORE"`
	Find    FindCmd    `cmd:"" help:"run a C-FIND query against a peer AE"`
	Move    MoveCmd    `cmd:"" help:"run a C-MOVE retrieval against a peer AE"`
	Get     GetCmd     `cmd:"" help:"run a C-GET retrieval against a peer AE"`
	Send    SendCmd    `cmd:"" help:"send files or directories to a peer AE via dcmsend"`
	Dump    DumpCmd    `cmd:"" help:"dump a DICOM file's dataset"`
	Conv    ConvCmd    `cmd:"" help:"convert a DICOM file's transfer syntax"`
	Img2Dcm Img2DcmCmd `cmd:"" help:"encapsulate an image file into a DICOM instance"`
	FTest   FTestCmd   `cmd:"" help:"test whether a file parses as DICOM"`

	Serve ServeCmd `cmd:"" help:"run a long-lived SCP binary in the foreground"`

	Peer    PeerCmd    `cmd:"" help:"manage the peer AE address book"`
	History HistoryCmd `cmd:"" help:"show recent tool/server run history"`
	Version VersionCmd `cmd:"" help:"print build and resolved-DCMTK version info"`
}

func appDir(override string) (string, error) {
	if override != "" {
		if err := os.MkdirAll(override, 0o755); err != nil {
			return "", err
		}
		return override, nil
	}
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	dir := filepath.Join(cfgDir, "dcmtkctl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return dir, nil
}

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Configuration(kongyaml.Loader, "dcmtkctl.yaml", "~/.config/dcmtkctl/dcmtkctl.yaml"),
		kong.Description("Supervise and drive a DCMTK installation: one-shot SCU tools, long-lived SCP servers, a peer address book, and a run history."),
	)

	kongplete.Complete(parser,
		kongplete.WithPredictor("peer-name", peerNamePredictor),
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	dir, err := appDir(cli.AppDir)
	parser.FatalIfErrorf(err)

	logFile := cli.LogFile
	if logFile == "" {
		logFile = filepath.Join(dir, "dcmtkctl.log")
	}
	logger := logging.New(logging.Config{Path: logFile, Level: cli.LogLevel})

	hist, err := history.Open(filepath.Join(dir, "history.db"))
	parser.FatalIfErrorf(err)
	defer hist.Close()

	tp, err := telemetry.NewProvider(context.Background(), cli.OTLPEndpoint, "dcmtkctl")
	parser.FatalIfErrorf(err)
	defer tp.Shutdown(context.Background())

	appCtx := &Context{
		AppDir:       dir,
		PeerBookPath: filepath.Join(dir, "peers.conf"),
		Timeout:      cli.Timeout,
		Resolver:     resolver.New(),
		History:      hist,
		Telemetry:    tp,
		Logger:       logger,
	}

	err = kctx.Run(appCtx)
	kctx.FatalIfErrorf(err)
}

// peerNamePredictor offers the configured peer book's names as shell
// completion candidates for any flag registered against it, exercising
// posener/complete directly (kong-completion depends on it transitively
// for the completion handling kongplete.Complete installs, but a
// domain-specific predictor like this one is this CLI's own code, not
// kong-completion's).
func peerNamePredictor(a complete.Args) []string {
	dir, err := appDir("")
	if err != nil {
		return nil
	}
	peers, err := peerbook.Load(filepath.Join(dir, "peers.conf"))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(peers))
	for _, p := range peers {
		names = append(names, p.Name)
	}
	return names
}
