package main

import (
	"log/slog"
	"time"

	"github.com/dcmtkgo/dcmtkgo/internal/history"
	"github.com/dcmtkgo/dcmtkgo/internal/peerbook"
	"github.com/dcmtkgo/dcmtkgo/internal/telemetry"
	"github.com/dcmtkgo/dcmtkgo/resolver"
	"github.com/dcmtkgo/dcmtkgo/tool"
)

// Context is threaded through every command's Run method, generalizing
// cmd/sand/main.go's *Context (AppBaseDir/LogFile/LogLevel/sber) from one
// sandboxing service handle to this CLI's resolver/history/telemetry
// handles.
type Context struct {
	AppDir       string
	PeerBookPath string
	Timeout      time.Duration

	Resolver  *resolver.Resolver
	History   *history.Store
	Telemetry *telemetry.Provider
	Logger    *slog.Logger
}

func (c *Context) execOpts() tool.Options {
	return tool.Options{Timeout: c.Timeout}
}

func (c *Context) loadPeers() ([]peerbook.Peer, error) {
	return peerbook.Load(c.PeerBookPath)
}
