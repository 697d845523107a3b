package main

import (
	"fmt"
	"runtime/debug"
)

// VersionCmd prints dcmtkctl's own build provenance plus the resolved DCMTK
// installation it would drive, generalizing cmd/sand/version_cmd.go (which
// prints apple-container/version's git metadata) to a build with no
// build-time-injected version package of its own: debug.ReadBuildInfo's
// vcs.* settings are the only source here.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *Context) error {
	fmt.Println("dcmtkctl")

	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				fmt.Printf("Git Commit: %s\n", setting.Value)
			case "vcs.time":
				fmt.Printf("Commit Time: %s\n", setting.Value)
			case "vcs.modified":
				fmt.Printf("Modified: %s\n", setting.Value)
			}
		}
	} else {
		fmt.Println("Build info not available")
	}

	root, ok := ctx.Resolver.Resolve().Value()
	if !ok {
		fmt.Println("DCMTK: not found")
		return nil
	}
	fmt.Printf("DCMTK root: %s\n", root.Dir)
	return nil
}
