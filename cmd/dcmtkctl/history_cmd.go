package main

import (
	"fmt"
	"time"
)

// HistoryCmd lists recent entries from the run ledger.
type HistoryCmd struct {
	Limit int `default:"20" help:"maximum number of runs to show"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	runs, err := ctx.History.RecentRuns(c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}
	for _, r := range runs {
		duration := r.FinishedAt.Sub(r.StartedAt)
		fmt.Printf("%-20s %-10s %-10s %-8s exit=%d %-8s %s\n",
			r.StartedAt.Format("2006-01-02T15:04:05"), r.RunName, r.Tool, duration.Round(time.Millisecond), r.ExitCode, r.Status, r.Argv)
	}
	return nil
}
