package cliui

import (
	"fmt"
	"io"

	"github.com/ferri-run/flow/internal/runlog"
)

// RenderSummary reads a finished run's log and writes a one-line-per-job
// status summary plus the terminal run state, in the order jobs first
// reached Running (falling back to log order for jobs that never ran).
func RenderSummary(w io.Writer, logPath string) error {
	records, err := runlog.ReadAll(logPath)
	if err != nil {
		return fmt.Errorf("reading run log: %w", err)
	}

	var order []string
	latest := make(map[string]string)
	var runState string

	for _, rec := range records {
		switch rec.Type {
		case runlog.TypeJobStatus:
			if _, seen := latest[rec.JobID]; !seen {
				order = append(order, rec.JobID)
			}
			latest[rec.JobID] = rec.State
		case runlog.TypeRunFinished:
			runState = rec.State
		}
	}

	for _, jobID := range order {
		fmt.Fprintln(w, renderJobLine(jobID, latest[jobID]))
	}
	if runState != "" {
		fmt.Fprintln(w, renderRunFinished(runState))
	}
	return nil
}
