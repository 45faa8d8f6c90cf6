// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package run implements the `flowrun run` command: the thin CLI surface
// that wires Parse -> Validate -> Resolve -> orchestrator.Execute
// together and renders the finished run's summary.
package run

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ferri-run/flow/internal/cliui"
	"github.com/ferri-run/flow/internal/obslog"
	"github.com/ferri-run/flow/internal/orchestrator"
	"github.com/ferri-run/flow/internal/secrets"
	"github.com/ferri-run/flow/internal/tracing"
	"github.com/ferri-run/flow/pkg/flow/resolver"
	"github.com/ferri-run/flow/pkg/flow/schema"
)

// version is overridden at build time via -ldflags; it only labels trace
// resources and has no effect on run behavior.
var version = "dev"

// NewCommand creates the `run` subcommand.
func NewCommand() *cobra.Command {
	var (
		inputArgs   []string
		projectRoot string
		secretNames []string
	)

	cmd := &cobra.Command{
		Use:   "run <flow.yaml>",
		Short: "Execute a flow document to completion",
		Long: `Run parses and validates a Flow document, resolves its job DAG into
execution waves, and drives the waves to completion, one worker per job.

Progress is written continuously to the run's log at
<project-root>/.ferri/runs/<run-id>.log; a summary is printed to stdout
once the run finishes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, args[0], inputArgs, projectRoot, secretNames)
		},
	}

	cmd.Flags().StringArrayVar(&inputArgs, "input", nil, "flow input as name=value (repeatable)")
	cmd.Flags().StringVar(&projectRoot, "project-root", ".", "project root under which .ferri/runs/ is created")
	cmd.Flags().StringArrayVar(&secretNames, "secret", nil, "name of an environment variable to expose to steps as a secret (repeatable)")

	return cmd
}

func runFlow(cmd *cobra.Command, flowPath string, inputArgs []string, projectRoot string, secretNames []string) error {
	logger := obslog.New(obslog.FromEnv())

	raw, err := os.ReadFile(flowPath)
	if err != nil {
		return fmt.Errorf("reading flow file: %w", err)
	}

	flow, err := schema.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing flow: %w", err)
	}
	if err := schema.Validate(flow); err != nil {
		return err
	}

	waves, err := resolver.Resolve(flow)
	if err != nil {
		return err
	}

	supplied, err := parseInputFlags(inputArgs)
	if err != nil {
		return err
	}
	inputs, err := resolveInputs(flow, supplied)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logPath := filepath.Join(projectRoot, ".ferri", "runs", runID+".log")

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Setup(version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		if shutdownErr := tp.Shutdown(cmd.Context()); shutdownErr != nil {
			logger.Warn("failed shutting down tracer", "error", shutdownErr)
		}
	}()

	run := &orchestrator.Run{
		Flow:       flow,
		Waves:      waves,
		RunID:      runID,
		RunLogPath: logPath,
		RawYAML:    string(raw),
		Inputs:     inputs,
		Secrets:    secrets.NewEnvProvider(secretNames),
		Logger:     obslog.WithRun(logger, runID),
	}

	overall, err := orchestrator.Execute(ctx, run)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s (log: %s)\n", runID, logPath)
	if renderErr := cliui.RenderSummary(cmd.OutOrStdout(), logPath); renderErr != nil {
		logger.Warn("failed rendering run summary", "error", renderErr)
	}

	if overall != orchestrator.Succeeded {
		return fmt.Errorf("run %s finished with state %s", runID, overall)
	}
	return nil
}
