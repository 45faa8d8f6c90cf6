// Package orchestrator is the top-level coordinator: it accepts a
// validated Flow and a wave partition, drives wave-by-wave execution,
// spawns one concurrent worker per job in the current wave, threads
// update events into the Run Log Writer, decides when to skip downstream
// jobs due to upstream failure, and tears down the run's workspaces. It
// is the sole owner of the run's mutable state; step workers communicate
// outcomes back through return values, never by touching orchestrator
// state directly.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ferri-run/flow/internal/executor"
	"github.com/ferri-run/flow/internal/flowerrors"
	"github.com/ferri-run/flow/internal/metrics"
	"github.com/ferri-run/flow/internal/runlog"
	"github.com/ferri-run/flow/internal/secrets"
	"github.com/ferri-run/flow/internal/tracing"
	"github.com/ferri-run/flow/internal/workspace"
	"github.com/ferri-run/flow/pkg/flow/expression"
	"github.com/ferri-run/flow/pkg/flow/resolver"
	"github.com/ferri-run/flow/pkg/flow/schema"
)

// OverallState is the terminal outcome of a run.
type OverallState string

const (
	Succeeded OverallState = "Succeeded"
	Failed    OverallState = "Failed"
)

// Run holds everything one invocation of Execute needs: the validated
// flow, its precomputed waves, and the external collaborators this
// package treats as opaque.
type Run struct {
	Flow       *schema.Flow
	Waves      []resolver.Wave
	RunID      string
	RunLogPath string
	RawYAML    string
	Inputs     map[string]any
	Secrets    secrets.Provider
	Logger     *slog.Logger
}

// jobOutcome is a worker's report of one job's terminal execution,
// carried back to the orchestrator's single goroutine over a channel so
// that the Context and Run Log remain single-writer.
type jobOutcome struct {
	jobID   string
	state   schema.JobState
	reason  string
	outputs map[string]string
}

// Execute drives a run from its validated Flow and wave partition to
// termination. ctx's cancellation is the run's cancellation token:
// cancelling it stops dispatch of further waves, signals every in-flight
// step executor, and marks non-terminal jobs Failed{reason: Cancelled}.
func Execute(ctx context.Context, run *Run) (OverallState, error) {
	logger := run.Logger
	if logger == nil {
		logger = slog.Default()
	}

	writer, err := runlog.Open(run.RunLogPath)
	if err != nil {
		return Failed, &flowerrors.IoError{Operation: "opening run log", Cause: err}
	}
	defer writer.Close()

	if err := writer.WriteFlowFile(run.RawYAML); err != nil {
		return Failed, &flowerrors.IoError{Operation: "writing FlowFile record", Cause: err}
	}

	alloc, err := workspace.Allocate(run.Flow.Metadata.Name, run.RunID, workspaceNames(run.Flow))
	if err != nil {
		return Failed, &flowerrors.IoError{Operation: "allocating workspaces", Cause: err}
	}
	defer alloc.Release()

	secretsProvider := run.Secrets
	if secretsProvider == nil {
		secretsProvider = secrets.NoopProvider{}
	}
	resolvedSecrets, err := secretsProvider.Resolve(ctx)
	if err != nil {
		return Failed, &flowerrors.IoError{Operation: "resolving secrets", Cause: err}
	}

	start := time.Now()
	c := newCoordinator(run, writer, alloc, resolvedSecrets, logger)

	ctx, runSpan := tracing.StartRun(ctx, run.Flow.Metadata.Name, run.RunID)

	overall := Succeeded
runLoop:
	for _, wave := range run.Waves {
		select {
		case <-ctx.Done():
			c.cancelRemaining()
			overall = Failed
			break runLoop
		default:
		}

		if !c.runWave(ctx, wave) {
			overall = Failed
		}
	}

	if c.anyNonSucceeded() {
		overall = Failed
	}

	metrics.ObserveRunDuration(time.Since(start).Seconds())
	tracing.EndWithState(runSpan, string(overall), nil)
	if err := writer.WriteRunFinished(string(overall)); err != nil {
		return overall, &flowerrors.IoError{Operation: "writing RunFinished record", Cause: err}
	}
	return overall, nil
}

// coordinator holds the single-owner mutable state of a run: the
// accumulated Context, per-job terminal states, and the collaborators
// every wave needs. Only Execute's goroutine touches it; job workers
// return their outcome through a channel instead.
type coordinator struct {
	run     *Run
	writer  *runlog.Writer
	alloc   *workspace.Allocation
	secrets map[string]string
	logger  *slog.Logger

	jobStates  map[string]schema.JobState
	jobOutputs map[string]map[string]string
}

func newCoordinator(run *Run, writer *runlog.Writer, alloc *workspace.Allocation, resolvedSecrets map[string]string, logger *slog.Logger) *coordinator {
	return &coordinator{
		run:        run,
		writer:     writer,
		alloc:      alloc,
		secrets:    resolvedSecrets,
		logger:     logger,
		jobStates:  make(map[string]schema.JobState, len(run.Flow.Spec.Jobs)),
		jobOutputs: make(map[string]map[string]string, len(run.Flow.Spec.Jobs)),
	}
}

// runWave partitions the wave into to_run/to_skip, emits Skipped
// JobStatus records for to_skip, then runs to_run in parallel and blocks
// until every job in the wave reaches a terminal state (the hard
// cross-wave barrier). It returns false if any job in the wave did not
// succeed.
func (c *coordinator) runWave(ctx context.Context, wave resolver.Wave) bool {
	waveOK := true

	var toRun []string
	for _, jobID := range wave {
		if c.needsClosureFailed(jobID) {
			c.setJobState(jobID, schema.JobSkipped)
			c.emitJobStatus(jobID, schema.JobSkipped, "")
			metrics.RecordJob(string(schema.JobSkipped))
			waveOK = false
			continue
		}
		toRun = append(toRun, jobID)
	}

	if len(toRun) == 0 {
		return waveOK
	}

	outcomes := make(chan jobOutcome, len(toRun))
	var wg sync.WaitGroup
	for _, jobID := range toRun {
		wg.Add(1)
		go func(jobID string) {
			defer wg.Done()
			outcomes <- c.runJob(ctx, jobID)
		}(jobID)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Job outputs are merged into c.jobOutputs only once every worker of
	// the wave has returned, since running workers read that map while
	// resolving expressions.
	waveOutputs := make(map[string]map[string]string, len(toRun))
	for outcome := range outcomes {
		c.setJobState(outcome.jobID, outcome.state)
		if outcome.outputs != nil {
			waveOutputs[outcome.jobID] = outcome.outputs
		}
		c.emitJobStatus(outcome.jobID, outcome.state, outcome.reason)
		metrics.RecordJob(string(outcome.state))
		if outcome.state != schema.JobSucceeded {
			waveOK = false
		}
	}
	for jobID, outputs := range waveOutputs {
		c.jobOutputs[jobID] = outputs
	}

	return waveOK
}

// runJob executes one job's steps sequentially, resolving expressions and
// injecting the environment for each, and returns its terminal outcome.
// It does not touch coordinator state directly (single-writer discipline);
// the caller applies the returned jobOutcome.
func (c *coordinator) runJob(ctx context.Context, jobID string) jobOutcome {
	job := c.run.Flow.Spec.Jobs[jobID]
	c.emitJobStatus(jobID, schema.JobRunning, "")

	ctx, jobSpan := tracing.StartJob(ctx, jobID)

	stepOutputs := make(map[string]map[string]string)
	jobOutputsAcc := make(map[string]string)
	allowedJobs := allowedJobSet(job.Needs)

	failed := false
	failReason := ""

	for i, step := range job.Steps {
		if failed {
			c.emitStepStatus(jobID, i, step.Name, schema.StepSkipped, "", nil)
			metrics.RecordStep(string(schema.StepSkipped))
			continue
		}

		select {
		case <-ctx.Done():
			failed = true
			failReason = "Cancelled"
			c.emitStepStatus(jobID, i, step.Name, schema.StepFailed, "Cancelled", nil)
			metrics.RecordStep(string(schema.StepFailed))
			continue
		default:
		}

		state, reason, exitCode, outputs := c.runStep(ctx, jobID, i, step, stepOutputs, allowedJobs)
		if state != schema.StepSucceeded {
			failed = true
			failReason = reason
			c.emitStepStatus(jobID, i, step.Name, state, reason, exitCode)
			metrics.RecordStep(string(state))
			continue
		}

		c.emitStepStatus(jobID, i, step.Name, state, "", exitCode)
		metrics.RecordStep(string(state))

		if step.ID != "" {
			stepOutputs[step.ID] = outputs
			for k, v := range outputs {
				jobOutputsAcc[k] = v
			}
		}
	}

	if failed {
		tracing.EndWithState(jobSpan, string(schema.JobFailed), nil)
		return jobOutcome{jobID: jobID, state: schema.JobFailed, reason: failReason}
	}
	tracing.EndWithState(jobSpan, string(schema.JobSucceeded), nil)
	return jobOutcome{jobID: jobID, state: schema.JobSucceeded, outputs: jobOutputsAcc}
}

// runStep resolves expressions against the live context, assembles the
// child environment, and executes the step. `uses:` steps fail
// immediately with reason UsesNotImplemented: the schema accepts them,
// but rejecting only at runtime means run:-only jobs in a mixed flow
// still execute.
func (c *coordinator) runStep(ctx context.Context, jobID string, stepIndex int, step schema.Step, stepOutputs map[string]map[string]string, allowedJobs map[string]struct{}) (state schema.StepState, reason string, exitCode *int, outputs map[string]string) {
	if step.Uses != "" {
		return schema.StepFailed, "UsesNotImplemented", nil, nil
	}

	c.emitStepStatus(jobID, stepIndex, step.Name, schema.StepRunning, "", nil)

	ctx, stepSpan := tracing.StartStep(ctx, jobID, stepIndex, step.Name)
	defer func() { tracing.EndWithState(stepSpan, string(state), nil) }()

	exprCtx := expression.Context{
		Inputs:      c.run.Inputs,
		StepOutputs: stepOutputs,
		JobOutputs:  c.jobOutputs,
		AllowedJobs: allowedJobs,
	}

	run, err := expression.Resolve(step.Run, exprCtx)
	if err != nil {
		return schema.StepFailed, err.Error(), nil, nil
	}
	env, err := expression.ResolveEnv(step.Env, exprCtx)
	if err != nil {
		return schema.StepFailed, err.Error(), nil, nil
	}

	fullEnv := executor.BuildEnv(executor.EnvSpec{
		Secrets:       c.secrets,
		WorkspaceVars: c.alloc.EnvVars(),
		StepEnv:       env,
	})

	onOutput := func(stream, chunk string) {
		_ = c.writer.WriteStepOutput(jobID, stepIndex, step.Name, stream, chunk)
	}

	result, execErr := executor.Execute(ctx, run, fullEnv, onOutput)
	if execErr != nil {
		return schema.StepFailed, "SpawnError", nil, nil
	}
	if !result.Succeeded {
		var exitCode *int
		if result.FailureReason == "ExitFailure" {
			ec := result.ExitCode
			exitCode = &ec
		}
		return schema.StepFailed, result.FailureReason, exitCode, nil
	}
	return schema.StepSucceeded, "", nil, result.Outputs
}

// needsClosureFailed reports whether any of jobID's direct dependencies
// is Failed or Skipped. By construction (wave ordering), every dependency
// has already reached a terminal state by the time jobID's wave runs, so
// checking direct needs suffices to propagate through transitive chains:
// a transitively-failed ancestor already caused its direct successor to
// be marked Skipped in an earlier wave.
func (c *coordinator) needsClosureFailed(jobID string) bool {
	for _, need := range c.run.Flow.Spec.Jobs[jobID].Needs {
		switch c.jobStates[need] {
		case schema.JobFailed, schema.JobSkipped:
			return true
		}
	}
	return false
}

func (c *coordinator) setJobState(jobID string, state schema.JobState) {
	c.jobStates[jobID] = state
}

func (c *coordinator) anyNonSucceeded() bool {
	for _, state := range c.jobStates {
		if state != schema.JobSucceeded {
			return true
		}
	}
	return false
}

// cancelRemaining marks every job that has not yet reached a terminal
// state Failed with reason Cancelled, covering the current wave and every
// wave that will now never be dispatched.
func (c *coordinator) cancelRemaining() {
	for _, jobID := range schema.SortedJobIDs(c.run.Flow) {
		if _, done := c.jobStates[jobID]; done {
			continue
		}
		c.setJobState(jobID, schema.JobFailed)
		c.emitJobStatus(jobID, schema.JobFailed, "Cancelled")
		metrics.RecordJob(string(schema.JobFailed))
	}
}

func (c *coordinator) emitJobStatus(jobID string, state schema.JobState, reason string) {
	if err := c.writer.WriteJobStatus(jobID, string(state), reason); err != nil {
		c.logger.Error("failed writing JobStatus record", "job_id", jobID, "error", err)
	}
}

func (c *coordinator) emitStepStatus(jobID string, stepIndex int, stepName string, state schema.StepState, reason string, exitCode *int) {
	if err := c.writer.WriteStepStatus(jobID, stepIndex, stepName, string(state), reason, exitCode); err != nil {
		c.logger.Error("failed writing StepStatus record", "job_id", jobID, "step_index", stepIndex, "error", err)
	}
}

func allowedJobSet(needs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(needs))
	for _, n := range needs {
		set[n] = struct{}{}
	}
	return set
}

func workspaceNames(flow *schema.Flow) []string {
	names := make([]string, 0, len(flow.Spec.Workspaces))
	for _, ws := range flow.Spec.Workspaces {
		names = append(names, ws.Name)
	}
	return names
}
