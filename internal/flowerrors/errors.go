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

// Package flowerrors defines the error taxonomy used across the flow
// orchestrator: validation/resolution errors returned synchronously before
// a run starts, and runtime errors recovered to the smallest enclosing
// scope (step, job, wave) during a run.
package flowerrors

import "fmt"

// ValidationKind identifies the specific structural or semantic rule a
// Flow document violated.
type ValidationKind string

const (
	KindBothRunAndUses    ValidationKind = "BothRunAndUses"
	KindNeitherRunNorUses ValidationKind = "NeitherRunNorUses"
	KindUnknownNeed       ValidationKind = "UnknownNeed"
	KindSelfDependency    ValidationKind = "SelfDependency"
	KindUnknownWorkspace  ValidationKind = "UnknownWorkspace"
	KindCycle             ValidationKind = "Cycle"
	KindBadAPIVersion     ValidationKind = "BadAPIVersion"
	KindBadKind           ValidationKind = "BadKind"
	KindEmptyName         ValidationKind = "EmptyName"
	KindNoJobs            ValidationKind = "NoJobs"
	KindEmptySteps        ValidationKind = "EmptySteps"
	KindUnknownRunsOn     ValidationKind = "UnknownRunsOn"
	KindBadInputType      ValidationKind = "BadInputType"
	KindBadInputDefault   ValidationKind = "BadInputDefault"
	KindDuplicateStepID   ValidationKind = "DuplicateStepID"
)

// ValidationError is raised by the Parser & Validator. It is fatal for the
// run: no log file is created when this error is returned.
type ValidationError struct {
	Kind      ValidationKind
	JobID     string
	StepIndex int // -1 when not applicable
	Message   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.JobID != "" && e.StepIndex >= 0:
		return fmt.Sprintf("validation error [%s]: job %q step %d: %s", e.Kind, e.JobID, e.StepIndex, e.Message)
	case e.JobID != "":
		return fmt.Sprintf("validation error [%s]: job %q: %s", e.Kind, e.JobID, e.Message)
	default:
		return fmt.Sprintf("validation error [%s]: %s", e.Kind, e.Message)
	}
}

// ResolutionError is raised by the Dependency Resolver for cycles or
// dangling `needs` references. Fatal for the run.
type ResolutionError struct {
	Kind    ValidationKind // KindCycle or KindUnknownNeed
	JobIDs  []string       // members of the cycle, or the offending job
	Message string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error [%s]: %s (jobs: %v)", e.Kind, e.Message, e.JobIDs)
}

// ExpressionError is raised when an `${{ ... }}` reference cannot be
// resolved. It marks the enclosing step Failed but does not abort the run.
type ExpressionError struct {
	Span   string
	Reason string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression error: %q: %s", e.Span, e.Reason)
}

// SpawnError indicates the child process for a step could not be started.
type SpawnError struct {
	Description string
	Cause       error
}

func (e *SpawnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("spawn error: %s: %v", e.Description, e.Cause)
	}
	return fmt.Sprintf("spawn error: %s", e.Description)
}

func (e *SpawnError) Unwrap() error { return e.Cause }

// ExitFailure indicates the child process for a step exited non-zero.
type ExitFailure struct {
	ExitCode int
}

func (e *ExitFailure) Error() string {
	return fmt.Sprintf("step exited with code %d", e.ExitCode)
}

// CancellationError indicates a step or job was terminated due to
// external cancellation of the run.
type CancellationError struct{}

func (e *CancellationError) Error() string { return "cancelled" }

// IoError indicates a run-log write failure or workspace allocation
// failure. The orchestrator returns it, ending the run, when opening the
// run log, writing its FlowFile or RunFinished record, allocating
// workspaces, or resolving secrets fails. A failed write of a JobStatus,
// StepStatus, or StepOutput record during the run does not produce an
// IoError: it is logged (or, for StepOutput, dropped) and the run
// continues.
type IoError struct {
	Operation string
	Cause     error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Operation, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// Wrap creates a new error that wraps err with additional context. Returns
// nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf creates a new error that wraps err with formatted context. Returns
// nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
