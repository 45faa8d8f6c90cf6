// Package schema is the in-memory representation of a parsed Flow
// document: pure data, no execution behavior. The Dependency Resolver,
// Expression Resolver, and Orchestrator all consume this model but never
// mutate it after validation.
package schema

// APIVersion is the only accepted value of a Flow document's apiVersion
// field.
const APIVersion = "ferri.flow/v1alpha1"

// KindFlow is the only accepted value of a Flow document's kind field.
const KindFlow = "Flow"

// RunsOnProcess is the only defined value for Job.RunsOn.
const RunsOnProcess = "process"

// Flow is the root entity of a parsed flow document.
type Flow struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
	Spec       Spec     `yaml:"spec" json:"spec"`
}

// Metadata identifies a Flow and carries opaque key/value annotations.
type Metadata struct {
	Name        string            `yaml:"name" json:"name"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// Spec holds the declarative contents of a Flow: its inputs, shared
// workspaces, and the job DAG.
type Spec struct {
	Inputs     map[string]InputDefinition `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Workspaces []WorkspaceDefinition      `yaml:"workspaces,omitempty" json:"workspaces,omitempty"`
	Jobs       map[string]Job             `yaml:"jobs" json:"jobs"`
}

// InputDefinition describes one named workflow input.
type InputDefinition struct {
	Type        string      `yaml:"type" json:"type"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Default     interface{} `yaml:"default,omitempty" json:"default,omitempty"`
}

// Valid input types.
const (
	InputTypeString  = "string"
	InputTypeNumber  = "number"
	InputTypeBoolean = "boolean"
)

// WorkspaceDefinition declares one flow-level named workspace.
type WorkspaceDefinition struct {
	Name string `yaml:"name" json:"name"`
}

// Job is one node of the dependency DAG. JobID (the map key in Spec.Jobs)
// is not stored on the struct itself; callers thread it through
// separately, matching the arena+index ownership pattern: edges are job
// IDs, never pointers.
type Job struct {
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	RunsOn string   `yaml:"runs_on,omitempty" json:"runs_on,omitempty"`
	Needs  []string `yaml:"needs,omitempty" json:"needs,omitempty"`
	Steps  []Step   `yaml:"steps" json:"steps"`
}

// EffectiveRunsOn returns the job's runs_on value, defaulting to
// RunsOnProcess when unset.
func (j Job) EffectiveRunsOn() string {
	if j.RunsOn == "" {
		return RunsOnProcess
	}
	return j.RunsOn
}

// Step is a single shell-command action plus its environment and
// workspace bindings.
type Step struct {
	ID            string               `yaml:"id,omitempty" json:"id,omitempty"`
	Name          string               `yaml:"name,omitempty" json:"name,omitempty"`
	Run           string               `yaml:"run,omitempty" json:"run,omitempty"`
	Uses          string               `yaml:"uses,omitempty" json:"uses,omitempty"`
	Env           map[string]string    `yaml:"env,omitempty" json:"env,omitempty"`
	Workspaces    []StepWorkspaceMount `yaml:"workspaces,omitempty" json:"workspaces,omitempty"`
	RetryStrategy *RetryStrategy       `yaml:"retry_strategy,omitempty" json:"retry_strategy,omitempty"`
}

// StepWorkspaceMount binds a flow-level workspace into a step.
type StepWorkspaceMount struct {
	Name      string `yaml:"name" json:"name"`
	MountPath string `yaml:"mount_path,omitempty" json:"mount_path,omitempty"`
	ReadOnly  bool   `yaml:"read_only,omitempty" json:"read_only,omitempty"`
}

// RetryStrategy is accepted syntactically (schema-valid) but not honored
// by the executor in this version.
type RetryStrategy struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	Backoff     *RetryBackoff `yaml:"backoff,omitempty" json:"backoff,omitempty"`
}

// RetryBackoff configures the (unused) retry backoff duration.
type RetryBackoff struct {
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// JobState is the execution state of a job.
type JobState string

const (
	JobPending   JobState = "Pending"
	JobRunning   JobState = "Running"
	JobSucceeded JobState = "Succeeded"
	JobFailed    JobState = "Failed"
	JobSkipped   JobState = "Skipped"
)

// IsTerminal reports whether the state is one a job cannot leave.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobSkipped:
		return true
	default:
		return false
	}
}

// StepState is the execution state of a step. It adds NotStarted to the
// job state vocabulary.
type StepState string

const (
	StepNotStarted StepState = "NotStarted"
	StepPending    StepState = "Pending"
	StepRunning    StepState = "Running"
	StepSucceeded  StepState = "Succeeded"
	StepFailed     StepState = "Failed"
	StepSkipped    StepState = "Skipped"
)
