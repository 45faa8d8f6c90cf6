package schema

import (
	"sort"

	"github.com/ferri-run/flow/internal/flowerrors"
)

// Validate enforces the structural and semantic rules a Flow document
// must satisfy. It reports the first failure encountered, scanning jobs in
// lexicographic order for determinism. Coordinates (job ID, zero-based
// step index) are attached wherever applicable.
func Validate(flow *Flow) error {
	if flow.APIVersion != APIVersion {
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindBadAPIVersion,
			StepIndex: -1,
			Message:   "apiVersion must equal " + APIVersion,
		}
	}
	if flow.Kind != KindFlow {
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindBadKind,
			StepIndex: -1,
			Message:   "kind must equal " + KindFlow,
		}
	}
	if flow.Metadata.Name == "" {
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindEmptyName,
			StepIndex: -1,
			Message:   "metadata.name is required and must be non-empty",
		}
	}
	if len(flow.Spec.Jobs) == 0 {
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindNoJobs,
			StepIndex: -1,
			Message:   "Flow must define at least one job",
		}
	}

	jobIDs := SortedJobIDs(flow)
	jobSet := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		jobSet[id] = struct{}{}
	}

	for _, jobID := range jobIDs {
		job := flow.Spec.Jobs[jobID]

		if len(job.Steps) == 0 {
			return &flowerrors.ValidationError{
				Kind:      flowerrors.KindEmptySteps,
				JobID:     jobID,
				StepIndex: -1,
				Message:   "job must declare at least one step",
			}
		}

		if job.RunsOn != "" && job.RunsOn != RunsOnProcess {
			return &flowerrors.ValidationError{
				Kind:      flowerrors.KindUnknownRunsOn,
				JobID:     jobID,
				StepIndex: -1,
				Message:   "unsupported runs_on value: " + job.RunsOn,
			}
		}

		for _, need := range job.Needs {
			if need == jobID {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindSelfDependency,
					JobID:     jobID,
					StepIndex: -1,
					Message:   "job cannot declare a need on itself",
				}
			}
			if _, ok := jobSet[need]; !ok {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindUnknownNeed,
					JobID:     jobID,
					StepIndex: -1,
					Message:   "needs unknown job: " + need,
				}
			}
		}

		seenStepIDs := make(map[string]struct{})
		for i, step := range job.Steps {
			hasRun := step.Run != ""
			hasUses := step.Uses != ""
			if hasRun && hasUses {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindBothRunAndUses,
					JobID:     jobID,
					StepIndex: i,
					Message:   "step must declare exactly one of run or uses, not both",
				}
			}
			if !hasRun && !hasUses {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindNeitherRunNorUses,
					JobID:     jobID,
					StepIndex: i,
					Message:   "step must declare one of run or uses",
				}
			}

			if step.ID != "" {
				if _, dup := seenStepIDs[step.ID]; dup {
					return &flowerrors.ValidationError{
						Kind:      flowerrors.KindDuplicateStepID,
						JobID:     jobID,
						StepIndex: i,
						Message:   "duplicate step id: " + step.ID,
					}
				}
				seenStepIDs[step.ID] = struct{}{}
			}

			for _, mount := range step.Workspaces {
				if !workspaceDeclared(flow, mount.Name) {
					return &flowerrors.ValidationError{
						Kind:      flowerrors.KindUnknownWorkspace,
						JobID:     jobID,
						StepIndex: i,
						Message:   "references undeclared workspace: " + mount.Name,
					}
				}
			}
		}
	}

	if cycle := detectCycle(flow, jobIDs); cycle != nil {
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindCycle,
			JobID:     cycle[0],
			StepIndex: -1,
			Message:   "dependency cycle detected involving: " + joinIDs(cycle),
		}
	}

	inputNames := make([]string, 0, len(flow.Spec.Inputs))
	for name := range flow.Spec.Inputs {
		inputNames = append(inputNames, name)
	}
	sort.Strings(inputNames)
	for _, name := range inputNames {
		input := flow.Spec.Inputs[name]
		if err := validateInputType(name, input); err != nil {
			return err
		}
	}

	return nil
}

// SortedJobIDs returns the flow's job IDs in lexicographic order.
func SortedJobIDs(flow *Flow) []string {
	ids := make([]string, 0, len(flow.Spec.Jobs))
	for id := range flow.Spec.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func workspaceDeclared(flow *Flow, name string) bool {
	for _, ws := range flow.Spec.Workspaces {
		if ws.Name == name {
			return true
		}
	}
	return false
}

func validateInputType(name string, input InputDefinition) error {
	switch input.Type {
	case InputTypeString:
		if input.Default != nil {
			if _, ok := input.Default.(string); !ok {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindBadInputDefault,
					StepIndex: -1,
					Message:   "input " + name + ": default must be a string",
				}
			}
		}
	case InputTypeNumber:
		if input.Default != nil {
			switch input.Default.(type) {
			case int, int64, float64, float32:
			default:
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindBadInputDefault,
					StepIndex: -1,
					Message:   "input " + name + ": default must be a number",
				}
			}
		}
	case InputTypeBoolean:
		if input.Default != nil {
			if _, ok := input.Default.(bool); !ok {
				return &flowerrors.ValidationError{
					Kind:      flowerrors.KindBadInputDefault,
					StepIndex: -1,
					Message:   "input " + name + ": default must be a boolean",
				}
			}
		}
	default:
		return &flowerrors.ValidationError{
			Kind:      flowerrors.KindBadInputType,
			StepIndex: -1,
			Message:   "input " + name + ": unsupported type " + input.Type,
		}
	}
	return nil
}

// detectCycle runs a standard DFS-with-recursion-stack cycle check over
// the needs graph. It returns the members of one discovered cycle, or nil
// if the graph is acyclic. This is the primary cycle check; the
// Dependency Resolver repeats the detection during wave layering as a
// defense-in-depth re-check.
func detectCycle(flow *Flow, jobIDs []string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(jobIDs))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range flow.Spec.Jobs[id].Needs {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				// Found the cycle: slice from dep's position in stack.
				for i, s := range stack {
					if s == dep {
						cycle = append([]string{}, stack[i:]...)
						return true
					}
				}
				cycle = []string{dep}
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range jobIDs {
		if color[id] == white {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}
