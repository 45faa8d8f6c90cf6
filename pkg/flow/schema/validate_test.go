package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferri-run/flow/internal/flowerrors"
)

func validFlow() *Flow {
	return &Flow{
		APIVersion: APIVersion,
		Kind:       KindFlow,
		Metadata:   Metadata{Name: "demo"},
		Spec: Spec{
			Jobs: map[string]Job{
				"build": {Steps: []Step{{Run: "echo build"}}},
				"test":  {Needs: []string{"build"}, Steps: []Step{{Run: "echo test"}}},
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, Validate(validFlow()))
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Flow)
		wantKind flowerrors.ValidationKind
	}{
		{
			name:     "wrong apiVersion",
			mutate:   func(f *Flow) { f.APIVersion = "v2" },
			wantKind: flowerrors.KindBadAPIVersion,
		},
		{
			name:     "wrong kind",
			mutate:   func(f *Flow) { f.Kind = "Pipeline" },
			wantKind: flowerrors.KindBadKind,
		},
		{
			name:     "empty name",
			mutate:   func(f *Flow) { f.Metadata.Name = "" },
			wantKind: flowerrors.KindEmptyName,
		},
		{
			name:     "no jobs",
			mutate:   func(f *Flow) { f.Spec.Jobs = nil },
			wantKind: flowerrors.KindNoJobs,
		},
		{
			name: "job with no steps",
			mutate: func(f *Flow) {
				f.Spec.Jobs["build"] = Job{Steps: nil}
			},
			wantKind: flowerrors.KindEmptySteps,
		},
		{
			name: "unsupported runs_on",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.RunsOn = "kubernetes"
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindUnknownRunsOn,
		},
		{
			name: "self dependency",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Needs = []string{"build"}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindSelfDependency,
		},
		{
			name: "unknown need",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Needs = []string{"nonexistent"}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindUnknownNeed,
		},
		{
			name: "step with both run and uses",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Steps = []Step{{Run: "echo hi", Uses: "some/action"}}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindBothRunAndUses,
		},
		{
			name: "step with neither run nor uses",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Steps = []Step{{}}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindNeitherRunNorUses,
		},
		{
			name: "duplicate step id",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Steps = []Step{{ID: "a", Run: "echo 1"}, {ID: "a", Run: "echo 2"}}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindDuplicateStepID,
		},
		{
			name: "step references undeclared workspace",
			mutate: func(f *Flow) {
				j := f.Spec.Jobs["build"]
				j.Steps = []Step{{Run: "echo hi", Workspaces: []StepWorkspaceMount{{Name: "missing"}}}}
				f.Spec.Jobs["build"] = j
			},
			wantKind: flowerrors.KindUnknownWorkspace,
		},
		{
			name: "dependency cycle",
			mutate: func(f *Flow) {
				b := f.Spec.Jobs["build"]
				b.Needs = []string{"test"}
				f.Spec.Jobs["build"] = b
			},
			wantKind: flowerrors.KindCycle,
		},
		{
			name: "bad input type",
			mutate: func(f *Flow) {
				f.Spec.Inputs = map[string]InputDefinition{"x": {Type: "array"}}
			},
			wantKind: flowerrors.KindBadInputType,
		},
		{
			name: "bad input default",
			mutate: func(f *Flow) {
				f.Spec.Inputs = map[string]InputDefinition{"x": {Type: InputTypeNumber, Default: "not-a-number"}}
			},
			wantKind: flowerrors.KindBadInputDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := validFlow()
			tt.mutate(flow)

			err := Validate(flow)
			require.Error(t, err)

			var valErr *flowerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.wantKind, valErr.Kind)
		})
	}
}

func TestValidate_WorkspaceMountAllowedWhenDeclared(t *testing.T) {
	flow := validFlow()
	flow.Spec.Workspaces = []WorkspaceDefinition{{Name: "shared"}}
	j := flow.Spec.Jobs["build"]
	j.Steps = []Step{{Run: "echo hi", Workspaces: []StepWorkspaceMount{{Name: "shared"}}}}
	flow.Spec.Jobs["build"] = j

	assert.NoError(t, Validate(flow))
}

func TestSortedJobIDs(t *testing.T) {
	flow := validFlow()
	assert.Equal(t, []string{"build", "test"}, SortedJobIDs(flow))
}
