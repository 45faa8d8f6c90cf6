package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferri-run/flow/internal/flowerrors"
)

func TestResolve_NoExpressions(t *testing.T) {
	out, err := Resolve("echo hello", Context{})
	require.NoError(t, err)
	assert.Equal(t, "echo hello", out)
}

func TestResolve_Inputs(t *testing.T) {
	ctx := Context{Inputs: map[string]any{"greeting": "hi", "count": 3, "enabled": true}}

	out, err := Resolve("echo ${{ ctx.inputs.greeting }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo hi", out)

	out, err = Resolve("n=${{ctx.inputs.count}}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "n=3", out)

	out, err = Resolve("flag=${{ ctx.inputs.enabled }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "flag=true", out)
}

func TestResolve_UnknownInput(t *testing.T) {
	_, err := Resolve("${{ ctx.inputs.missing }}", Context{Inputs: map[string]any{}})
	require.Error(t, err)
	var exprErr *flowerrors.ExpressionError
	require.ErrorAs(t, err, &exprErr)
}

func TestResolve_StepOutputs(t *testing.T) {
	ctx := Context{
		StepOutputs: map[string]map[string]string{
			"p": {"greeting": "hello"},
		},
	}
	out, err := Resolve("echo ${{ ctx.steps.p.outputs.greeting }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo hello", out)
}

func TestResolve_StepOutputs_UnknownStepOrOutput(t *testing.T) {
	ctx := Context{StepOutputs: map[string]map[string]string{"p": {"a": "1"}}}

	_, err := Resolve("${{ ctx.steps.missing.outputs.a }}", ctx)
	require.Error(t, err)

	_, err = Resolve("${{ ctx.steps.p.outputs.missing }}", ctx)
	require.Error(t, err)
}

func TestResolve_JobOutputs_RequiresDeclaredDependency(t *testing.T) {
	ctx := Context{
		JobOutputs:  map[string]map[string]string{"produce": {"greeting": "hello"}},
		AllowedJobs: map[string]struct{}{"produce": {}},
	}
	out, err := Resolve("echo ${{ ctx.jobs.produce.outputs.greeting }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "echo hello", out)

	_, err = Resolve("${{ ctx.jobs.other.outputs.greeting }}", Context{
		JobOutputs:  map[string]map[string]string{"other": {"greeting": "hi"}},
		AllowedJobs: map[string]struct{}{"produce": {}},
	})
	require.Error(t, err)
}

func TestResolve_MultipleSpansAndUnknownRoot(t *testing.T) {
	ctx := Context{Inputs: map[string]any{"a": "1", "b": "2"}}
	out, err := Resolve("${{ ctx.inputs.a }}-${{ ctx.inputs.b }}", ctx)
	require.NoError(t, err)
	assert.Equal(t, "1-2", out)

	_, err = Resolve("${{ ctx.bogus.x }}", ctx)
	require.Error(t, err)

	_, err = Resolve("${{ ctx }}", ctx)
	require.Error(t, err)
}

func TestResolveEnv(t *testing.T) {
	ctx := Context{Inputs: map[string]any{"name": "world"}}
	env := map[string]string{"GREETING": "hello ${{ ctx.inputs.name }}", "STATIC": "value"}

	resolved, err := ResolveEnv(env, ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello world", resolved["GREETING"])
	assert.Equal(t, "value", resolved["STATIC"])
}

func TestResolveEnv_PropagatesError(t *testing.T) {
	ctx := Context{Inputs: map[string]any{}}
	_, err := ResolveEnv(map[string]string{"X": "${{ ctx.inputs.missing }}"}, ctx)
	require.Error(t, err)
}
