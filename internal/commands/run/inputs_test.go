package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferri-run/flow/pkg/flow/schema"
)

func TestParseInputFlags(t *testing.T) {
	inputs, err := parseInputFlags([]string{"name=world", "count=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "world", "count": "3"}, inputs)
}

func TestParseInputFlags_RejectsMissingEquals(t *testing.T) {
	_, err := parseInputFlags([]string{"no-equals-sign"})
	require.Error(t, err)
}

func TestResolveInputs_UsesSuppliedOverDefault(t *testing.T) {
	flow := &schema.Flow{Spec: schema.Spec{Inputs: map[string]schema.InputDefinition{
		"name": {Type: schema.InputTypeString, Default: "default-name"},
	}}}

	resolved, err := resolveInputs(flow, map[string]string{"name": "supplied"})
	require.NoError(t, err)
	assert.Equal(t, "supplied", resolved["name"])
}

func TestResolveInputs_FallsBackToDefault(t *testing.T) {
	flow := &schema.Flow{Spec: schema.Spec{Inputs: map[string]schema.InputDefinition{
		"count": {Type: schema.InputTypeNumber, Default: 7.0},
	}}}

	resolved, err := resolveInputs(flow, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, resolved["count"])
}

func TestResolveInputs_OmitsUnsuppliedWithNoDefault(t *testing.T) {
	flow := &schema.Flow{Spec: schema.Spec{Inputs: map[string]schema.InputDefinition{
		"optional": {Type: schema.InputTypeString},
	}}}

	resolved, err := resolveInputs(flow, map[string]string{})
	require.NoError(t, err)
	_, present := resolved["optional"]
	assert.False(t, present)
}

func TestResolveInputs_CoercesTypes(t *testing.T) {
	flow := &schema.Flow{Spec: schema.Spec{Inputs: map[string]schema.InputDefinition{
		"count":   {Type: schema.InputTypeNumber},
		"enabled": {Type: schema.InputTypeBoolean},
	}}}

	resolved, err := resolveInputs(flow, map[string]string{"count": "42", "enabled": "true"})
	require.NoError(t, err)
	assert.Equal(t, 42.0, resolved["count"])
	assert.Equal(t, true, resolved["enabled"])
}

func TestResolveInputs_RejectsBadCoercion(t *testing.T) {
	flow := &schema.Flow{Spec: schema.Spec{Inputs: map[string]schema.InputDefinition{
		"count": {Type: schema.InputTypeNumber},
	}}}

	_, err := resolveInputs(flow, map[string]string{"count": "not-a-number"})
	require.Error(t, err)
}
