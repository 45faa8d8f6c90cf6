package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidate(t *testing.T, flowYAML string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(flowYAML), 0o644))

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_ValidFlowPrintsWaves(t *testing.T) {
	out, err := runValidate(t, `
apiVersion: ferri.flow/v1alpha1
kind: Flow
metadata: { name: hello }
spec:
  jobs:
    a:
      steps: [{run: "echo A"}]
    b:
      needs: [a]
      steps: [{run: "echo B"}]
`)
	require.NoError(t, err)
	assert.Contains(t, out, `flow "hello" is valid`)
	assert.Contains(t, out, "2 job(s) in 2 wave(s)")
	assert.Contains(t, out, "wave 1: [a]")
	assert.Contains(t, out, "wave 2: [b]")
}

func TestValidate_InvalidFlowReturnsError(t *testing.T) {
	_, err := runValidate(t, `
apiVersion: ferri.flow/v1alpha1
kind: Flow
metadata: { name: bad }
spec:
  jobs:
    a:
      steps: []
`)
	require.Error(t, err)
}

func TestValidate_CycleReturnsError(t *testing.T) {
	_, err := runValidate(t, `
apiVersion: ferri.flow/v1alpha1
kind: Flow
metadata: { name: cyclic }
spec:
  jobs:
    a:
      needs: [b]
      steps: [{run: "echo A"}]
    b:
      needs: [a]
      steps: [{run: "echo B"}]
`)
	require.Error(t, err)
}
