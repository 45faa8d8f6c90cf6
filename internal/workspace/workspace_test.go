package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_CreatesOneDirPerWorkspace(t *testing.T) {
	alloc, err := Allocate("my-flow", "run-1", []string{"shared", "scratch"})
	require.NoError(t, err)
	defer alloc.Release()

	require.Len(t, alloc.Paths, 2)
	for _, name := range []string{"shared", "scratch"} {
		path, ok := alloc.Paths[name]
		require.True(t, ok)
		info, statErr := os.Stat(path)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
		assert.Equal(t, filepath.Join(alloc.Root, name), path)
	}
}

func TestAllocate_NoWorkspaces(t *testing.T) {
	alloc, err := Allocate("my-flow", "run-1", nil)
	require.NoError(t, err)
	defer alloc.Release()

	info, err := os.Stat(alloc.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, alloc.Paths)
}

func TestRelease_RemovesRootAndIsIdempotent(t *testing.T) {
	alloc, err := Allocate("my-flow", "run-1", []string{"shared"})
	require.NoError(t, err)

	require.NoError(t, alloc.Release())
	_, statErr := os.Stat(alloc.Root)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, alloc.Release())
}

func TestEnvVars_UppercasesAndPrefixes(t *testing.T) {
	alloc, err := Allocate("my-flow", "run-1", []string{"shared-ws"})
	require.NoError(t, err)
	defer alloc.Release()

	vars := alloc.EnvVars()
	path, ok := vars["FERRI_WORKSPACE_SHARED_WS"]
	require.True(t, ok)
	assert.Equal(t, alloc.Paths["shared-ws"], path)
}

func TestAllocate_SanitizesNameComponents(t *testing.T) {
	alloc, err := Allocate("my/weird flow!", "run/1", nil)
	require.NoError(t, err)
	defer alloc.Release()

	assert.NotContains(t, filepath.Base(alloc.Root), "/")
	assert.NotContains(t, filepath.Base(alloc.Root), " ")
}
