package cliui

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferri-run/flow/internal/runlog"
)

func TestRenderSummary_OrdersByFirstJobStatusAndEndsWithRunState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	w, err := runlog.Open(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteJobStatus("b", "Running", ""))
	require.NoError(t, w.WriteJobStatus("a", "Running", ""))
	require.NoError(t, w.WriteJobStatus("b", "Succeeded", ""))
	require.NoError(t, w.WriteJobStatus("a", "Failed", "ExitFailure"))
	require.NoError(t, w.WriteRunFinished("Failed"))
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, path))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	bLineIdx, aLineIdx := -1, -1
	for i, line := range lines {
		fields := strings.Fields(stripANSI(line))
		for _, f := range fields {
			if f == "b" {
				bLineIdx = i
			}
			if f == "a" {
				aLineIdx = i
			}
		}
	}
	require.NotEqual(t, -1, bLineIdx)
	require.NotEqual(t, -1, aLineIdx)
	assert.Less(t, bLineIdx, aLineIdx, "expected job b's line before job a's line (b reached Running first)")
	assert.Contains(t, out, "Succeeded")
	assert.Contains(t, out, "Failed")
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
