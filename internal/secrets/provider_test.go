package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider_ResolvesOnlyAllowlistedNames(t *testing.T) {
	p := NewEnvProvider([]string{"FOUND", "MISSING"})
	p.lookup = func(name string) (string, bool) {
		if name == "FOUND" {
			return "secret-value", true
		}
		return "", false
	}

	resolved, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FOUND": "secret-value"}, resolved)
}

func TestEnvProvider_EmptyAllowlist(t *testing.T) {
	p := NewEnvProvider(nil)
	resolved, err := p.Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestNoopProvider_ResolvesToEmpty(t *testing.T) {
	resolved, err := (NoopProvider{}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
