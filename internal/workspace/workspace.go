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

// Package workspace allocates and releases the per-run temporary
// directory tree exposed to steps via FERRI_WORKSPACE_* variables.
//
// Workspaces are plain directories; the engine does not enforce
// read-only mounts or any OS-level mount isolation. Read-only is
// advisory only.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Allocation is the result of Allocate: the run's workspace root and the
// absolute path of each declared workspace, keyed by name.
type Allocation struct {
	Root  string
	Paths map[string]string

	released bool
}

// Allocate creates a fresh <os.TempDir()>/ferri-run-<flowName>-<runID>-<random>/
// directory (flowName and runID with characters outside [A-Za-z0-9_-]
// replaced by '-') and, under it, one subdirectory per declared workspace
// name.
func Allocate(flowName, runID string, workspaceNames []string) (*Allocation, error) {
	root, err := os.MkdirTemp("", fmt.Sprintf("ferri-run-%s-%s-", sanitize(flowName), sanitize(runID)))
	if err != nil {
		return nil, fmt.Errorf("allocating workspace root: %w", err)
	}

	paths := make(map[string]string, len(workspaceNames))
	for _, name := range workspaceNames {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("allocating workspace %q: %w", name, err)
		}
		paths[name] = dir
	}

	return &Allocation{Root: root, Paths: paths}, nil
}

// Release recursively deletes the workspace root. It is best-effort: the
// caller's guarantee is "call Release on every exit path", not "Release
// never fails". Release is idempotent.
func (a *Allocation) Release() error {
	if a == nil || a.released {
		return nil
	}
	a.released = true
	return os.RemoveAll(a.Root)
}

// EnvVars returns the FERRI_WORKSPACE_<UPPERCASE(name)> environment
// assignments for every allocated workspace, with '-' in the name
// mapped to '_' (shared-ws -> FERRI_WORKSPACE_SHARED_WS). All flow-level workspaces
// are visible to every step regardless of whether that step declares an
// explicit workspaces: mount; a step-level mount binds the same path,
// so there is no separate allocation per mount.
func (a *Allocation) EnvVars() map[string]string {
	vars := make(map[string]string, len(a.Paths))
	for name, path := range a.Paths {
		vars["FERRI_WORKSPACE_"+upper(name)] = path
	}
	return vars
}

func upper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		} else if c == '-' {
			c = '_'
		}
		out[i] = c
	}
	return string(out)
}

func sanitize(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "flow"
	}
	return string(out)
}
