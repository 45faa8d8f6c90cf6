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

// Package cliui renders a run's terminal summary from its run log,
// giving a headless flowrun invocation the same status legibility an
// interactive monitor would.
package cliui

import "github.com/charmbracelet/lipgloss"

var (
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bold        = lipgloss.NewStyle().Bold(true)
)

const (
	symbolOK    = "✓"
	symbolWarn  = "⚠"
	symbolError = "✗"
)

func renderJobLine(jobID, state string) string {
	switch state {
	case "Succeeded":
		return statusOK.Render(symbolOK) + " " + bold.Render(jobID) + " " + muted.Render(state)
	case "Skipped":
		return statusWarn.Render(symbolWarn) + " " + bold.Render(jobID) + " " + muted.Render(state)
	default:
		return statusError.Render(symbolError) + " " + bold.Render(jobID) + " " + muted.Render(state)
	}
}

func renderRunFinished(state string) string {
	if state == "Succeeded" {
		return statusOK.Render(symbolOK + " run " + state)
	}
	return statusError.Render(symbolError + " run " + state)
}
