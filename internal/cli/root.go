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

// Package cli assembles the flowrun root Cobra command.
package cli

import "github.com/spf13/cobra"

// NewRootCommand creates the root command for flowrun.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flowrun",
		Short: "flowrun - local-first workflow automation engine",
		Long: `flowrun executes declarative YAML job DAGs on the local workstation.

A Flow document describes named jobs, each an ordered sequence of shell
steps; jobs declare dependencies on other jobs via needs:. flowrun
validates the document, runs jobs in waves of maximum parallelism, and
writes a durable per-run log that a separate monitor can tail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return cmd
}
