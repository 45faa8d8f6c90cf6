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

// Package validate implements `flowrun validate`: schema-check and
// wave-resolve a flow document without executing it.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferri-run/flow/pkg/flow/resolver"
	"github.com/ferri-run/flow/pkg/flow/schema"
)

// NewCommand creates the `validate` subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <flow.yaml>",
		Short: "Parse, validate, and resolve a flow document without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading flow file: %w", err)
			}
			flow, err := schema.Parse(raw)
			if err != nil {
				return fmt.Errorf("parsing flow: %w", err)
			}
			if err := schema.Validate(flow); err != nil {
				return err
			}
			waves, err := resolver.Resolve(flow)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flow %q is valid: %d job(s) in %d wave(s)\n",
				flow.Metadata.Name, len(flow.Spec.Jobs), len(waves))
			for i, wave := range waves {
				fmt.Fprintf(cmd.OutOrStdout(), "  wave %d: %v\n", i+1, []string(wave))
			}
			return nil
		},
	}
}
