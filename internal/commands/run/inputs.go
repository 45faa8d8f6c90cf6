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

package run

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ferri-run/flow/internal/flowerrors"
	"github.com/ferri-run/flow/pkg/flow/schema"
)

// parseInputFlags parses --input key=value arguments into a raw string map.
func parseInputFlags(args []string) (map[string]string, error) {
	inputs := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --input %q (expected name=value)", arg)
		}
		inputs[name] = value
	}
	return inputs, nil
}

// resolveInputs coerces each supplied value to its input's declared
// type and, for declared inputs with no supplied value, uses the
// declared default as decoded from the flow document (defaults are not
// coerced). Supplied names the flow does not declare are ignored. Inputs
// with neither a supplied value nor a default are omitted; the
// Expression Resolver reports an unresolved reference if a step needs
// them.
func resolveInputs(flow *schema.Flow, supplied map[string]string) (map[string]any, error) {
	resolved := make(map[string]any, len(flow.Spec.Inputs))
	for name, def := range flow.Spec.Inputs {
		raw, given := supplied[name]
		if !given {
			if def.Default != nil {
				resolved[name] = def.Default
			}
			continue
		}
		value, err := coerce(name, def.Type, raw)
		if err != nil {
			return nil, err
		}
		resolved[name] = value
	}
	return resolved, nil
}

func coerce(name, inputType, raw string) (any, error) {
	switch inputType {
	case schema.InputTypeString:
		return raw, nil
	case schema.InputTypeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &flowerrors.ValidationError{
				Kind:      flowerrors.KindBadInputDefault,
				StepIndex: -1,
				Message:   fmt.Sprintf("input %s: %q is not a valid number", name, raw),
			}
		}
		return v, nil
	case schema.InputTypeBoolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &flowerrors.ValidationError{
				Kind:      flowerrors.KindBadInputDefault,
				StepIndex: -1,
				Message:   fmt.Sprintf("input %s: %q is not a valid boolean", name, raw),
			}
		}
		return v, nil
	default:
		return raw, nil
	}
}
