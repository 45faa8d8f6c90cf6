// Package expression implements the narrow `${{ ctx... }}` substitution
// grammar used in step `run` strings and `env` values. This is
// deliberately not a general-purpose boolean/arithmetic expression
// language: the grammar is restricted to dotted paths into three fixed
// context roots, and arbitrary expressions are explicitly out of scope.
package expression

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ferri-run/flow/internal/flowerrors"
)

// spanPattern matches a maximal ${{ ... }} span. Non-greedy matching is
// sufficient because the grammar never contains literal "}}" inside an
// expression.
var spanPattern = regexp.MustCompile(`\$\{\{\s*(.*?)\s*\}\}`)

// Context is the live evaluation context consulted while resolving
// expressions for one step.
type Context struct {
	// Inputs holds the flow's resolved input values.
	Inputs map[string]any

	// StepOutputs holds outputs declared by completed steps in the same
	// job, keyed by step ID then output name.
	StepOutputs map[string]map[string]string

	// JobOutputs holds outputs declared by completed jobs, keyed by job
	// ID then output name.
	JobOutputs map[string]map[string]string

	// AllowedJobs is the enclosing job's declared `needs` set. References
	// to ctx.jobs.<id> for any id not in this set are rejected.
	AllowedJobs map[string]struct{}
}

// Resolve replaces every ${{ expr }} span in template with its evaluated
// value's string form. It returns an *flowerrors.ExpressionError on the
// first unresolvable reference.
func Resolve(template string, ctx Context) (string, error) {
	if !strings.Contains(template, "${{") {
		return template, nil
	}

	var firstErr error
	result := spanPattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := spanPattern.FindStringSubmatch(match)
		expr := strings.TrimSpace(sub[1])

		value, err := evaluate(expr, ctx)
		if err != nil {
			firstErr = &flowerrors.ExpressionError{Span: match, Reason: err.Error()}
			return match
		}
		return stringify(value)
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// evaluate walks one dotted-path expression against ctx.
//
// Grammar: ctx . (inputs | steps | jobs) . <name> ( . outputs . <name> )?
func evaluate(expr string, ctx Context) (any, error) {
	parts := strings.Split(expr, ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || parts[0] != "ctx" {
		return nil, fmt.Errorf("expression must start with ctx.inputs, ctx.steps, or ctx.jobs")
	}

	switch parts[1] {
	case "inputs":
		if len(parts) != 3 {
			return nil, fmt.Errorf("ctx.inputs references must be ctx.inputs.<name>")
		}
		name := parts[2]
		val, ok := ctx.Inputs[name]
		if !ok {
			return nil, fmt.Errorf("unknown input: %s", name)
		}
		return val, nil

	case "steps":
		if len(parts) != 5 || parts[3] != "outputs" {
			return nil, fmt.Errorf("ctx.steps references must be ctx.steps.<id>.outputs.<name>")
		}
		stepID, outputName := parts[2], parts[4]
		outputs, ok := ctx.StepOutputs[stepID]
		if !ok {
			return nil, fmt.Errorf("unknown or not-yet-completed step: %s", stepID)
		}
		val, ok := outputs[outputName]
		if !ok {
			return nil, fmt.Errorf("step %s declared no output named %s", stepID, outputName)
		}
		return val, nil

	case "jobs":
		if len(parts) != 5 || parts[3] != "outputs" {
			return nil, fmt.Errorf("ctx.jobs references must be ctx.jobs.<id>.outputs.<name>")
		}
		jobID, outputName := parts[2], parts[4]
		if _, allowed := ctx.AllowedJobs[jobID]; !allowed {
			return nil, fmt.Errorf("job %s is not a declared dependency of this job", jobID)
		}
		outputs, ok := ctx.JobOutputs[jobID]
		if !ok {
			return nil, fmt.Errorf("unknown or not-yet-completed job: %s", jobID)
		}
		val, ok := outputs[outputName]
		if !ok {
			return nil, fmt.Errorf("job %s declared no output named %s", jobID, outputName)
		}
		return val, nil

	default:
		return nil, fmt.Errorf("unknown context root: ctx.%s", parts[1])
	}
}

// stringify renders a resolved value as it will appear in the final
// command/env string.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ResolveEnv resolves every value of an env map, returning a new map.
// Keys are passed through unresolved; expressions are only substituted
// in values.
func ResolveEnv(env map[string]string, ctx Context) (map[string]string, error) {
	resolved := make(map[string]string, len(env))
	for k, v := range env {
		rv, err := Resolve(v, ctx)
		if err != nil {
			return nil, err
		}
		resolved[k] = rv
	}
	return resolved, nil
}
