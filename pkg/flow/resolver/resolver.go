// Package resolver computes the execution wave partition of a validated
// Flow: an ordered list of job-ID sets such that every job appears in
// exactly one wave and every job's needs are satisfied by earlier waves.
package resolver

import (
	"sort"

	"github.com/ferri-run/flow/internal/flowerrors"
	"github.com/ferri-run/flow/pkg/flow/schema"
)

// Wave is a maximal set of jobs whose dependencies are all satisfied by
// earlier waves, represented as a lexicographically sorted job-ID slice
// (sorting affects log determinism only; execution within a wave is
// concurrent).
type Wave []string

// Resolve computes the wave partition using Kahn-style topological
// layering: the in-degree counts are recomputed each round, and the next
// wave is the set of all jobs whose in-degree has dropped to zero.
//
// Resolve assumes flow has already passed schema.Validate, which rejects
// cycles and dangling needs references at parse time. It re-derives a
// ResolutionError defensively if the leftover in-degree is nonzero after
// the layering loop terminates, which should be unreachable for a
// validated flow.
func Resolve(flow *schema.Flow) ([]Wave, error) {
	jobIDs := schema.SortedJobIDs(flow)

	inDegree := make(map[string]int, len(jobIDs))
	dependents := make(map[string][]string, len(jobIDs))

	for _, id := range jobIDs {
		job := flow.Spec.Jobs[id]
		for _, need := range job.Needs {
			if _, ok := flow.Spec.Jobs[need]; !ok {
				return nil, &flowerrors.ResolutionError{
					Kind:    flowerrors.KindUnknownNeed,
					JobIDs:  []string{id, need},
					Message: "job needs an undeclared job",
				}
			}
			inDegree[id]++
			dependents[need] = append(dependents[need], id)
		}
	}

	remaining := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		remaining[id] = struct{}{}
	}

	var waves []Wave
	for len(remaining) > 0 {
		var ready []string
		for _, id := range jobIDs {
			if _, ok := remaining[id]; !ok {
				continue
			}
			if inDegree[id] == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			leftover := make([]string, 0, len(remaining))
			for id := range remaining {
				leftover = append(leftover, id)
			}
			sort.Strings(leftover)
			return nil, &flowerrors.ResolutionError{
				Kind:    flowerrors.KindCycle,
				JobIDs:  leftover,
				Message: "dependency cycle prevents further wave layering",
			}
		}

		sort.Strings(ready)
		waves = append(waves, Wave(ready))

		for _, id := range ready {
			delete(remaining, id)
			for _, dependent := range dependents[id] {
				inDegree[dependent]--
			}
		}
	}

	return waves, nil
}
