package batch

import (
	"fmt"
	"strings"

	"toolflow/pkg/tool"
)

// Aggregate merges per-target results into the single result the agent sees.
// Success payloads are concatenated in input order; failures become a
// trailing Errors block listing path and reason. The display summary claims
// success only when at least one target succeeded. verb is the past-tense
// operation name ("Wrote", "Read").
func Aggregate(results []ItemResult, verb string) tool.Result {
	var successes []string
	var failures []string

	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.Path, r.Err))
			continue
		}
		successes = append(successes, r.ModelContent)
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(successes, "\n"))
	if len(failures) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Errors:\n")
		sb.WriteString(strings.Join(failures, "\n"))
	}

	result := tool.Result{ModelContent: sb.String()}

	switch {
	case len(successes) > 0 && len(failures) > 0:
		result.DisplaySummary = fmt.Sprintf("%s %d file(s), %d failed", verb, len(successes), len(failures))
	case len(successes) > 0:
		result.DisplaySummary = fmt.Sprintf("%s %d file(s)", verb, len(successes))
	default:
		result.DisplaySummary = fmt.Sprintf("Failed all %d file operation(s)", len(failures))
		result.Err = fmt.Errorf("all %d targets failed", len(failures))
	}

	return result
}
