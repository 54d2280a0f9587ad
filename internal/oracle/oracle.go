// Package oracle implements the pluggable evaluators that grade agent
// submissions. An oracle maps a submission (or live cluster state) to a
// pass/fail verdict with an optional partial-credit score. Expected failure
// modes — malformed submissions, missing resources, kubectl errors — never
// escape Evaluate: they fold into the result as issues and lost credit.
package oracle

import (
	"context"
	"strings"
)

// Oracle evaluates one staged submission. Mitigation-style oracles inspect
// live cluster state and ignore the submission argument.
type Oracle interface {
	Evaluate(ctx context.Context, submission any) Result
}

// Result is the outcome of one oracle evaluation.
type Result struct {
	Success bool
	Reason  string

	// Score is the normalized accuracy in [0,1] for oracles that grade
	// partial credit. Scored reports whether it is meaningful.
	Score  float64
	Scored bool

	// Issues carries human-readable problems found during evaluation.
	Issues []string

	// Breakdown maps sub-check or sub-oracle names to earned credit.
	Breakdown map[string]float64
}

// Fields flattens the result for CSV reporting.
func (r Result) Fields() map[string]any {
	f := map[string]any{"success": r.Success}
	if r.Scored {
		f["accuracy"] = r.Score
	}
	if r.Reason != "" {
		f["reason"] = r.Reason
	}
	if len(r.Issues) > 0 {
		f["issues"] = strings.Join(r.Issues, "; ")
	}
	for name, v := range r.Breakdown {
		f["breakdown."+name] = v
	}
	return f
}
