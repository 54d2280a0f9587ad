package oracle

import (
	"context"
	"fmt"

	"stratus/internal/logging"
	"stratus/internal/topology"
)

// LocalizationOracle grades a ranked culprit-service prediction with the
// NTAM score. The topology snapshot is re-read on every evaluation: the
// snapshot can be refreshed between runs and a stale in-memory graph would
// silently skew partial credit.
type LocalizationOracle struct {
	Namespace string
	Expected  []string
	Loader    *topology.Loader
	Params    NTAMParams
}

// NewLocalizationOracle builds a localization oracle for the namespace with
// default scoring parameters.
func NewLocalizationOracle(namespace string, expected []string, loader *topology.Loader) *LocalizationOracle {
	return &LocalizationOracle{
		Namespace: namespace,
		Expected:  expected,
		Loader:    loader,
		Params:    DefaultNTAMParams(),
	}
}

func (o *LocalizationOracle) Evaluate(_ context.Context, submission any) Result {
	fmt.Println("== Localization Evaluation ==")

	predicted, ok := normalizePrediction(submission)
	if !ok {
		fmt.Println("❌ Invalid format: expected string or list of strings")
		return Result{Success: false, Scored: true, Score: 0, Reason: ReasonInvalidFormat}
	}

	graph, err := o.Loader.Load(o.Namespace)
	if err != nil {
		logging.New("oracle").Error("topology load failed", "namespace", o.Namespace, "error", err)
		return Result{
			Success: false, Scored: true, Score: 0,
			Issues: []string{fmt.Sprintf("topology load: %v", err)},
		}
	}

	score := NTAMScore(graph, predicted, o.Expected, o.Params)

	switch {
	case score == 1.0:
		fmt.Printf("✅ %v: Exact match\n", predicted)
	case score > 0:
		fmt.Printf("⚠️ %v: Partial match | NTAM Score: %.2f\n", predicted, score)
	default:
		fmt.Printf("❌ %v: No match\n", predicted)
	}

	// Exact match only: partial credit is informative, not a pass.
	return Result{Success: score == 1.0, Scored: true, Score: score}
}

// normalizePrediction coerces a submission into a ranked service list.
// Accepts a bare string, []string, or []any of strings (the shape a JSON
// array decodes to). Anything else is rejected before the graph is touched.
func normalizePrediction(submission any) ([]string, bool) {
	switch v := submission.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
