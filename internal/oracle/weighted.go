package oracle

import (
	"context"
	"fmt"

	"stratus/internal/logging"
)

// MitigationThreshold is the cumulative weighted score a mitigation oracle
// must reach to pass.
const MitigationThreshold = 0.70

// Check is one weighted sub-check of a mitigation oracle. Fn inspects live
// cluster state and reports whether the check holds; an error means the
// check could not run (missing resource, kubectl failure) and earns zero
// credit without aborting the remaining checks.
type Check struct {
	Name   string
	Weight float64
	Fn     func(ctx context.Context) (bool, error)
}

// WeightedOracle accumulates credit across an ordered list of sub-checks
// and passes at MitigationThreshold. This is the common shape of mitigation
// grading: did the agent actually repair the cluster, judged piecewise.
type WeightedOracle struct {
	Name      string
	Checks    []Check
	Threshold float64 // zero means MitigationThreshold
}

// NewWeightedOracle builds a mitigation oracle from ordered checks.
func NewWeightedOracle(name string, checks ...Check) *WeightedOracle {
	return &WeightedOracle{Name: name, Checks: checks}
}

func (o *WeightedOracle) Evaluate(ctx context.Context, _ any) Result {
	fmt.Println("== Mitigation Evaluation ==")
	log := logging.New("oracle")

	threshold := o.Threshold
	if threshold == 0 {
		threshold = MitigationThreshold
	}

	res := Result{Scored: true, Breakdown: make(map[string]float64, len(o.Checks))}
	total := 0.0
	for _, c := range o.Checks {
		ok, err := c.Fn(ctx)
		switch {
		case err != nil:
			log.Warn("mitigation check errored", "oracle", o.Name, "check", c.Name, "error", err)
			fmt.Printf("  ⚠️ %s: %v (0/%.0f%%)\n", c.Name, err, c.Weight*100)
			res.Issues = append(res.Issues, fmt.Sprintf("%s: %v", c.Name, err))
			res.Breakdown[c.Name] = 0
		case ok:
			fmt.Printf("  ✅ %s (%.0f%%)\n", c.Name, c.Weight*100)
			res.Breakdown[c.Name] = c.Weight
			total += c.Weight
		default:
			fmt.Printf("  ❌ %s (0/%.0f%%)\n", c.Name, c.Weight*100)
			res.Issues = append(res.Issues, c.Name+": not satisfied")
			res.Breakdown[c.Name] = 0
		}
	}

	res.Score = total
	// Float epsilon: weights like 0.4+0.3 must still clear an exact 0.70.
	res.Success = total >= threshold-1e-9

	fmt.Printf("Mitigation Result: %s (score %.2f)\n", passFail(res.Success), total)
	return res
}

func passFail(ok bool) string {
	if ok {
		return "Pass ✅"
	}
	return "Fail ❌"
}
