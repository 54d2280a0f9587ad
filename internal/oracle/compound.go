package oracle

import (
	"context"
	"fmt"
)

// CompoundedOracle aggregates sub-oracles into one verdict. Compounding is
// conjunctive: every sub-oracle must pass for the stage to pass. Scores are
// preserved per sub-oracle in the breakdown rather than averaged away.
type CompoundedOracle struct {
	Subs []namedOracle
}

type namedOracle struct {
	name   string
	oracle Oracle
}

// NewCompoundedOracle combines sub-oracles under the given names. Names key
// the result breakdown; order is evaluation order.
func NewCompoundedOracle() *CompoundedOracle {
	return &CompoundedOracle{}
}

// Add appends a named sub-oracle and returns the compound for chaining.
func (o *CompoundedOracle) Add(name string, sub Oracle) *CompoundedOracle {
	o.Subs = append(o.Subs, namedOracle{name: name, oracle: sub})
	return o
}

func (o *CompoundedOracle) Evaluate(ctx context.Context, submission any) Result {
	res := Result{Success: true, Breakdown: make(map[string]float64, len(o.Subs))}
	for _, sub := range o.Subs {
		sr := sub.oracle.Evaluate(ctx, submission)
		if !sr.Success {
			res.Success = false
		}
		if sr.Scored {
			res.Breakdown[sub.name] = sr.Score
		} else if sr.Success {
			res.Breakdown[sub.name] = 1
		} else {
			res.Breakdown[sub.name] = 0
		}
		for _, issue := range sr.Issues {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: %s", sub.name, issue))
		}
		if sr.Reason != "" && !sr.Success {
			res.Issues = append(res.Issues, fmt.Sprintf("%s: %s", sub.name, sr.Reason))
		}
	}
	return res
}
