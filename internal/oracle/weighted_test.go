package oracle

import (
	"context"
	"errors"
	"testing"
)

func pass(context.Context) (bool, error) { return true, nil }
func fail(context.Context) (bool, error) { return false, nil }

func TestWeightedThresholdBoundary(t *testing.T) {
	ctx := context.Background()

	// 0.40 + 0.30 = 0.70: exactly at threshold, passes.
	o := NewWeightedOracle("boundary",
		Check{Name: "a", Weight: 0.4, Fn: pass},
		Check{Name: "b", Weight: 0.3, Fn: pass},
		Check{Name: "c", Weight: 0.3, Fn: fail},
	)
	r := o.Evaluate(ctx, nil)
	if !r.Success {
		t.Fatalf("score 0.70 must pass, got %+v", r)
	}

	// 0.40 + 0.29 = 0.69: just under, fails.
	o = NewWeightedOracle("boundary",
		Check{Name: "a", Weight: 0.4, Fn: pass},
		Check{Name: "b", Weight: 0.29, Fn: pass},
		Check{Name: "c", Weight: 0.31, Fn: fail},
	)
	r = o.Evaluate(ctx, nil)
	if r.Success {
		t.Fatalf("score 0.69 must fail, got %+v", r)
	}
}

func TestWeightedCheckErrorIsFailSoft(t *testing.T) {
	broken := func(context.Context) (bool, error) { return false, errors.New("kubectl exploded") }

	o := NewWeightedOracle("fail-soft",
		Check{Name: "broken", Weight: 0.3, Fn: broken},
		Check{Name: "a", Weight: 0.4, Fn: pass},
		Check{Name: "b", Weight: 0.3, Fn: pass},
	)
	r := o.Evaluate(context.Background(), nil)

	// The errored check earns nothing but later checks still run.
	if !r.Success {
		t.Fatalf("0.70 from surviving checks must pass, got %+v", r)
	}
	if r.Breakdown["broken"] != 0 {
		t.Errorf("errored check credit = %v, want 0", r.Breakdown["broken"])
	}
	if len(r.Issues) != 1 {
		t.Errorf("issues = %v, want the kubectl error recorded", r.Issues)
	}
}

func TestWeightedRecordsBreakdown(t *testing.T) {
	o := NewWeightedOracle("breakdown",
		Check{Name: "a", Weight: 0.6, Fn: pass},
		Check{Name: "b", Weight: 0.4, Fn: fail},
	)
	r := o.Evaluate(context.Background(), nil)
	if r.Breakdown["a"] != 0.6 || r.Breakdown["b"] != 0 {
		t.Errorf("breakdown = %v", r.Breakdown)
	}
	if !r.Scored || r.Score != 0.6 {
		t.Errorf("score = %v scored=%v", r.Score, r.Scored)
	}
}
