package oracle

import (
	"context"
	"fmt"
	"strings"
)

// ReasonInvalidFormat marks a submission whose shape (not content) was
// wrong. The conductor special-cases this during the NO-OP stage: the agent
// stays on the current stage instead of the run advancing.
const ReasonInvalidFormat = "Invalid Format"

// DetectionOracle grades a yes/no fault-detection answer against an
// expected value ("Yes" once a fault is live, "No" for the healthy-system
// probe that catches agents hallucinating faults).
type DetectionOracle struct {
	Expected string
}

// NewDetectionOracle returns a detection oracle expecting the given answer.
func NewDetectionOracle(expected string) *DetectionOracle {
	return &DetectionOracle{Expected: expected}
}

func (o *DetectionOracle) Evaluate(_ context.Context, submission any) Result {
	fmt.Println("== Detection Evaluation ==")

	sol, ok := submission.(string)
	if !ok {
		fmt.Println("❌ Invalid detection format")
		return Result{Success: false, Reason: ReasonInvalidFormat}
	}

	if isExactMatch(sol, o.Expected) {
		fmt.Printf("✅ Correct detection: %s\n", sol)
		return Result{Success: true}
	}
	fmt.Printf("❌ Incorrect detection: %s\n", sol)
	return Result{Success: false, Reason: "Incorrect"}
}

// isExactMatch compares answers ignoring case, surrounding whitespace, and
// trailing sentence punctuation.
func isExactMatch(got, want string) bool {
	norm := func(s string) string {
		s = strings.TrimSpace(strings.ToLower(s))
		return strings.TrimRight(s, ".!")
	}
	return norm(got) == norm(want)
}
