package oracle

import (
	"context"
	"fmt"
)

// WorkloadHealthChecker is satisfied by applications that can report the
// state of their traffic generator.
type WorkloadHealthChecker interface {
	WorkloadHealthy() bool
	Namespace() string
}

// WorkloadOracle passes when the application's load generator is still
// serving traffic. Compounded with a mitigation oracle it catches repairs
// that fix the broken object but leave the app unusable.
type WorkloadOracle struct {
	App WorkloadHealthChecker
}

// NewWorkloadOracle wraps the application's workload health signal.
func NewWorkloadOracle(app WorkloadHealthChecker) *WorkloadOracle {
	return &WorkloadOracle{App: app}
}

func (o *WorkloadOracle) Evaluate(_ context.Context, _ any) Result {
	fmt.Println("== Workload Evaluation ==")
	if o.App.WorkloadHealthy() {
		fmt.Printf("✅ Workload healthy in %s\n", o.App.Namespace())
		return Result{Success: true}
	}
	fmt.Printf("❌ Workload unhealthy in %s\n", o.App.Namespace())
	return Result{Success: false, Reason: "workload unhealthy"}
}
