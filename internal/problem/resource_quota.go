package problem

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stratus/internal/inject"
	"stratus/internal/logging"
	"stratus/internal/oracle"
)

const quotaName = "stratus-pod-quota"

// ResourceQuotaExhaustion caps the namespace pod count at its current
// usage and then scales the frontend up, stranding the new pods in
// Pending. Mitigation-only: the broken object is the quota, not a
// service, so ranked service localization does not apply.
type ResourceQuotaExhaustion struct {
	Base
	deps     Deps
	injector *inject.Injector
}

// NewResourceQuotaExhaustion builds the scenario against hotel-reservation.
func NewResourceQuotaExhaustion(deps Deps) (Problem, error) {
	a, ok := deps.Apps.New("hotel-reservation", deps.Kube)
	if !ok {
		return nil, fmt.Errorf("app hotel-reservation not registered")
	}
	p := &ResourceQuotaExhaustion{
		Base: Base{
			ProblemID:     "resource_quota_exhaustion",
			Application:   a,
			Ns:            a.Namespace(),
			Description:   "A resource quota caps the namespace at its current pod count; scale-ups strand pods in Pending.",
			FaultyService: "frontend",
		},
		deps:     deps,
		injector: inject.New(deps.Kube, a.Namespace()),
	}
	p.Mitigation = p.mitigationOracle()
	return p, nil
}

func (p *ResourceQuotaExhaustion) InjectFault() error {
	fmt.Println("== Fault Injection ==")

	out, err := p.deps.Kube.ExecCommand(fmt.Sprintf(
		"kubectl get pods -n %s --no-headers 2>/dev/null | wc -l", p.Ns))
	if err != nil {
		return fmt.Errorf("count pods in %s: %w", p.Ns, err)
	}
	current, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil || current <= 0 {
		current = 1
	}

	if err := p.injector.ApplyPodQuota(quotaName, current); err != nil {
		return err
	}
	// With the quota at current usage, any scale-up is over budget.
	if err := p.injector.ScaleDeployment(p.FaultyService, 3); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Quota: %s (pods=%d) | Namespace: %s\n\n", quotaName, current, p.Ns)
	return nil
}

func (p *ResourceQuotaExhaustion) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	if err := p.injector.RemovePodQuota(quotaName); err != nil {
		return err
	}
	if err := p.injector.ScaleDeployment(p.FaultyService, 1); err != nil {
		logging.New("problem").Warn("restore frontend scale failed", "error", err)
	}
	fmt.Printf("Quota: %s | Namespace: %s\n\n", quotaName, p.Ns)
	return nil
}

func (p *ResourceQuotaExhaustion) mitigationOracle() oracle.Oracle {
	kc := p.deps.Kube
	ns := p.Ns

	return oracle.NewWeightedOracle("resource-quota-exhaustion",
		oracle.Check{Name: "quota-removed-or-raised", Weight: 0.5, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get resourcequota %s -n %s -o jsonpath='{.status.hard.pods} {.status.used.pods}' --ignore-not-found", quotaName, ns))
			if err != nil {
				return false, err
			}
			fields := strings.Fields(strings.Trim(out, "'"))
			if len(fields) == 0 {
				return true, nil // quota gone
			}
			hard, hErr := strconv.Atoi(fields[0])
			used := 0
			if len(fields) > 1 {
				used, _ = strconv.Atoi(fields[1])
			}
			return hErr == nil && hard > used, nil
		}},
		oracle.Check{Name: "no-pending-pods", Weight: 0.3, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get pods -n %s --field-selector=status.phase=Pending -o jsonpath='{.items[*].metadata.name}'", ns))
			if err != nil {
				return false, err
			}
			return strings.Trim(out, "'") == "", nil
		}},
		oracle.Check{Name: "frontend-ready", Weight: 0.2, Fn: func(ctx context.Context) (bool, error) {
			return kc.DeploymentReady("frontend", ns), nil
		}},
	)
}
