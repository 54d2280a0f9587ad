package problem

import (
	"context"
	"fmt"

	"stratus/internal/app"
	"stratus/internal/inject"
	"stratus/internal/logging"
	"stratus/internal/oracle"
)

// ScalePodZero scales a randomly-chosen service's deployment to zero
// replicas. The target is decided at run time, so oracles attach in
// DecideTargetedService once the ground truth exists.
type ScalePodZero struct {
	Base
	deps     Deps
	injector *inject.Injector
	helmApp  *app.HelmApp
}

// NewScalePodZero builds the scenario against the social-network app.
func NewScalePodZero(deps Deps) (Problem, error) {
	a, ok := deps.Apps.New("social-network", deps.Kube)
	if !ok {
		return nil, fmt.Errorf("app social-network not registered")
	}
	p := &ScalePodZero{
		Base: Base{
			ProblemID:   "scale_pod_zero_social_net",
			Application: a,
			Ns:          a.Namespace(),
			Description: "One service's deployment has been scaled to zero replicas.",
		},
		deps:     deps,
		injector: inject.New(deps.Kube, a.Namespace()),
		helmApp:  a,
	}
	return p, nil
}

// DecideTargetedService picks the victim and attaches the oracles that
// depend on knowing it.
func (p *ScalePodZero) DecideTargetedService() error {
	r := Randomizer{Kube: p.deps.Kube}
	svc, err := r.SelectService(p.Ns)
	if err != nil {
		return fmt.Errorf("decide targeted service: %w", err)
	}
	p.FaultyService = svc

	p.Localization = oracle.NewLocalizationOracle(p.Ns, []string{svc}, p.deps.Topology)
	p.Mitigation = oracle.NewCompoundedOracle().
		Add("scale-restored", p.scaleMitigationOracle()).
		Add("workload", oracle.NewWorkloadOracle(p.helmApp))
	return nil
}

func (p *ScalePodZero) InjectFault() error {
	fmt.Println("== Fault Injection ==")
	if err := p.injector.ScalePodsToZero([]string{p.FaultyService}); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *ScalePodZero) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	if p.FaultyService == "" {
		logging.New("problem").Info("no target was selected, nothing to recover", "problem", p.ProblemID)
		return nil
	}
	if err := p.injector.RestoreScaledPods([]string{p.FaultyService}); err != nil {
		return err
	}
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

// scaleMitigationOracle checks the repair piecewise: replicas back up,
// rollout complete, endpoints serving.
func (p *ScalePodZero) scaleMitigationOracle() oracle.Oracle {
	kc := p.deps.Kube
	svc := func() string { return p.FaultyService }
	ns := p.Ns

	return oracle.NewWeightedOracle("scale-pod-zero",
		oracle.Check{Name: "replicas-restored", Weight: 0.4, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get deployment %s -n %s -o jsonpath='{.spec.replicas}'", svc(), ns))
			if err != nil {
				return false, err
			}
			return out != "" && out != "0" && out != "'0'", nil
		}},
		oracle.Check{Name: "pods-ready", Weight: 0.3, Fn: func(ctx context.Context) (bool, error) {
			return kc.DeploymentReady(svc(), ns), nil
		}},
		oracle.Check{Name: "endpoints-present", Weight: 0.3, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get endpoints %s -n %s -o jsonpath='{.subsets[*].addresses[*].ip}'", svc(), ns))
			if err != nil {
				return false, err
			}
			return out != "" && out != "''", nil
		}},
	)
}
