package problem

import (
	"context"
	"fmt"
	"strings"

	"stratus/internal/inject"
	"stratus/internal/logging"
	"stratus/internal/oracle"
)

// targetPortWrong is a port nothing in the benchmark apps listens on.
const targetPortWrong = 9999

// TargetPortMisconfig rewrites a service's targetPort so the service
// object looks healthy while every request to it fails to connect.
type TargetPortMisconfig struct {
	Base
	deps     Deps
	injector *inject.Injector
}

// NewTargetPortMisconfig builds the scenario against social-network's
// user-service.
func NewTargetPortMisconfig(deps Deps) (Problem, error) {
	a, ok := deps.Apps.New("social-network", deps.Kube)
	if !ok {
		return nil, fmt.Errorf("app social-network not registered")
	}
	p := &TargetPortMisconfig{
		Base: Base{
			ProblemID:     "k8s_target_port-misconfig",
			Application:   a,
			Ns:            a.Namespace(),
			Description:   "A service's target port points at a port no container listens on.",
			FaultyService: "user-service",
		},
		deps:     deps,
		injector: inject.New(deps.Kube, a.Namespace()),
	}
	p.Localization = oracle.NewLocalizationOracle(p.Ns, []string{"user-service"}, deps.Topology)
	p.Mitigation = p.mitigationOracle()
	return p, nil
}

func (p *TargetPortMisconfig) InjectFault() error {
	fmt.Println("== Fault Injection ==")
	if err := p.injector.MisconfigureTargetPort(p.FaultyService, targetPortWrong); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *TargetPortMisconfig) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	if p.FaultyService == "" {
		logging.New("problem").Info("no target was selected, nothing to recover", "problem", p.ProblemID)
		return nil
	}
	if err := p.injector.RestoreTargetPort(p.FaultyService); err != nil {
		return err
	}
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *TargetPortMisconfig) mitigationOracle() oracle.Oracle {
	kc := p.deps.Kube
	svc := p.FaultyService
	ns := p.Ns

	return oracle.NewWeightedOracle("target-port-misconfig",
		oracle.Check{Name: "target-port-restored", Weight: 0.6, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get service %s -n %s -o jsonpath='{.spec.ports[0].targetPort}'", svc, ns))
			if err != nil {
				return false, err
			}
			return strings.Trim(out, "'") != fmt.Sprint(targetPortWrong), nil
		}},
		oracle.Check{Name: "endpoints-present", Weight: 0.4, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get endpoints %s -n %s -o jsonpath='{.subsets[*].addresses[*].ip}'", svc, ns))
			if err != nil {
				return false, err
			}
			return out != "" && out != "''", nil
		}},
	)
}
