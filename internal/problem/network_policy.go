package problem

import (
	"context"
	"fmt"
	"strings"

	"stratus/internal/inject"
	"stratus/internal/logging"
	"stratus/internal/oracle"
)

// NetworkPolicyBlock drops a deny-all NetworkPolicy onto one service,
// cutting it off from the rest of the mesh while its pods stay Running.
type NetworkPolicyBlock struct {
	Base
	deps     Deps
	injector *inject.Injector
}

// NewNetworkPolicyBlock builds the scenario against hotel-reservation.
func NewNetworkPolicyBlock(deps Deps) (Problem, error) {
	a, ok := deps.Apps.New("hotel-reservation", deps.Kube)
	if !ok {
		return nil, fmt.Errorf("app hotel-reservation not registered")
	}
	p := &NetworkPolicyBlock{
		Base: Base{
			ProblemID:   "network_policy_block",
			Application: a,
			Ns:          a.Namespace(),
			Description: "A deny-all network policy isolates one service from all traffic.",
		},
		deps:     deps,
		injector: inject.New(deps.Kube, a.Namespace()),
	}
	return p, nil
}

// DecideTargetedService picks the isolated service at run time. The
// frontend is excluded: isolating the entry point makes every downstream
// service look equally dead and the localization signal degenerates.
func (p *NetworkPolicyBlock) DecideTargetedService() error {
	r := Randomizer{Kube: p.deps.Kube}
	svc, err := r.SelectService(p.Ns, "frontend")
	if err != nil {
		return fmt.Errorf("decide targeted service: %w", err)
	}
	p.FaultyService = svc

	p.Localization = oracle.NewLocalizationOracle(p.Ns, []string{svc}, p.deps.Topology)
	p.Mitigation = p.mitigationOracle()
	return nil
}

func (p *NetworkPolicyBlock) InjectFault() error {
	fmt.Println("== Fault Injection ==")
	if err := p.injector.ApplyDenyAllPolicy(p.FaultyService); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *NetworkPolicyBlock) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	if p.FaultyService == "" {
		logging.New("problem").Info("no target was selected, nothing to recover", "problem", p.ProblemID)
		return nil
	}
	if err := p.injector.RemoveDenyAllPolicy(p.FaultyService); err != nil {
		return err
	}
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *NetworkPolicyBlock) mitigationOracle() oracle.Oracle {
	kc := p.deps.Kube
	svc := func() string { return p.FaultyService }
	ns := p.Ns

	return oracle.NewWeightedOracle("network-policy-block",
		oracle.Check{Name: "policy-removed", Weight: 0.5, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get networkpolicy -n %s -o jsonpath='{.items[*].metadata.name}'", ns))
			if err != nil {
				return false, err
			}
			return !containsWord(out, "stratus-deny-"+svc()), nil
		}},
		oracle.Check{Name: "endpoints-present", Weight: 0.3, Fn: func(ctx context.Context) (bool, error) {
			out, err := kc.ExecCommand(fmt.Sprintf(
				"kubectl get endpoints %s -n %s -o jsonpath='{.subsets[*].addresses[*].ip}'", svc(), ns))
			if err != nil {
				return false, err
			}
			return out != "" && out != "''", nil
		}},
		oracle.Check{Name: "pods-ready", Weight: 0.2, Fn: func(ctx context.Context) (bool, error) {
			return kc.DeploymentReady(svc(), ns), nil
		}},
	)
}

func containsWord(fields, word string) bool {
	for _, f := range strings.Fields(strings.Trim(fields, "'")) {
		if f == word {
			return true
		}
	}
	return false
}
