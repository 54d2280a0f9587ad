package problem

import (
	"fmt"

	"stratus/internal/inject"
	"stratus/internal/logging"
	"stratus/internal/oracle"
)

// WrongSelector rewrites a service's pod selector to a label nothing
// carries, silently emptying its endpoints. Localization-only: the
// interesting question for this fault class is whether the agent can
// find the broken object, not whether it can patch it back.
type WrongSelector struct {
	Base
	injector *inject.Injector
}

// wrongSelectorFactory binds the scenario to a fixed app and service.
// The ground truth is static, so oracles attach at construction.
func wrongSelectorFactory(appName, service string) Factory {
	return func(deps Deps) (Problem, error) {
		a, ok := deps.Apps.New(appName, deps.Kube)
		if !ok {
			return nil, fmt.Errorf("app %s not registered", appName)
		}
		p := &WrongSelector{
			Base: Base{
				ProblemID:     fmt.Sprintf("wrong_service_selector_%s", underscored(appName)),
				Application:   a,
				Ns:            a.Namespace(),
				Description:   "A service's pod selector no longer matches any pod.",
				FaultyService: service,
			},
			injector: inject.New(deps.Kube, a.Namespace()),
		}
		p.Localization = oracle.NewLocalizationOracle(p.Ns, []string{service}, deps.Topology)
		return p, nil
	}
}

func (p *WrongSelector) InjectFault() error {
	fmt.Println("== Fault Injection ==")
	if err := p.injector.BreakServiceSelector(p.FaultyService); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func (p *WrongSelector) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	if p.FaultyService == "" {
		logging.New("problem").Info("no target was selected, nothing to recover", "problem", p.ProblemID)
		return nil
	}
	if err := p.injector.RestoreServiceSelector(p.FaultyService); err != nil {
		return err
	}
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

func underscored(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '-' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
