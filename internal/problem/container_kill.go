package problem

import (
	"fmt"

	"stratus/internal/inject"
	"stratus/internal/logging"
)

// ContainerKill deletes one service's pods once and lets the controller
// restart them. The fault is transient, so it grades detection only:
// with no localization or mitigation oracle attached the run collapses
// to done after a correct detection.
type ContainerKill struct {
	Base
	deps     Deps
	injector *inject.Injector
}

// NewContainerKill builds the scenario against the astronomy-shop app.
func NewContainerKill(deps Deps) (Problem, error) {
	a, ok := deps.Apps.New("astronomy-shop", deps.Kube)
	if !ok {
		return nil, fmt.Errorf("app astronomy-shop not registered")
	}
	p := &ContainerKill{
		Base: Base{
			ProblemID:   "container_kill_astronomy_shop",
			Application: a,
			Ns:          a.Namespace(),
			Description: "One service's containers were killed and restarted by the controller.",
		},
		deps:     deps,
		injector: inject.New(deps.Kube, a.Namespace()),
	}
	return p, nil
}

// DecideTargetedService picks the victim at run time. No oracles attach:
// the kill leaves no persistent broken object to localize or repair.
func (p *ContainerKill) DecideTargetedService() error {
	r := Randomizer{Kube: p.deps.Kube}
	svc, err := r.SelectService(p.Ns, "loadgenerator")
	if err != nil {
		return fmt.Errorf("decide targeted service: %w", err)
	}
	p.FaultyService = svc
	return nil
}

func (p *ContainerKill) InjectFault() error {
	fmt.Println("== Fault Injection ==")
	if err := p.injector.KillContainer(p.FaultyService); err != nil {
		return err
	}
	p.FaultInjected = true
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}

// RecoverFault is a no-op beyond logging: the controller already
// restarted the pods, there is nothing to reverse.
func (p *ContainerKill) RecoverFault() error {
	fmt.Println("== Fault Recovery ==")
	logging.New("problem").Info("transient fault, controller self-heals", "problem", p.ProblemID)
	fmt.Printf("Service: %s | Namespace: %s\n\n", p.FaultyService, p.Ns)
	return nil
}
