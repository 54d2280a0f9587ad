package problem

import (
	"fmt"
	"sort"
	"strings"

	"stratus/internal/app"
	"stratus/internal/kube"
	"stratus/internal/topology"
)

// Deps are the collaborators a scenario factory needs.
type Deps struct {
	Kube     kube.Client
	Apps     *app.Registry
	Topology *topology.Loader
}

// Factory constructs a fresh Problem instance. Each run gets a new
// instance; no state survives between runs of the same problem ID.
type Factory func(deps Deps) (Problem, error)

// Registry maps problem IDs to factories.
type Registry struct {
	deps      Deps
	factories map[string]Factory
}

// NewRegistry returns a registry with the default benchmark catalog.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{deps: deps, factories: make(map[string]Factory)}

	r.Register("scale_pod_zero_social_net", NewScalePodZero)
	r.Register("wrong_service_selector_social_network", wrongSelectorFactory("social-network", "user-service"))
	r.Register("wrong_service_selector_hotel_reservation", wrongSelectorFactory("hotel-reservation", "frontend"))
	r.Register("network_policy_block", NewNetworkPolicyBlock)
	r.Register("resource_quota_exhaustion", NewResourceQuotaExhaustion)
	r.Register("k8s_target_port-misconfig", NewTargetPortMisconfig)
	r.Register("container_kill_astronomy_shop", NewContainerKill)

	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(id string, f Factory) {
	r.factories[id] = f
}

// GetProblemInstance constructs the problem for the ID, failing before any
// cluster mutation when the ID is unknown.
func (r *Registry) GetProblemInstance(id string) (Problem, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("problem ID %q not found in registry", id)
	}
	p, err := f(r.deps)
	if err != nil {
		return nil, fmt.Errorf("construct problem %q: %w", id, err)
	}
	return p, nil
}

// ProblemIDs returns registered IDs, sorted, optionally filtered to those
// containing the task-type substring.
func (r *Registry) ProblemIDs(taskType string) []string {
	var ids []string
	for id := range r.factories {
		if taskType == "" || strings.Contains(id, taskType) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns how many problems match the task-type filter.
func (r *Registry) Count(taskType string) int {
	return len(r.ProblemIDs(taskType))
}
