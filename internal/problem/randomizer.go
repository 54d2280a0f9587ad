package problem

import (
	"fmt"
	"math/rand"
	"strings"

	"stratus/internal/kube"
)

// Randomizer picks fault targets from the live namespace so repeated runs
// of a randomized scenario exercise different services.
type Randomizer struct {
	Kube kube.Client

	// Seed pins selection for tests; zero means nondeterministic.
	Seed int64
}

// SelectService returns a random deployment name from the namespace,
// skipping infrastructure deployments that make poor fault targets.
func (r *Randomizer) SelectService(namespace string, exclude ...string) (string, error) {
	out, err := r.Kube.ExecCommand(fmt.Sprintf(
		"kubectl get deployments -n %s -o jsonpath='{.items[*].metadata.name}'", namespace))
	if err != nil {
		return "", fmt.Errorf("list deployments in %s: %w", namespace, err)
	}

	skip := make(map[string]struct{}, len(exclude)+2)
	for _, e := range exclude {
		skip[e] = struct{}{}
	}
	skip["jaeger"] = struct{}{}
	skip["wrk-load"] = struct{}{}

	var candidates []string
	for _, name := range strings.Fields(strings.Trim(out, "'")) {
		if _, excluded := skip[name]; !excluded {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no eligible deployments in %s", namespace)
	}

	rng := rand.New(rand.NewSource(r.Seed))
	if r.Seed == 0 {
		return candidates[rand.Intn(len(candidates))], nil
	}
	return candidates[rng.Intn(len(candidates))], nil
}
