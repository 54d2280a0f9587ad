package app

import (
	"sort"

	"stratus/internal/kube"
)

// Metadata describes a registered application without instantiating it.
type Metadata struct {
	Namespace string
	Chart     string
	Release   string
	Workload  string
}

// Registry maps application names to metadata and constructors. The
// conductor consults it during undeploy to decide whether any other app
// still occupies the cluster before tearing down shared infrastructure.
type Registry struct {
	entries map[string]Metadata
}

// DefaultRegistry returns the benchmark application catalog.
func DefaultRegistry() *Registry {
	return &Registry{entries: map[string]Metadata{
		"social-network": {
			Namespace: "social-network",
			Chart:     "deathstarbench/social-network",
			Release:   "social-network",
			Workload:  "wrk-load",
		},
		"hotel-reservation": {
			Namespace: "hotel-reservation",
			Chart:     "deathstarbench/hotel-reservation",
			Release:   "hotel-reservation",
			Workload:  "wrk-load",
		},
		"astronomy-shop": {
			Namespace: "astronomy-shop",
			Chart:     "open-telemetry/opentelemetry-demo",
			Release:   "astronomy-shop",
			Workload:  "loadgenerator",
		},
	}}
}

// Names returns registered app names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Metadata returns the metadata for a registered app name.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	m, ok := r.entries[name]
	return m, ok
}

// New instantiates a registered application bound to the given cluster.
func (r *Registry) New(name string, kc kube.Client) (*HelmApp, bool) {
	m, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return &HelmApp{
		AppName:      name,
		Ns:           m.Namespace,
		Chart:        m.Chart,
		Release:      m.Release,
		WorkloadName: m.Workload,
		Kube:         kc,
	}, true
}
