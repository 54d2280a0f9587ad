package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"stratus/internal/kube"
)

func TestDefaultRegistryCatalog(t *testing.T) {
	r := DefaultRegistry()

	want := []string{"astronomy-shop", "hotel-reservation", "social-network"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	m, ok := r.Metadata("social-network")
	if !ok {
		t.Fatal("social-network not registered")
	}
	if m.Namespace != "social-network" || m.Workload != "wrk-load" {
		t.Errorf("metadata = %+v", m)
	}

	if _, ok := r.Metadata("nope"); ok {
		t.Error("unknown app reported as registered")
	}
	if _, ok := r.New("nope", kube.NewFake()); ok {
		t.Error("unknown app instantiated")
	}
}

func TestDeployInstallsAndWaits(t *testing.T) {
	fake := kube.NewFake()
	a, _ := DefaultRegistry().New("social-network", fake)

	if err := a.Deploy(); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if got := fake.CommandsMatching("helm install social-network"); len(got) != 1 {
		t.Fatalf("helm install missing: %v", fake.Commands)
	}
}

func TestDeleteToleratesMissingRelease(t *testing.T) {
	fake := kube.NewFake()
	a, _ := DefaultRegistry().New("hotel-reservation", fake)

	if err := a.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := fake.CommandsMatching("helm uninstall hotel-reservation"); len(got) != 1 {
		t.Fatalf("helm uninstall missing: %v", fake.Commands)
	}
	if got := fake.CommandsMatching("delete namespace hotel-reservation"); len(got) != 1 {
		t.Fatalf("namespace deletion missing: %v", fake.Commands)
	}
}

func TestStartWorkloadScalesGenerator(t *testing.T) {
	fake := kube.NewFake()
	a, _ := DefaultRegistry().New("astronomy-shop", fake)

	if err := a.StartWorkload(); err != nil {
		t.Fatalf("StartWorkload: %v", err)
	}
	if got := fake.CommandsMatching("scale deployment loadgenerator"); len(got) != 1 {
		t.Fatalf("workload not started: %v", fake.Commands)
	}
}

func TestWorkloadHealthy(t *testing.T) {
	fake := kube.NewFake()
	a, _ := DefaultRegistry().New("social-network", fake)

	if a.WorkloadHealthy() {
		t.Error("workload healthy before generator is ready")
	}
	fake.SetDeploymentReady("wrk-load", "social-network", true)
	if !a.WorkloadHealthy() {
		t.Error("workload unhealthy despite ready generator")
	}
}
