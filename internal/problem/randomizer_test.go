package problem

import (
	"testing"

	"stratus/internal/kube"
)

func TestSelectServiceExcludesInfrastructure(t *testing.T) {
	fake := kube.NewFake()
	fake.Responses["get deployments"] = "'jaeger wrk-load user-service'"

	r := Randomizer{Kube: fake, Seed: 1}
	svc, err := r.SelectService("social-network")
	if err != nil {
		t.Fatalf("SelectService: %v", err)
	}
	if svc != "user-service" {
		t.Fatalf("svc = %q, want user-service (only eligible)", svc)
	}
}

func TestSelectServiceHonorsCallerExcludes(t *testing.T) {
	fake := kube.NewFake()
	fake.Responses["get deployments"] = "'frontend geo rate'"

	r := Randomizer{Kube: fake, Seed: 7}
	for range 20 {
		svc, err := r.SelectService("hotel-reservation", "frontend")
		if err != nil {
			t.Fatalf("SelectService: %v", err)
		}
		if svc == "frontend" {
			t.Fatal("excluded service selected")
		}
	}
}

func TestSelectServiceSeedIsDeterministic(t *testing.T) {
	fake := kube.NewFake()
	fake.Responses["get deployments"] = "'a b c d e'"

	r := Randomizer{Kube: fake, Seed: 42}
	first, err := r.SelectService("ns")
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		got, err := r.SelectService("ns")
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("seeded selection not deterministic: %q vs %q", got, first)
		}
	}
}

func TestSelectServiceNoCandidates(t *testing.T) {
	fake := kube.NewFake()
	fake.Responses["get deployments"] = "'jaeger wrk-load'"

	r := Randomizer{Kube: fake, Seed: 1}
	if _, err := r.SelectService("ns"); err == nil {
		t.Fatal("want error when nothing is eligible")
	}
}
