package inject

import (
	"errors"
	"testing"

	"stratus/internal/kube"
)

func TestScaleRecordsAndRestoresOriginalReplicas(t *testing.T) {
	fake := kube.NewFake()
	fake.Responses["jsonpath='{.spec.replicas}'"] = "'3'"
	i := New(fake, "ns")

	if err := i.ScalePodsToZero([]string{"svc"}); err != nil {
		t.Fatalf("ScalePodsToZero: %v", err)
	}
	if n, ok := i.OriginalReplicas("svc"); !ok || n != 3 {
		t.Fatalf("OriginalReplicas = %d,%v, want 3,true", n, ok)
	}

	if err := i.RestoreScaledPods([]string{"svc"}); err != nil {
		t.Fatalf("RestoreScaledPods: %v", err)
	}
	if got := fake.CommandsMatching("--replicas=3"); len(got) != 1 {
		t.Fatalf("restore commands: %v", fake.Commands)
	}
}

func TestRestoreUnrecordedServiceFallsBackToOne(t *testing.T) {
	fake := kube.NewFake()
	i := New(fake, "ns")

	// Injection never ran for this service (interrupted run).
	if err := i.RestoreScaledPods([]string{"svc"}); err != nil {
		t.Fatalf("RestoreScaledPods: %v", err)
	}
	if got := fake.CommandsMatching("--replicas=1"); len(got) != 1 {
		t.Fatalf("fallback restore missing: %v", fake.Commands)
	}
}

func TestScaleReadFailurePropagates(t *testing.T) {
	fake := kube.NewFake()
	fake.Errors["get deployment"] = errors.New("connection refused")
	i := New(fake, "ns")

	if err := i.ScalePodsToZero([]string{"svc"}); err == nil {
		t.Fatal("want error when the replica read fails")
	}
	if got := fake.CommandsMatching("--replicas=0"); len(got) != 0 {
		t.Fatalf("must not scale after a failed read: %v", got)
	}
}

func TestRestoreTargetPortWithoutRecordSkips(t *testing.T) {
	fake := kube.NewFake()
	i := New(fake, "ns")

	if err := i.RestoreTargetPort("svc"); err != nil {
		t.Fatalf("RestoreTargetPort: %v", err)
	}
	if got := fake.CommandsMatching("patch service"); len(got) != 0 {
		t.Fatalf("must not patch with no recorded port: %v", got)
	}
}

func TestRemovePolicyToleratesAbsence(t *testing.T) {
	fake := kube.NewFake()
	i := New(fake, "ns")

	if err := i.RemoveDenyAllPolicy("svc"); err != nil {
		t.Fatalf("RemoveDenyAllPolicy: %v", err)
	}
	got := fake.CommandsMatching("--ignore-not-found")
	if len(got) != 1 {
		t.Fatalf("delete must tolerate a missing policy: %v", fake.Commands)
	}
}
