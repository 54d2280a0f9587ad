package conductor

import (
	"context"
	"strings"
	"testing"

	"stratus/internal/app"
	"stratus/internal/guard"
	"stratus/internal/kube"
	"stratus/internal/oracle"
	"stratus/internal/problem"
)

type stubApp struct {
	ns                                   string
	deletes, deploys, workloads, cleanups int
}

func (a *stubApp) Name() string         { return a.ns }
func (a *stubApp) Namespace() string    { return a.ns }
func (a *stubApp) Delete() error        { a.deletes++; return nil }
func (a *stubApp) Deploy() error        { a.deploys++; return nil }
func (a *stubApp) StartWorkload() error { a.workloads++; return nil }
func (a *stubApp) Cleanup() error       { a.cleanups++; return nil }

type stubProblem struct {
	problem.Base
	injects, recovers int
	recoverErr        error
}

func (p *stubProblem) InjectFault() error { p.injects++; return nil }
func (p *stubProblem) RecoverFault() error {
	p.recovers++
	return p.recoverErr
}

type stubOracle struct {
	result oracle.Result
	calls  int
}

func (o *stubOracle) Evaluate(context.Context, any) oracle.Result {
	o.calls++
	return o.result
}

// newTestConductor wires a conductor against a fake cluster with the
// shared infrastructure already present, so deploys hit the skip paths.
func newTestConductor(t *testing.T, p problem.Problem) (*Conductor, *kube.Fake) {
	t.Helper()
	fake := kube.NewFake()
	fake.SetDeploymentReady("metrics-server", "kube-system", true)
	fake.SetNamespaceActive("openebs", true)
	fake.SetNamespaceActive(monitoringNamespace, true)

	reg := problem.NewRegistry(problem.Deps{Kube: fake, Apps: app.DefaultRegistry()})
	reg.Register("stub", func(problem.Deps) (problem.Problem, error) { return p, nil })

	c := New(reg, app.DefaultRegistry(), fake, &guard.Guard{Enabled: false})
	return c, fake
}

func newStubProblem() *stubProblem {
	return &stubProblem{Base: problem.Base{
		ProblemID:   "stub",
		Application: &stubApp{ns: "stub-ns"},
		Ns:          "stub-ns",
	}}
}

func TestStartProblemUnknownID(t *testing.T) {
	c, fake := newTestConductor(t, newStubProblem())
	if err := c.StartProblem("no-such-problem"); err == nil {
		t.Fatal("want error for unknown problem ID")
	}
	if len(fake.Commands) != 0 {
		t.Fatalf("unknown ID must not touch the cluster, ran: %v", fake.Commands)
	}
	if got := c.Stage(); got != StageNone {
		t.Fatalf("stage = %q, want none", got)
	}
}

func TestStagedProtocolFullPath(t *testing.T) {
	p := newStubProblem()
	loc := &stubOracle{result: oracle.Result{Success: true, Scored: true, Score: 1.0}}
	mit := &stubOracle{result: oracle.Result{Success: true, Score: 0.7, Scored: true}}
	p.Localization = loc
	p.Mitigation = mit

	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}
	if got := c.Stage(); got != StageNoop {
		t.Fatalf("stage after start = %q, want noop", got)
	}

	ctx := context.Background()

	if got := c.AskEnv(ctx, `submit("No")`); got != "[✅] NO-OP passed — fault injected. Submit detection." {
		t.Fatalf("noop reply = %q", got)
	}
	if p.injects != 1 {
		t.Fatalf("injects = %d, want 1", p.injects)
	}
	if got := c.Stage(); got != StageDetection {
		t.Fatalf("stage = %q, want detection", got)
	}

	if got := c.AskEnv(ctx, `submit("Yes")`); got != "[✅] Detection successful." {
		t.Fatalf("detection reply = %q", got)
	}
	if got := c.Stage(); got != StageLocalization {
		t.Fatalf("stage = %q, want localization", got)
	}

	if got := c.AskEnv(ctx, `submit(["user-service"])`); got != "[✅] Localization successful." {
		t.Fatalf("localization reply = %q", got)
	}
	if loc.calls != 1 {
		t.Fatalf("localization oracle calls = %d, want 1", loc.calls)
	}

	if got := c.AskEnv(ctx, `submit("done my best")`); got != "[✅] Mitigation evaluated." {
		t.Fatalf("mitigation reply = %q", got)
	}
	if got := c.Stage(); got != StageDone {
		t.Fatalf("stage = %q, want done", got)
	}

	if got := c.AskEnv(ctx, `submit("anything")`); got != "[✅] Problem completed." {
		t.Fatalf("done reply = %q", got)
	}

	results := c.Results()
	for _, key := range []string{"NOOP Detection", "Detection", "Localization", "Mitigation", "TTD", "TTL", "TTM"} {
		if _, ok := results[key]; !ok {
			t.Errorf("results missing %q", key)
		}
	}
}

func TestNonSubmitRejectedWithoutStateChange(t *testing.T) {
	c, _ := newTestConductor(t, newStubProblem())
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	got := c.AskEnv(context.Background(), `get_logs("frontend")`)
	if got != "[❌] Only `submit(...)` is supported." {
		t.Fatalf("reply = %q", got)
	}
	if c.Stage() != StageNoop {
		t.Fatalf("stage changed to %q on rejected command", c.Stage())
	}
	if len(c.Results()) != 0 {
		t.Fatalf("results mutated on rejected command: %v", c.Results())
	}
}

func TestInvalidNoopFormatStaysAndDoesNotInject(t *testing.T) {
	p := newStubProblem()
	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	if got := c.AskEnv(context.Background(), `submit(42)`); got != "[⚠️] Invalid NO-OP format." {
		t.Fatalf("reply = %q", got)
	}
	if c.Stage() != StageNoop {
		t.Fatalf("stage = %q, want noop", c.Stage())
	}
	if p.injects != 0 {
		t.Fatalf("injected on invalid NO-OP format")
	}
}

func TestWrongNoopAnswerStillInjects(t *testing.T) {
	p := newStubProblem()
	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	// Hallucinated fault: wrong answer, but the run proceeds.
	c.AskEnv(context.Background(), `submit("Yes")`)
	if c.Stage() != StageDetection {
		t.Fatalf("stage = %q, want detection", c.Stage())
	}
	if p.injects != 1 {
		t.Fatalf("injects = %d, want 1", p.injects)
	}
	res, ok := c.Results()["NOOP Detection"].(map[string]any)
	if !ok {
		t.Fatal("NOOP Detection result missing")
	}
	if res["success"] != false {
		t.Fatalf("NOOP success = %v, want false", res["success"])
	}
}

func TestDetectionCollapsesToDoneWithoutOracles(t *testing.T) {
	c, _ := newTestConductor(t, newStubProblem())
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	ctx := context.Background()
	c.AskEnv(ctx, `submit("No")`)
	c.AskEnv(ctx, `submit("Yes")`)
	if c.Stage() != StageDone {
		t.Fatalf("stage = %q, want done (no oracles attached)", c.Stage())
	}
}

func TestDetectionSkipsToMitigationWithoutLocalization(t *testing.T) {
	p := newStubProblem()
	p.Mitigation = &stubOracle{result: oracle.Result{Success: true}}
	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	ctx := context.Background()
	c.AskEnv(ctx, `submit("No")`)
	c.AskEnv(ctx, `submit("Yes")`)
	if c.Stage() != StageMitigation {
		t.Fatalf("stage = %q, want mitigation", c.Stage())
	}
}

func TestRecoveryRunsExactlyOnce(t *testing.T) {
	p := newStubProblem()
	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}
	ctx := context.Background()
	c.AskEnv(ctx, `submit("No")`)
	c.AskEnv(ctx, `submit("Yes")`)

	if err := c.FinishProblem(); err != nil {
		t.Fatalf("FinishProblem: %v", err)
	}
	if err := c.ExitCleanupAndRecoverFault(); err != nil {
		t.Fatalf("ExitCleanupAndRecoverFault: %v", err)
	}
	if p.recovers != 1 {
		t.Fatalf("recovers = %d, want 1", p.recovers)
	}
	stub := p.Application.(*stubApp)
	if stub.cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", stub.cleanups)
	}
}

func TestCleanupSwallowsBenignRecoveryErrors(t *testing.T) {
	for _, benign := range []error{problem.ErrServiceNotSetUp, problem.ErrNamespaceDeletionRace} {
		p := newStubProblem()
		p.recoverErr = benign
		c, _ := newTestConductor(t, p)
		if err := c.StartProblem("stub"); err != nil {
			t.Fatalf("StartProblem: %v", err)
		}
		c.AskEnv(context.Background(), `submit("No")`)

		if err := c.ExitCleanupAndRecoverFault(); err != nil {
			t.Fatalf("cleanup must swallow %v, got %v", benign, err)
		}
		stub := p.Application.(*stubApp)
		if stub.cleanups != 1 {
			t.Fatalf("undeploy must run after benign recovery error, cleanups = %d", stub.cleanups)
		}
	}
}

func TestCleanupWithoutInjectionSkipsRecovery(t *testing.T) {
	p := newStubProblem()
	c, _ := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	// No submission, no injection: cleanup must not try to reverse a
	// fault that never landed, but still undeploys.
	if err := c.ExitCleanupAndRecoverFault(); err != nil {
		t.Fatalf("ExitCleanupAndRecoverFault: %v", err)
	}
	if p.recovers != 0 {
		t.Fatalf("recovers = %d, want 0", p.recovers)
	}
	if p.Application.(*stubApp).cleanups != 1 {
		t.Fatal("undeploy must run even without injection")
	}
}

func TestSharedInfraTeardownRefcount(t *testing.T) {
	p := newStubProblem()
	c, fake := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}
	c.AskEnv(context.Background(), `submit("No")`)

	// Another registered app is still deployed: shared infra survives.
	fake.SetNamespaceActive("hotel-reservation", true)
	fake.SetNamespaceActive("openebs", false)
	if err := c.FinishProblem(); err != nil {
		t.Fatalf("FinishProblem: %v", err)
	}
	if got := fake.CommandsMatching("helm uninstall monitoring"); len(got) != 0 {
		t.Fatalf("monitoring torn down while another app is deployed: %v", got)
	}
	if got := fake.CommandsMatching("openebs-operator.yaml --ignore-not-found"); len(got) != 0 {
		t.Fatalf("openebs torn down while another app is deployed: %v", got)
	}
}

func TestSharedInfraTeardownWhenLastAppLeaves(t *testing.T) {
	p := newStubProblem()
	c, fake := newTestConductor(t, p)
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}
	c.AskEnv(context.Background(), `submit("No")`)

	fake.SetNamespaceActive("openebs", false)
	fake.SetNamespaceActive(monitoringNamespace, false)
	if err := c.FinishProblem(); err != nil {
		t.Fatalf("FinishProblem: %v", err)
	}
	if got := fake.CommandsMatching("helm uninstall monitoring"); len(got) != 1 {
		t.Fatalf("want monitoring teardown, commands: %v", fake.Commands)
	}
}

func TestInfraSetupSkipsWhenPresent(t *testing.T) {
	c, fake := newTestConductor(t, newStubProblem())
	if err := c.StartProblem("stub"); err != nil {
		t.Fatalf("StartProblem: %v", err)
	}

	for _, sub := range []string{"metrics-server/releases", "openebs-operator.yaml", "kube-prometheus-stack"} {
		for _, cmd := range fake.Commands {
			if strings.Contains(cmd, sub) {
				t.Errorf("infra component reinstalled despite being present: %s", cmd)
			}
		}
	}
}
