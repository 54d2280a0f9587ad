// Package conductor implements the staged grading state machine that
// drives one benchmark problem at a time: deploy the environment, walk
// the agent through NO-OP → detection → localization → mitigation, and
// guarantee the injected fault is recovered no matter how the run ends.
package conductor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"stratus/internal/app"
	"stratus/internal/guard"
	"stratus/internal/kube"
	"stratus/internal/logging"
	"stratus/internal/oracle"
	"stratus/internal/problem"
)

// Stage is the grading protocol position for the current problem.
type Stage string

const (
	StageNone         Stage = ""
	StageNoop         Stage = "noop"
	StageDetection    Stage = "detection"
	StageLocalization Stage = "localization"
	StageMitigation   Stage = "mitigation"
	StageDone         Stage = "done"
)

// Conductor owns the single in-flight problem. All state behind the
// mutex: the HTTP submit handler and the driver poll loop share it.
type Conductor struct {
	Registry *problem.Registry
	Apps     *app.Registry
	Kube     kube.Client
	Guard    *guard.Guard
	Infra    *Infra

	// Binaries are checked on PATH before any cluster mutation. Empty
	// skips the check (tests, fake clusters).
	Binaries []string

	mu        sync.Mutex
	problemID string
	runID     string
	problem   problem.Problem
	stage     Stage
	results   map[string]any
	startTime time.Time

	cleanup      *sync.Once
	cleanupArmed bool

	now func() time.Time
}

// New wires a conductor over the given collaborators.
func New(reg *problem.Registry, apps *app.Registry, kc kube.Client, g *guard.Guard) *Conductor {
	return &Conductor{
		Registry: reg,
		Apps:     apps,
		Kube:     kc,
		Guard:    g,
		Infra:    &Infra{Kube: kc},
		now:      time.Now,
	}
}

// Stage returns the current protocol position.
func (c *Conductor) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// ProblemID returns the ID of the in-flight problem.
func (c *Conductor) ProblemID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.problemID
}

// RunID returns the unique ID of the current run.
func (c *Conductor) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Results returns a snapshot of the accumulated stage results.
func (c *Conductor) Results() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// StartProblem deploys the environment for the given problem ID and
// opens the grading protocol at the NO-OP stage. Unknown IDs fail before
// any cluster mutation.
func (c *Conductor) StartProblem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.Registry.GetProblemInstance(id)
	if err != nil {
		return err
	}
	if err := c.dependencyCheck(); err != nil {
		return err
	}

	c.problemID = id
	c.runID = uuid.NewString()
	c.problem = p
	c.results = make(map[string]any)
	c.startTime = c.now()
	c.stage = StageNone
	c.cleanup = new(sync.Once)
	c.cleanupArmed = false

	fmt.Printf("[Session Start] Problem ID: %s\n", id)

	// SIGINT during deploy tears down whatever came up so far; there is
	// no fault to preserve yet. The cleanup closure runs on the signal
	// goroutine right before process exit, with the deploying goroutine
	// abandoned mid-shell-command, so it skips the mutex on purpose.
	err = c.Guard.Interruptible(c.deployEnvironment, func() {
		fmt.Println("\nImmediately terminating and Cleaning up...")
		if cerr := c.exitCleanupLocked(); cerr != nil {
			logging.New("conductor").Error("cleanup after interrupt failed", "error", cerr)
		}
	})
	if err != nil {
		return fmt.Errorf("start problem %s: %w", id, err)
	}

	c.stage = StageNoop
	fmt.Println("✅ Environment ready—now POST /submit to grade NO-OP detection.")
	return nil
}

func (c *Conductor) deployEnvironment() error {
	if err := c.Infra.EnsureMetricsServer(); err != nil {
		return err
	}
	if err := c.Infra.EnsureStorage(); err != nil {
		return err
	}
	if err := c.Infra.EnsureMonitoring(); err != nil {
		return err
	}

	fmt.Println("Deploying and starting workload...")
	a := c.problem.App()
	if err := a.Delete(); err != nil {
		return err
	}
	if err := a.Deploy(); err != nil {
		return err
	}
	if err := a.StartWorkload(); err != nil {
		return err
	}
	fmt.Println("\nApp has successfully been deployed!")
	return nil
}

// AskEnv grades one wrapped agent submission and advances the stage.
// Returns the operator-facing verdict line; agent-input errors never
// mutate stage or results.
func (c *Conductor) AskEnv(ctx context.Context, wrapped string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cmd, err := ParseWrapped(wrapped)
	if err != nil || cmd.API != "submit" {
		return "[❌] Only `submit(...)` is supported."
	}
	var sol any
	if len(cmd.Args) > 0 {
		sol = cmd.Args[0]
	}

	switch c.stage {
	case StageNoop:
		return c.gradeNoop(ctx, sol)
	case StageDetection:
		return c.gradeDetection(ctx, sol)
	case StageLocalization:
		return c.gradeLocalization(ctx, sol)
	case StageMitigation:
		return c.gradeMitigation(ctx)
	case StageDone:
		return "[✅] Problem completed."
	default:
		return "[❌] No problem is running."
	}
}

// gradeNoop checks the agent against the healthy system (expected "No",
// catching hallucinated faults), then injects the fault. The run
// proceeds whether or not the NO-OP answer was right; only a malformed
// submission holds the stage, because injecting on garbage input would
// start the fault clock against an agent that never answered.
func (c *Conductor) gradeNoop(ctx context.Context, sol any) string {
	r := oracle.NewDetectionOracle("No").Evaluate(ctx, sol)
	c.results["NOOP Detection"] = r.Fields()
	if r.Reason == oracle.ReasonInvalidFormat {
		return "[⚠️] Invalid NO-OP format."
	}

	if td, ok := c.problem.(problem.TargetDecider); ok {
		if err := td.DecideTargetedService(); err != nil {
			logging.New("conductor").Error("target selection failed", "error", err)
			return fmt.Sprintf("[❌] Fault injection failed: %v", err)
		}
	}

	err := c.Guard.Critical(func() error {
		// Recovery is armed before injection: a crash between the two
		// lines must still recover, and recovery tolerates a fault that
		// never landed.
		c.armCleanup()
		return c.problem.InjectFault()
	})
	if err != nil {
		logging.New("conductor").Error("fault injection failed", "error", err)
		return fmt.Sprintf("[❌] Fault injection failed: %v", err)
	}

	c.stage = StageDetection
	return "[✅] NO-OP passed — fault injected. Submit detection."
}

func (c *Conductor) gradeDetection(ctx context.Context, sol any) string {
	r := oracle.NewDetectionOracle("Yes").Evaluate(ctx, sol)
	c.results["Detection"] = r.Fields()
	c.results["TTD"] = c.now().Sub(c.startTime).Seconds()

	switch {
	case c.problem.LocalizationOracle() != nil:
		c.stage = StageLocalization
	case c.problem.MitigationOracle() != nil:
		c.stage = StageMitigation
	default:
		c.stage = StageDone
	}
	return fmt.Sprintf("[✅] Detection %s.", successWord(r.Success))
}

func (c *Conductor) gradeLocalization(ctx context.Context, sol any) string {
	r := c.problem.LocalizationOracle().Evaluate(ctx, sol)
	c.results["Localization"] = r.Fields()
	c.results["TTL"] = c.now().Sub(c.startTime).Seconds()

	if c.problem.MitigationOracle() != nil {
		c.stage = StageMitigation
	} else {
		c.stage = StageDone
	}
	return fmt.Sprintf("[✅] Localization %s.", successWord(r.Success))
}

// gradeMitigation inspects live cluster state; the submission string
// carries no information here.
func (c *Conductor) gradeMitigation(ctx context.Context) string {
	r := c.problem.MitigationOracle().Evaluate(ctx, nil)
	c.results["Mitigation"] = r.Fields()
	c.results["TTM"] = c.now().Sub(c.startTime).Seconds()
	c.stage = StageDone
	return "[✅] Mitigation evaluated."
}

// FinishProblem recovers the fault and undeploys the app after a run
// reaches done. Safe to call when cleanup already ran from the exit path.
func (c *Conductor) FinishProblem() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Guard.Critical(func() error {
		return c.exitCleanupLocked()
	})
}

// ExitCleanupAndRecoverFault is the exit/signal hook armed at fault
// injection. It recovers the fault, swallowing exactly the two benign
// shutdown conditions, always undeploys, and never fires twice.
func (c *Conductor) ExitCleanupAndRecoverFault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitCleanupLocked()
}

func (c *Conductor) armCleanup() {
	c.cleanupArmed = true
}

func (c *Conductor) exitCleanupLocked() error {
	if c.cleanup == nil {
		return nil
	}
	var retErr error
	c.cleanup.Do(func() {
		if c.problem != nil && c.cleanupArmed {
			if err := c.problem.RecoverFault(); err != nil {
				switch {
				case errors.Is(err, problem.ErrServiceNotSetUp):
					fmt.Println("Service has not been set up. Skipping fault recovery.")
				case errors.Is(err, problem.ErrNamespaceDeletionRace):
					// benign shutdown race, nothing leaked
				default:
					retErr = fmt.Errorf("recover fault: %w", err)
					return
				}
			}
		}
		if err := c.undeployApp(); err != nil {
			retErr = err
			return
		}
		fmt.Println("\nCleanup complete!")
	})
	return retErr
}

// undeployApp cleans up the current application, then tears down shared
// infrastructure only when no other registered app still occupies the
// cluster.
func (c *Conductor) undeployApp() error {
	if c.problem == nil {
		return nil
	}
	if err := c.problem.App().Cleanup(); err != nil {
		return fmt.Errorf("undeploy app: %w", err)
	}

	if len(c.deployedApps()) == 0 {
		if err := c.Infra.TeardownShared(); err != nil {
			return err
		}
	} else {
		fmt.Println("Other apps still running. Skipping OpenEBS and Prometheus deletion.")
	}
	fmt.Println("\nApp has successfully been undeployed!")
	return nil
}

func (c *Conductor) deployedApps() []string {
	var deployed []string
	for _, name := range c.Apps.Names() {
		meta, ok := c.Apps.Metadata(name)
		if !ok {
			continue
		}
		if c.Kube.NamespaceActive(meta.Namespace) {
			deployed = append(deployed, name)
		}
	}
	return deployed
}

func (c *Conductor) dependencyCheck() error {
	for _, b := range c.Binaries {
		if _, err := exec.LookPath(b); err != nil {
			return fmt.Errorf("[❌] Required dependency %q not found", b)
		}
	}
	return nil
}

func successWord(ok bool) string {
	if ok {
		return "successful"
	}
	return "failed"
}
