// Package problem defines the fault-scenario contract and the registry of
// benchmark problems. A problem bundles a target application, a namespace,
// an inject/recover fault pair, and the oracles that grade each stage of
// the protocol for that scenario.
package problem

import (
	"errors"

	"stratus/internal/app"
	"stratus/internal/oracle"
)

// Recoverable shutdown conditions. The conductor's exit cleanup swallows
// exactly these two; anything else recovery raises propagates.
var (
	// ErrServiceNotSetUp means recovery ran before the service finished
	// setting up (interrupt during deploy), so there is nothing to reverse.
	ErrServiceNotSetUp = errors.New("service has not been set up")

	// ErrNamespaceDeletionRace is the benign race where recovery waits on a
	// namespace that shutdown is already deleting.
	ErrNamespaceDeletionRace = errors.New("namespace deletion already in progress")
)

// Problem is the fault-scenario lifecycle contract. InjectFault and
// RecoverFault are called in sequence exactly once per run; RecoverFault
// must additionally run safely from the exit-cleanup path after a partial
// or absent injection, logging and returning instead of raising on a
// nothing-to-recover call.
type Problem interface {
	ID() string
	App() app.Application
	Namespace() string
	Describe() string

	InjectFault() error
	RecoverFault() error

	// LocalizationOracle and MitigationOracle return nil when the scenario
	// does not grade that stage; the conductor collapses the stage order
	// accordingly.
	LocalizationOracle() oracle.Oracle
	MitigationOracle() oracle.Oracle
}

// TargetDecider is implemented by problems that pick their faulty service
// at run time rather than fixing it in the scenario definition. It runs
// before InjectFault so the ground truth exists when oracles attach.
type TargetDecider interface {
	DecideTargetedService() error
}

// Base carries the state every scenario shares. Scenarios embed it and
// override behavior.
type Base struct {
	ProblemID     string
	Application   app.Application
	Ns            string
	Description   string
	FaultInjected bool
	FaultyService string

	Localization oracle.Oracle
	Mitigation   oracle.Oracle
}

func (b *Base) ID() string                         { return b.ProblemID }
func (b *Base) App() app.Application               { return b.Application }
func (b *Base) Namespace() string                  { return b.Ns }
func (b *Base) Describe() string                   { return b.Description }
func (b *Base) LocalizationOracle() oracle.Oracle  { return b.Localization }
func (b *Base) MitigationOracle() oracle.Oracle    { return b.Mitigation }
