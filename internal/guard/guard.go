// Package guard protects cluster-mutating critical sections from
// interrupts. A fault half-injected when the operator hits Ctrl-C is a
// leaked cluster mutation, so injection and recovery run with SIGINT
// deferred, and long setup runs with SIGINT redirected into cleanup.
package guard

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"stratus/internal/logging"
)

// Guard owns the process's interrupt discipline. Disabled guards are
// pass-throughs, which keeps tests and library embedding free of global
// signal state.
type Guard struct {
	Enabled bool
}

// New returns an enabled guard.
func New() *Guard { return &Guard{Enabled: true} }

// Critical runs fn with SIGINT deferred: an interrupt arriving inside fn
// is remembered and re-raised after fn returns, so inject/recover pairs
// never tear mid-flight.
func (g *Guard) Critical(fn func() error) error {
	if g == nil || !g.Enabled {
		return fn()
	}

	var interrupted atomic.Bool
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				interrupted.Store(true)
				logging.New("guard").Warn("interrupt deferred until critical section exits")
			case <-done:
				return
			}
		}
	}()

	err := fn()

	signal.Stop(ch)
	close(done)
	if interrupted.Load() {
		// Re-raise so the default handler (or an outer section) sees it.
		p, findErr := os.FindProcess(os.Getpid())
		if findErr == nil {
			_ = p.Signal(syscall.SIGINT)
		}
	}
	return err
}

// Interruptible runs fn with SIGINT redirected into cleanup: an
// interrupt during fn triggers cleanup and then exits the process.
// Used around environment setup, where the right response to Ctrl-C is
// tearing down whatever deployed so far, not finishing the deploy.
func (g *Guard) Interruptible(fn func() error, cleanup func()) error {
	if g == nil || !g.Enabled {
		return fn()
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			logging.New("guard").Warn("interrupt during setup, cleaning up")
			cleanup()
			os.Exit(130)
		case <-done:
		}
	}()

	err := fn()

	signal.Stop(ch)
	close(done)
	return err
}
