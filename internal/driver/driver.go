// Package driver runs the benchmark end to end: it serves the grading
// API and walks the problem catalog one problem at a time, polling the
// conductor until each run completes.
package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"stratus/internal/conductor"
	"stratus/internal/logging"
	"stratus/internal/report"
)

// Engine is the conductor surface the driver needs. Narrowed to an
// interface so tests can script stage transitions.
type Engine interface {
	StartProblem(id string) error
	Stage() conductor.Stage
	FinishProblem() error
	Results() map[string]any
	RunID() string
}

// Driver walks problems sequentially, one in flight at a time.
type Driver struct {
	Engine Engine

	// Poll is the stage polling interval. Zero means one second.
	Poll time.Duration
}

// RunProblem starts one problem, waits for the protocol to reach done,
// finishes it (fault recovery + undeploy), and returns the flattened
// result row.
func (d *Driver) RunProblem(ctx context.Context, id string) (report.Row, error) {
	if err := d.Engine.StartProblem(id); err != nil {
		return report.Row{}, fmt.Errorf("start problem %s: %w", id, err)
	}

	poll := d.Poll
	if poll == 0 {
		poll = time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for d.Engine.Stage() != conductor.StageDone {
		select {
		case <-ctx.Done():
			// Finish anyway: the fault must not outlive the run.
			if ferr := d.Engine.FinishProblem(); ferr != nil {
				logging.New("driver").Error("cleanup after cancellation failed", "problem", id, "error", ferr)
			}
			return report.Row{}, ctx.Err()
		case <-ticker.C:
		}
	}

	row := report.Row{
		ProblemID: id,
		RunID:     d.Engine.RunID(),
		Fields:    report.Flatten(d.Engine.Results()),
	}
	if err := d.Engine.FinishProblem(); err != nil {
		return row, fmt.Errorf("finish problem %s: %w", id, err)
	}
	return row, nil
}

// RunAll runs each problem in order. A failing problem is logged and
// skipped; the rest of the catalog still runs.
func (d *Driver) RunAll(ctx context.Context, ids []string) ([]report.Row, error) {
	log := logging.New("driver")
	var rows []report.Row
	for _, id := range ids {
		row, err := d.RunProblem(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return rows, err
			}
			log.Error("problem run failed, continuing", "problem", id, "error", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Serve runs the grading HTTP server and the driver loop together. The
// server stops once every problem has run (or on context cancellation).
func Serve(ctx context.Context, addr string, handler http.Handler, d *Driver, ids []string) ([]report.Row, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: handler}
	var rows []report.Row

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("grading server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		defer cancel()
		var err error
		rows, err = d.RunAll(ctx, ids)
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return rows, err
	}
	return rows, nil
}
