package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stratus/internal/app"
	"stratus/internal/conductor"
	"stratus/internal/config"
	"stratus/internal/driver"
	"stratus/internal/guard"
	"stratus/internal/kube"
	"stratus/internal/problem"
	"stratus/internal/report"
	"stratus/internal/server"
	"stratus/internal/topology"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark over the problem catalog",
	Long: `Starts the grading HTTP server and drives every registered problem in
sequence: deploy, inject, grade submissions until done, recover, undeploy.
Results are written to the configured CSV and summarized on stdout.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("task-type", "", "substring filter over problem IDs")
	runCmd.Flags().StringSlice("problems", nil, "explicit problem IDs to run (overrides --task-type)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, reg := buildConductor(cfg)
	c.Binaries = []string{"kubectl", "helm"}

	ids, _ := cmd.Flags().GetStringSlice("problems")
	if len(ids) == 0 {
		taskType, _ := cmd.Flags().GetString("task-type")
		if taskType == "" {
			taskType = cfg.Driver.TaskType
		}
		ids = reg.ProblemIDs(taskType)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no problems match the filter")
	}

	d := &driver.Driver{Engine: c, Poll: cfg.Driver.PollInterval.Std()}
	handler := server.New(server.Config{Conductor: c, Registry: reg})

	rows, err := driver.Serve(cmd.Context(), cfg.Server.Addr, handler, d, ids)
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Results.Path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()
	if err := report.WriteCSV(f, rows); err != nil {
		return err
	}

	report.RenderSummary(os.Stdout, rows)
	fmt.Printf("\nResults written to %s\n", cfg.Results.Path)
	return nil
}

// buildConductor wires the production object graph.
func buildConductor(cfg *config.Config) (*conductor.Conductor, *problem.Registry) {
	kc := kube.NewCLI()
	kc.Kubeconfig = cfg.Kube.Kubeconfig
	kc.Timeout = cfg.Kube.CommandTimeout.Std()
	apps := app.DefaultRegistry()
	reg := problem.NewRegistry(problem.Deps{
		Kube:     kc,
		Apps:     apps,
		Topology: topology.NewLoader(cfg.Topology.Dir),
	})
	return conductor.New(reg, apps, kc, guard.New()), reg
}
