package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"stratus/internal/logging"
	"stratus/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <problem-id>",
	Short: "Serve the grading API for one problem",
	Long: `Deploys the environment for a single problem and serves the grading API
until the protocol reaches done. For interactive agent development; use
"run" for full benchmark sweeps.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, reg := buildConductor(cfg)
	c.Binaries = []string{"kubectl", "helm"}

	if err := c.StartProblem(args[0]); err != nil {
		return err
	}
	defer func() {
		if err := c.FinishProblem(); err != nil {
			logging.New("serve").Error("final cleanup failed", "error", err)
		}
	}()

	handler := server.New(server.Config{Conductor: c, Registry: reg})
	fmt.Printf("Grading API listening on %s\n", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, handler)
}
