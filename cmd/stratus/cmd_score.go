package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stratus/internal/oracle"
	"stratus/internal/topology"
)

var scoreCmd = &cobra.Command{
	Use:   "score <namespace>",
	Short: "Score a localization prediction offline",
	Long: `Computes the topology-aware localization score for a ranked prediction
against a ground truth, using the namespace's topology snapshot. A debugging
aid for tuning snapshots and inspecting partial credit; no cluster access.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringSlice("predicted", nil, "ranked predicted services, most confident first")
	scoreCmd.Flags().StringSlice("truth", nil, "ground-truth faulty services")
	_ = scoreCmd.MarkFlagRequired("predicted")
	_ = scoreCmd.MarkFlagRequired("truth")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	predicted, _ := cmd.Flags().GetStringSlice("predicted")
	truth, _ := cmd.Flags().GetStringSlice("truth")

	g, err := topology.NewLoader(cfg.Topology.Dir).Load(args[0])
	if err != nil {
		return err
	}

	score := oracle.NTAMScore(g, predicted, truth, oracle.DefaultNTAMParams())
	fmt.Printf("Predicted: %v\nGround truth: %v\nScore: %.4f\n", predicted, truth, score)
	if score == 1.0 {
		fmt.Println("Exact match ✅")
	}
	return nil
}
