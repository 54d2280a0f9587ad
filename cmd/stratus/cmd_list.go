package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"stratus/internal/app"
	"stratus/internal/kube"
	"stratus/internal/problem"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered problem IDs",
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("task-type", "", "substring filter over problem IDs")
}

func runList(cmd *cobra.Command, _ []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	reg := problem.NewRegistry(problem.Deps{Kube: kube.NewCLI(), Apps: app.DefaultRegistry()})
	taskType, _ := cmd.Flags().GetString("task-type")

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Problem ID"})
	for _, id := range reg.ProblemIDs(taskType) {
		tw.AppendRow(table.Row{id})
	}
	tw.Render()
	return nil
}
