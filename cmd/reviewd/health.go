package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health [model-id]",
	Short: "Probe every model, or one model, and print the statuses as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if len(args) == 1 {
		return enc.Encode(a.checker.CheckModelHealth(cmd.Context(), args[0]))
	}
	return enc.Encode(a.checker.CheckAllModelsHealth(cmd.Context()))
}
