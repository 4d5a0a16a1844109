package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered models",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROVIDER\tENABLED\tDEFAULT\tCUSTOM\tPRIORITY")
	for _, c := range a.registry.GetAllConfigs() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%t\t%d\n", c.ModelID, c.Name, c.Provider, c.Enabled, c.IsDefault, c.IsCustom, c.Priority)
	}
	return tw.Flush()
}
