package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"archreview/internal/storage"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ENCRYPTION_KEY for stored API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := storage.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}
