package main

import (
	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:           "reviewd",
	Short:         "AI model registry, health checks and architectural report reviews",
	Version:       version + " (" + commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, healthCmd, modelsCmd, tokenCmd, keygenCmd)
}
