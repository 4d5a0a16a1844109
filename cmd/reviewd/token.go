package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"archreview/internal/auth"
	"archreview/internal/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API token",
	Long: `Issue an HS256 admin token signed with JWT_SECRET.

Examples:
  reviewd token --subject ci --role viewer
  reviewd token --subject alice --role admin --ttl 1h`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("subject", "", "token subject (required)")
	tokenCmd.Flags().String("role", auth.RoleViewer.String(), "comma separated roles: admin, viewer")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	roles, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	token, exp, err := auth.GenerateAdminJWT([]byte(cfg.JWTSecret), subject, auth.AuthTypeService, auth.ParseRoles(roles), ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(exp, 0).UTC().Format(time.RFC3339))
	return nil
}
