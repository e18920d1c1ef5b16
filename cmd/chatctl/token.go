package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/linesmerrill/clinic-messaging-api/api"
	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	var (
		viewer models.Viewer
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := config.New()
			if conf.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			viewer.Role = models.Role(role)
			if !viewer.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := api.IssueToken(conf.JWTSecret, viewer, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&viewer.ID, "viewer", "", "viewer id")
	cmd.Flags().StringVar(&viewer.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "viewer role (clinician|patient)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("viewer")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
