package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <subject-id>",
		Short: "Mint a bearer token for a patient, doctor profile or admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("subject must be a UUID: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := auth.NewSigner(cfg.JWTSecret).Issue(auth.Identity{
				Subject: subject,
				Role:    auth.Role(role),
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(auth.RolePatient), "patient, doctor or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
