package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"hirelens-backend/internal/shared/auth"
	"hirelens-backend/internal/shared/config"
)

func newTokenCmd() *cobra.Command {
	var (
		email string
		name  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <recruiter-id>",
		Short: "Mint a recruiter bearer token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			keys, err := auth.NewKeys(cfg.JWTSecret, !cfg.IsDevLike())
			if err != nil {
				return err
			}
			claims := auth.Claims{Sub: args[0], Email: email, Name: name}
			if ttl > 0 {
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
			}
			token, err := keys.Sign(claims)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recruiter email claim")
	cmd.Flags().StringVar(&name, "name", "", "recruiter display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default 24h)")
	return cmd
}
