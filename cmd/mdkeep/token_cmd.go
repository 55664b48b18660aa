package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xxxsen/mdkeep/internal/pkg/jwt"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		client string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "issue a bearer token for the serve API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("jwt_secret is not configured")
			}
			if ttl <= 0 {
				ttl = cfg.JWTTTL()
			}
			token, err := jwt.GenerateToken(client, []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "cli", "name recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default jwt_ttl_hours)")
	return cmd
}
