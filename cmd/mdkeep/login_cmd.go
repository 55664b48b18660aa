package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxxsen/mdkeep/internal/service"
)

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var baseURL, apiKey string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "store the API base URL and key in the local settings database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			creds, closeFn, err := openCredentials(cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := creds.Save(cmd.Context(), service.Credentials{APIBaseURL: baseURL, APIKey: apiKey}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "credentials saved to %s\n", cfg.DBPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "bookmark API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "bookmark API key")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("api-key")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			creds, closeFn, err := openCredentials(cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := creds.Clear(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "credentials removed")
			return nil
		},
	}
}

func newWhoamiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "show stored credentials with the key masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			creds, closeFn, err := openCredentials(cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			stored, err := creds.Load(cmd.Context())
			if err != nil {
				return err
			}
			if stored.APIBaseURL == "" && stored.APIKey == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no credentials stored")
				return nil
			}
			masked := stored.Masked()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "base url: %s\napi key:  %s\n", masked.APIBaseURL, masked.APIKey)
			return nil
		},
	}
}
