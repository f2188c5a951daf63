package main

import (
	"github.com/spf13/cobra"

	"feedbackdesk/internal/app"
	"feedbackdesk/internal/config"
)

// svc is opened before every subcommand and closed after it.
var svc *app.App

var rootCmd = &cobra.Command{
	Use:           "surveyctl",
	Short:         "Operate the feedback survey store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		a, err := app.New(cmd.Context(), cfg, cfg.NewLogger())
		if err != nil {
			return err
		}
		svc = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if svc == nil {
			return nil
		}
		err := svc.Close(cmd.Context())
		svc = nil
		return err
	},
}
