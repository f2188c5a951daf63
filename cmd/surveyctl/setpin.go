package main

import (
	"github.com/spf13/cobra"

	"feedbackdesk/internal/service"
)

var (
	pinCurrent string
	pinNew     string
)

var setPINCmd = &cobra.Command{
	Use:   "set-pin",
	Short: "Change the survey access PIN",
	RunE:  runSetPIN,
}

func init() {
	setPINCmd.Flags().StringVar(&pinCurrent, "current", "", "current PIN")
	setPINCmd.Flags().StringVar(&pinNew, "new", "", "new PIN")
	rootCmd.AddCommand(setPINCmd)
}

func runSetPIN(cmd *cobra.Command, _ []string) error {
	if err := svc.AdminService.ChangeAccessPIN(cmd.Context(), pinCurrent, pinNew, pinNew); err != nil {
		return err
	}
	cmd.Println(service.MsgPINUpdated)
	return nil
}
