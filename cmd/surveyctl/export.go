package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedbackdesk/internal/service"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every response as CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", service.ExportFileName, "output file, - for stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportOut == "-" {
		_, err := svc.ExportService.WriteCSV(cmd.Context(), cmd.OutOrStdout())
		return err
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	rows, err := svc.ExportService.WriteCSV(cmd.Context(), f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	cmd.Printf("Exported %d responses to %s\n", rows, exportOut)
	return nil
}
