package main

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the rating summary",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	dashboard, err := svc.DashboardService.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Responses: %d\n", dashboard.TotalResponses)
	for _, r := range dashboard.Ratings {
		cmd.Printf("%s\t%s\n", r.QuestionID, r.Text)
		cmd.Printf("  n=%d avg=%s median=%s mode=%s (%d) high=%s low=%s\n",
			r.Count, r.Average, r.Median, r.Mode.Value, r.Mode.Count, r.HighShare, r.LowShare)
	}
	cmd.Printf("Comments: %d\n", len(dashboard.Comments))
	return nil
}
