package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-topic study performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			summary, err := rt.manager.GetPerformanceSummary(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("load performance summary: %w", err)
			}
			if len(summary) == 0 {
				fmt.Println("No study history yet.")
				return nil
			}

			bold := color.New(color.Bold)
			for _, performance := range summary {
				_, _ = bold.Println(performance.TopicTitle)
				fmt.Printf("  Sessions: %d, questions: %d/%d correct\n",
					performance.TotalSessions, performance.TotalCorrect, performance.TotalQuestions)
				fmt.Printf("  Average score: %.0f%%, estimated retention: %.0f%%\n",
					performance.AverageScore*100, performance.RetentionScore*100)
				if performance.LastStudiedAt != nil {
					fmt.Printf("  Last studied:  %s\n", performance.LastStudiedAt.Format("2006-01-02"))
				}
				if performance.NextDueAt != nil {
					due := performance.NextDueAt.Format("2006-01-02")
					if performance.NextDueAt.Before(time.Now()) {
						color.Yellow("  Next review:   %s (due now)", due)
					} else {
						fmt.Printf("  Next review:   %s (every %d days)\n", due, performance.IntervalDays)
					}
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
