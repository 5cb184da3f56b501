package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSweepCommand() *cobra.Command {
	var asOfFlag string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single due-review sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf := time.Now()
			if asOfFlag != "" {
				parsed, err := time.Parse(time.RFC3339, asOfFlag)
				if err != nil {
					return fmt.Errorf("parse --as-of: %w", err)
				}
				asOf = parsed
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			stats, err := rt.newSweeper(nil).RunDueSweep(cmd.Context(), asOf)
			if err != nil {
				return fmt.Errorf("run due sweep: %w", err)
			}

			fmt.Printf("Sweep finished as of %s\n", asOf.Format(time.RFC3339))
			fmt.Printf("  Due records:      %d\n", stats.Due)
			fmt.Printf("  Sessions started: %d\n", stats.Started)
			fmt.Printf("  Skipped:          %d\n", stats.Skipped)
			fmt.Printf("  Failed:           %d\n", stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "Sweep as of this RFC3339 instant instead of now")
	return cmd
}
