package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fkobayashi/studyagent/internal/study"
)

func newScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the scheduled review configuration",
	}
	cmd.AddCommand(newScheduleShowCommand(), newScheduleSetCommand(), newScheduleDisableCommand())
	return cmd
}

func newScheduleShowCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the user's review schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			config, err := rt.schedules.Get(cmd.Context(), userID)
			var notFound *study.NotFoundError
			if errors.As(err, &notFound) {
				fmt.Println("No schedule configured. Set one with `studyagent schedule set`.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("load schedule: %w", err)
			}

			status := "enabled"
			if !config.Enabled {
				status = "disabled"
			}
			fmt.Printf("Schedule: %s\n", status)
			fmt.Printf("  Cadence:        %s\n", config.Cadence)
			fmt.Printf("  Preferred time: %s\n", config.PreferredTime)
			if config.Cadence != study.CadenceDaily {
				fmt.Printf("  Weekdays:       %s\n", config.Weekdays)
			}
			fmt.Printf("  Questions:      %d per session\n", config.QuestionsPerSession)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newScheduleSetCommand() *cobra.Command {
	var userID int64
	var cadence string
	var preferredTime string
	var weekdays string
	var questions int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Enable and configure scheduled reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedCadence := study.Cadence(cadence)
			switch parsedCadence {
			case study.CadenceDaily, study.CadenceWeekly, study.CadenceCustom:
			default:
				return fmt.Errorf("--cadence must be one of daily, weekly, custom")
			}
			if _, err := time.Parse("15:04", preferredTime); err != nil {
				return fmt.Errorf("--time must be in HH:MM format: %w", err)
			}
			if parsedCadence == study.CadenceCustom && weekdays == "" {
				return fmt.Errorf("--weekdays is required for a custom cadence")
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			config := &study.ScheduleConfig{
				UserID:              userID,
				Enabled:             true,
				Cadence:             parsedCadence,
				PreferredTime:       preferredTime,
				Weekdays:            strings.ToLower(weekdays),
				QuestionsPerSession: questions,
			}
			if err := rt.schedules.Upsert(cmd.Context(), config); err != nil {
				return fmt.Errorf("save schedule: %w", err)
			}

			fmt.Printf("Scheduled reviews enabled: %s at %s, %d questions per session.\n",
				cadence, preferredTime, questions)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&cadence, "cadence", "daily", "Review cadence: daily, weekly, or custom")
	cmd.Flags().StringVar(&preferredTime, "time", "09:00", "Earliest review time of day (HH:MM, user's timezone)")
	cmd.Flags().StringVar(&weekdays, "weekdays", "", "Comma-separated weekdays for a custom cadence")
	cmd.Flags().IntVar(&questions, "questions", 5, "Questions per scheduled session")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newScheduleDisableCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "disable",
		Short: "Disable scheduled reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if err := rt.schedules.Disable(cmd.Context(), userID); err != nil {
				return fmt.Errorf("disable schedule: %w", err)
			}
			fmt.Println("Scheduled reviews disabled. Your performance history is kept.")
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
