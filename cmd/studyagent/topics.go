package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fkobayashi/studyagent/internal/github"
)

func newTopicsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage study topics",
	}
	cmd.AddCommand(newTopicsListCommand(), newTopicsSyncCommand())
	return cmd
}

func newTopicsListCommand() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics from the user's active repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			topics, err := rt.topics.ListByUser(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("list topics: %w", err)
			}
			if len(topics) == 0 {
				fmt.Println("No topics yet. Register a repository with `studyagent topics sync`.")
				return nil
			}

			for _, topic := range topics {
				fmt.Printf("%4d  %s  (synced %s)\n",
					topic.ID, topic.Title, topic.LastSyncedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTopicsSyncCommand() *cobra.Command {
	var userID int64
	var repoURL string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync topics from a GitHub repository of markdown notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			client := github.NewClient(rt.cfg.GitHub.Token)
			syncer := github.NewSyncer(client, rt.topics, rt.repositories)

			result, err := syncer.SyncRepository(cmd.Context(), userID, repoURL)
			if err != nil {
				return fmt.Errorf("sync repository: %w", err)
			}

			color.Green("Synced %s/%s: %d topics updated, %d files skipped",
				result.Repository.Owner, result.Repository.Name, result.Synced, result.Skipped)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID")
	cmd.Flags().StringVar(&repoURL, "repo", "", "GitHub repository URL")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
