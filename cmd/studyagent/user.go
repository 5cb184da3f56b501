package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserRegisterCommand())
	return cmd
}

func newUserRegisterCommand() *cobra.Command {
	var chatID int64
	var username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a user by their chat ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			user, err := rt.users.GetOrCreateByChatID(cmd.Context(), chatID, username)
			if err != nil {
				return fmt.Errorf("register user: %w", err)
			}

			fmt.Printf("User %d registered for chat %d.\n", user.ID, user.ChatID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "Chat ID that receives notifications")
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	_ = cmd.MarkFlagRequired("chat-id")
	return cmd
}
