package main

import (
	"fmt"
	"io/fs"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fkobayashi/studyagent/schemas"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			var files []string
			if err := fs.WalkDir(schemas.Migrations, "migrations", func(path string, entry fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !entry.IsDir() {
					files = append(files, path)
				}
				return nil
			}); err != nil {
				return fmt.Errorf("list migrations: %w", err)
			}
			sort.Strings(files)

			for _, file := range files {
				contents, err := fs.ReadFile(schemas.Migrations, file)
				if err != nil {
					return fmt.Errorf("read migration %s: %w", file, err)
				}
				if _, err := rt.db.ExecContext(cmd.Context(), string(contents)); err != nil {
					return fmt.Errorf("apply migration %s: %w", file, err)
				}
				fmt.Printf("Applied %s\n", file)
			}
			return nil
		},
	}
}
