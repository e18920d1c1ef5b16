package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert conversations and message history from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			repo, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := repo.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}
			if err := repo.Seed(ctx, fixtures); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d conversations, %d messages\n",
				color.New(color.FgGreen).Sprint("SEEDED"), len(fixtures.Conversations), len(fixtures.Messages))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadFixtures reads and checks a fixture file. Every message must belong to
// a conversation declared in the same file.
func loadFixtures(path string) (models.Fixtures, error) {
	var f models.Fixtures
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	known := make(map[string]bool, len(f.Conversations))
	for _, c := range f.Conversations {
		if c.ID == "" {
			return f, fmt.Errorf("conversation without id")
		}
		known[c.ID] = true
	}
	for i, m := range f.Messages {
		if !known[m.ConversationID] {
			return f, fmt.Errorf("message %d: unknown conversation %q", i, m.ConversationID)
		}
		if !m.SenderRole.Valid() {
			return f, fmt.Errorf("message %d: unknown sender role %q", i, m.SenderRole)
		}
	}
	return f, nil
}
