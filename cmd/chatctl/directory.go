package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/linesmerrill/clinic-messaging-api/messaging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// DirectoryCmd returns the directory command
func DirectoryCmd() *cobra.Command {
	var (
		viewerID string
		role     string
		query    string
	)

	cmd := &cobra.Command{
		Use:   "directory",
		Short: "Print a viewer's conversation directory, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer := models.Viewer{ID: viewerID, Role: models.Role(role)}
			if !viewer.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			repo, closeFn, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			convs, err := repo.LoadConversations(ctx, viewer)
			if err != nil {
				return err
			}
			renderDirectory(cmd.OutOrStdout(), messaging.Filter(messaging.SortByRecency(convs), query))
			return nil
		},
	}
	cmd.Flags().StringVar(&viewerID, "viewer", "", "viewer id")
	cmd.Flags().StringVar(&role, "role", "", "viewer role (clinician|patient)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name or specialty/condition")
	_ = cmd.MarkFlagRequired("viewer")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func renderDirectory(w io.Writer, convs []models.Conversation) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations")
		return
	}
	for _, c := range convs {
		presence := color.New(color.FgHiBlack).Sprint("offline")
		if c.Online {
			presence = color.New(color.FgGreen).Sprint("online")
		}
		fmt.Fprintf(w, "%s  %s (%s) [%s]", c.ID, c.Counterpart.Name, c.Counterpart.Secondary(), presence)
		if c.UnreadCount > 0 {
			fmt.Fprintf(w, " %s", color.New(color.FgYellow, color.Bold).Sprintf("%d unread", c.UnreadCount))
		}
		fmt.Fprintln(w)
		if last, ok := c.LastMessage(); ok {
			fmt.Fprintf(w, "    %s  %s: %s\n", last.SentAt.Format(time.RFC822), last.SenderRole, preview(last))
		}
	}
}

func preview(m models.Message) string {
	text := m.Text
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	if m.Attachment != nil {
		text += fmt.Sprintf(" [%s, %s]", m.Attachment.DisplayName, m.Attachment.SizeLabel)
	}
	return text
}
