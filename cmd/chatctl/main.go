package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linesmerrill/clinic-messaging-api/config"
	"github.com/linesmerrill/clinic-messaging-api/databases"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Operator tool for the clinic messaging service",
	Long: `chatctl seeds conversation fixtures, inspects a viewer's directory
and issues identity tokens for local testing.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load(".env")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(SeedCmd(), DirectoryCmd(), TokenCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect opens the configured database. The caller must call the returned
// close function.
func connect(ctx context.Context) (*databases.MessagingRepository, func(), error) {
	conf := config.New()
	client, err := databases.NewClient(conf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	return databases.NewMessagingRepository(databases.NewDatabase(conf, client)), closeFn, nil
}
