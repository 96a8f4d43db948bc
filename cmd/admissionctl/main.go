// Package main provides admissionctl, the operator CLI for the admission API.
package main

import (
	"fmt"
	"os"

	"github.com/sahilchouksey/admission-api/config"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "admissionctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Operate the admission database",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `admissionctl runs maintenance tasks against the admission database:
migrations, seeding, bulk hierarchy imports, admin bootstrap, token issuing
and application counter reconciliation.

Connection settings come from the same environment (or .env) as the API.`,
	}

	cmd.AddCommand(
		migrateCmd(),
		seedCmd(),
		importCmd(),
		createAdminCmd(),
		checkAdminCmd(),
		issueTokenCmd(),
		reconcileCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// openStore loads the environment and opens a migrated store. Each command owns
// the store it opens and closes it when done.
func openStore() (*database.GORMStore, *config.EnviornmentVariable, error) {
	if err := config.LoadENV(); err != nil {
		return nil, nil, fmt.Errorf("load env: %w", err)
	}

	env, err := config.Get()
	if err != nil {
		return nil, nil, err
	}

	store, err := database.Open(env)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := store.Init(); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return store, env, nil
}
