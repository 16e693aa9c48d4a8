package jobctl

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobhive/jobhive/internal/di"
)

type options struct {
	envFile string
	timeout time.Duration
}

// NewRootCommand builds the jobctl CLI: operational tooling for the schema
// and the bootstrap admin, run out of band from the services.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "jobctl",
		Short: "Operational tooling for the job platform database",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newStatusCommand(opts),
	)
	return cmd
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := loadRunner(opts.envFile)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			if err := runner.Migrate(); err != nil {
				return err
			}
			cmd.Println("schema migration applied")
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Ensure the bootstrap admin account exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := loadRunner(opts.envFile)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			if err := runner.Seed(email, password); err != nil {
				return err
			}
			cmd.Println("bootstrap admin ensured")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "admin-email", "", "bootstrap admin email (defaults to BOOTSTRAP_ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "admin-password", "", "bootstrap admin password (defaults to BOOTSTRAP_ADMIN_PASSWORD)")
	return cmd
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := loadRunner(opts.envFile)
			if err != nil {
				return err
			}
			defer func() { _ = runner.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			if err := runner.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}
			cmd.Println("database reachable")
			return nil
		},
	}
}

func loadRunner(envFile string) (*di.MigrationRunner, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}
	return di.InitializeMigrationRunner()
}
