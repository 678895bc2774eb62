package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// seedResult counts what a seed run wrote.
type seedResult struct {
	roles    int
	settings int
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed roles and default settings",
		Long: `Writes the built-in role catalog and the default password policy
settings. This command is idempotent: roles are overwritten with the catalog
and existing settings are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	b, err := openBackend(ctx, configFile)
	if err != nil {
		return err
	}
	defer b.Close(context.Background())

	res, err := seedAll(ctx, b)
	if err != nil {
		return err
	}
	cmd.Printf("Seeded %d roles, created %d settings\n", res.roles, res.settings)
	return nil
}

func seedAll(ctx context.Context, b *backend) (seedResult, error) {
	var res seedResult
	n, err := b.engine.SeedRoles(ctx)
	if err != nil {
		return res, oops.Code("SEED_FAILED").With("operation", "seed roles").Wrap(err)
	}
	res.roles = n

	n, err = b.engine.SeedSettings(ctx)
	if err != nil {
		return res, oops.Code("SEED_FAILED").With("operation", "seed settings").Wrap(err)
	}
	res.settings = n

	b.logger.Info("seed complete", "roles", res.roles, "settings_created", res.settings)
	return res, nil
}
