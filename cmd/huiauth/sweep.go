package main

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const defaultSweepTimeout = time.Minute

// NewSweepCmd creates the sweep-sessions subcommand.
func NewSweepCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep-sessions",
		Short: "Delete expired sessions",
		Long: `Deletes every session whose expiry has passed. Useful as a cron job
when the server runs without a background sweep interval.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			b, err := openBackend(ctx, configFile)
			if err != nil {
				return err
			}
			defer b.Close(context.Background())

			n, err := b.engine.SweepExpiredSessions(ctx)
			if err != nil {
				return oops.Code("SWEEP_FAILED").Wrap(err)
			}
			cmd.Printf("Deleted %d expired sessions\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSweepTimeout, "timeout for the sweep")

	return cmd
}
