package cmd

import (
	"context"
	"fmt"
	"time"

	"blinklean/internal/logging"
	"blinklean/internal/repository"
	"blinklean/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Process due reconcile tasks once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		var client *redis.Client
		if e.cfg.Redis.Address != "" {
			client = repository.NewRedisClient(e.cfg.Redis)
			defer client.Close()
			if err := repository.Ping(ctx, client); err != nil {
				e.logger.Warn().Err(err).Msg("redis unavailable; dead letters stay in sqlite only")
				client = nil
			}
		}

		rec := worker.NewReconciler(e.db, e.db, e.db, client,
			worker.RetryPolicyFromConfig(e.cfg.Reconcile),
			e.cfg.Reconcile.PollInterval,
			logging.Component(e.logger, "reconciler"),
		)
		n, err := rec.RunOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "processed %d task(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
