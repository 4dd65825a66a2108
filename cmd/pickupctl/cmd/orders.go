package cmd

import (
	"fmt"

	"blinklean/internal/events"
	"blinklean/internal/logging"
	"blinklean/internal/service"

	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage gateway payment orders",
}

var ordersFailCmd = &cobra.Command{
	Use:   "fail <order_id>",
	Short: "Mark a pending gateway order as failed",
	Long: `Closes out a pending order the gateway reported as failed. Only pending
orders change; a verified or already failed order is reported as a conflict.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		payments := service.NewPaymentService(service.PaymentDeps{
			Bookings: e.db,
			Payments: e.db,
			Users:    e.db,
			EventBus: events.NewEventBus(),
		}, e.cfg.Payment, logging.Component(e.logger, "payments"))

		if err := payments.MarkOrderFailed(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "order %s marked failed\n", args[0])
		return nil
	},
}

func init() {
	ordersCmd.AddCommand(ordersFailCmd)
	rootCmd.AddCommand(ordersCmd)
}
