package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"blinklean/internal/events"
	"blinklean/internal/logging"
	"blinklean/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Inspect and change scrap rates",
}

var ratesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active scrap rates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		rates, err := service.NewRateService(e.db, events.NewEventBus(), nil).ListRates(cmd.Context())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMATERIAL\tRATE/KG\tUPDATED")
		for _, r := range rates {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.MaterialName, r.RatePerKg.StringFixed(2), r.LastUpdated.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var ratesSetCmd = &cobra.Command{
	Use:   "set <id> <rate_per_kg>",
	Short: "Set the per-kg rate of a material",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid rate id %q", args[0])
		}
		rate, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", args[1], err)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		updated, err := service.NewRateService(e.db, events.NewEventBus(), logging.Component(e.logger, "rates")).
			UpdateRate(cmd.Context(), id, rate)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s per kg\n", updated.MaterialName, updated.RatePerKg.StringFixed(2))
		return nil
	},
}

func init() {
	ratesCmd.AddCommand(ratesListCmd, ratesSetCmd)
	rootCmd.AddCommand(ratesCmd)
}
