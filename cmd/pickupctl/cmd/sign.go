package cmd

import (
	"encoding/json"

	"blinklean/internal/gateway"
	"blinklean/internal/models"

	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <order_id> <payment_id>",
	Short: "Print a signed payment callback body",
	Long: `Signs order_id|payment_id with the configured gateway key secret and prints the
JSON body accepted by POST /api/v1/payments/verify. Useful with the stub gateway.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		cb := models.PaymentCallback{
			OrderID:   args[0],
			PaymentID: args[1],
			Signature: gateway.NewSigner(cfg.Payment.KeySecret).Sign(args[0], args[1]),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cb)
	},
}

func init() {
	rootCmd.AddCommand(signCmd)
}
