package cmd

import (
	"fmt"
	"time"

	"blinklean/internal/api"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <phone>",
	Short: "Issue a requester bearer token for testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		tok, err := api.NewTokenAuth(cfg.API.Auth.JWTSecret).Issue(args[0], ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
