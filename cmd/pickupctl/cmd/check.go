package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blinklean/internal/api"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var checkCmd = &cobra.Command{
	Use:   "check <pincode>",
	Short: "Check pincode eligibility against a running gRPC API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dial %s: %w", addr, err)
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		e, err := api.NewSettlementClient(conn).CheckEligibility(ctx, &api.CheckEligibilityRequest{Pincode: args[0]})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	},
}

func init() {
	checkCmd.Flags().String("addr", "localhost:8081", "gRPC API address")
	rootCmd.AddCommand(checkCmd)
}
