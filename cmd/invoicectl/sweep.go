package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicepro/internal/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one overdue/expiry sweep and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		application, err := app.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.Sweeper().RunOnce(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "overdue=%d expired=%d idempotency_keys=%d\n",
			res.Overdue, res.Expired, res.KeysRemoved)
		return err
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
