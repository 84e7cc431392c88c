package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var runOpts passOptions

// runCmd runs a single reconciliation pass.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass",
	Long: `Purges expired records, gates new records by destination and pushes
every pending record to the CRM once.

Examples:
  # Full pass
  ecomm-sync run

  # Only process records that are already pending
  ecomm-sync run --skip-gate --skip-purge`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		summary, err := a.runPass(ctx, runOpts)
		if err != nil {
			return err
		}
		if summary != nil {
			printPassReport(a.logger, summary)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOpts.skipGate, "skip-gate", false, "Do not promote new records before the pass")
	runCmd.Flags().BoolVar(&runOpts.skipPurge, "skip-purge", false, "Do not purge expired records before the pass")
	RootCmd.AddCommand(runCmd)
}
