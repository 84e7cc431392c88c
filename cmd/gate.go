package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// gateCmd promotes new records without running a pass.
var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Promote new records by destination email activity",
	Long: `Moves new records of email-active destinations to pending and those of
inactive destinations to skipped. Pending records whose destination is no
longer active are excluded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		res, err := a.store.Gate(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		a.logger.Info("Gated new records",
			zap.Int64("promoted", res.Promoted),
			zap.Int64("skipped", res.Skipped),
			zap.Int64("excluded", res.Excluded),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(gateCmd)
}
