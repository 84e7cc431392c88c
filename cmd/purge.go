package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	purgeDays  int
	yesConfirm bool
)

// purgeCmd deletes old terminal records.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete terminal records older than the retention window",
	Long: `Deletes updated, skipped, error, ambiguous and excluded records staged
before the retention cutoff, then line items left without a record.
New and pending records are never purged.

Examples:
  # Use the configured retention (with interactive confirmation)
  ecomm-sync purge

  # Keep 30 days, non-interactive
  ecomm-sync purge --days 30 --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		cfg := a.cfg.Sync
		if purgeDays > 0 {
			cfg.RetentionDays = purgeDays
		}
		cutoff, ok := cfg.RetentionCutoff(time.Now().UTC())
		if !ok {
			return errors.New("retention is disabled; pass --days or set SYNC_RETENTION_DAYS")
		}

		a.logger.Info("Purge requested", zap.Time("cutoff", cutoff), zap.Int("days", cfg.RetentionDays))
		if !confirmDestructiveAction() {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		res, err := a.store.Purge(ctx, cutoff)
		if err != nil {
			return err
		}
		a.logger.Info("Purge finished",
			zap.Int64("records", res.Records),
			zap.Int64("line_items", res.LineItems),
		)
		return nil
	},
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

func init() {
	purgeCmd.Flags().IntVar(&purgeDays, "days", 0, "Override the configured retention in days")
	purgeCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	RootCmd.AddCommand(purgeCmd)
}
