package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// statusCmd prints record counts or one record.
var statusCmd = &cobra.Command{
	Use:   "status [transaction-id]",
	Short: "Show record counts per status, or one record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		var out any
		if len(args) == 1 {
			out, err = a.store.Get(ctx, args[0])
		} else {
			counts, cerr := a.store.CountByStatus(ctx)
			named := make(map[string]int64, len(counts))
			for status, n := range counts {
				named[status.String()] = n
			}
			out, err = named, cerr
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
