package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anthurium-ai/personal-finance/internal/importer"
)

func importCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "import --user-id N <file.csv>",
		Short: "Import a CSV of transactions for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user-id is required")
			}
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if _, err := st.UserByID(ctx, userID); err != nil {
				return fmt.Errorf("user %d: %w", userID, err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := importer.ImportCSV(ctx, st, userID, f, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rows=%d inserted=%d skipped=%d\n", res.Rows, res.Inserted, res.Skipped)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "owner of the imported transactions")
	return cmd
}
