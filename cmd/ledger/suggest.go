package main

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func suggestCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "suggest --user-id N <description>",
		Short: "Print category suggestions for a description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user-id is required")
			}
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			sug, cleanup, err := newSuggester(st)
			if err != nil {
				return err
			}
			defer cleanup()

			res := sug.Suggest(cmd.Context(), userID, strings.Join(args, " "))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"categories": res.Categories,
				"regime":     res.Regime,
				"history":    res.History,
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user whose history is used")
	return cmd
}
