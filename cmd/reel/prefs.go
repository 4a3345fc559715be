package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/reel/internal/ledger"
	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs <user-id>",
	Short: "Show a user's category preference scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrefs,
}

func init() {
	addLocalFlags(prefsCmd)
}

func runPrefs(cmd *cobra.Command, args []string) error {
	userID := args[0]
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	prefs, err := ledger.New(db).Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("read preferences: %w", err)
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		return printJSON(out, map[string]any{
			"user_id":     userID,
			"preferences": prefs,
		})
	}

	if len(prefs) == 0 {
		fmt.Fprintf(out, "No preferences recorded for user %s.\n", userID)
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "CATEGORY\tSCORE")
	for _, p := range prefs {
		fmt.Fprintf(w, "%s\t%.1f\n", p.Category, p.Score)
	}
	w.Flush()

	return nil
}
