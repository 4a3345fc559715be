package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperengineering/reel/internal/types"
	"github.com/hyperengineering/reel/internal/viewed"
	"github.com/spf13/cobra"
)

var viewedCategory string

var viewedCmd = &cobra.Command{
	Use:   "viewed",
	Short: "Inspect and reset viewed history",
	Long:  "Show or clear the videos already surfaced to a user, per mode. Without --category the algorithmic mode is used.",
}

var viewedListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List videos already shown to a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewedList,
}

var viewedResetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Clear a user's viewed history for one mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runViewedReset,
}

func init() {
	addLocalFlags(viewedCmd)
	viewedCmd.PersistentFlags().StringVar(&viewedCategory, "category", "",
		"Category mode to act on (default: algorithmic mode)")

	viewedCmd.AddCommand(viewedListCmd)
	viewedCmd.AddCommand(viewedResetCmd)
}

// viewedMode maps the --category flag to a viewed-set mode.
func viewedMode() types.Mode {
	if viewedCategory == "" {
		return types.Algorithmic
	}
	return types.CategoryMode(viewedCategory)
}

func runViewedList(cmd *cobra.Command, args []string) error {
	userID := args[0]
	mode := viewedMode()
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	set, err := viewed.NewTracker(db).Viewed(ctx, userID, mode)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()

	if jsonOutput {
		return printJSON(out, map[string]any{
			"user_id": userID,
			"mode":    mode.String(),
			"videos":  paths,
			"total":   len(paths),
		})
	}

	if len(paths) == 0 {
		fmt.Fprintf(out, "No viewed videos for user %s (%s).\n", userID, mode)
		return nil
	}

	for _, p := range paths {
		fmt.Fprintln(out, p)
	}
	return nil
}

func runViewedReset(cmd *cobra.Command, args []string) error {
	userID := args[0]
	mode := viewedMode()
	ctx := context.Background()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cleared, err := viewed.NewTracker(db).Reset(ctx, userID, mode)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"user_id": userID,
			"mode":    mode.String(),
			"cleared": cleared,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d viewed records for user %s (%s)\n", cleared, userID, mode)
	return nil
}
