package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/reel/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List video categories",
	Long:  "Enumerate the configured catalog and show each category with its video count.",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the initial category folders",
	Args:  cobra.NoArgs,
	RunE:  runCatalogInit,
}

func init() {
	addLocalFlags(catalogCmd)
	catalogCmd.PersistentFlags().StringVar(&videosRootOverride, "videos", "",
		"Videos root folder (overrides config and REEL_VIDEOS_ROOT)")

	catalogCmd.AddCommand(catalogInitCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := resolveLocalConfig()
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg, false)
	if err != nil {
		return err
	}

	categories := resolver.List(ctx)
	out := cmd.OutOrStdout()

	if jsonOutput {
		items := make([]map[string]any, len(categories))
		total := 0
		for i, c := range categories {
			items[i] = map[string]any{
				"name":        c.Name,
				"video_count": len(c.Videos),
			}
			total += len(c.Videos)
		}
		return printJSON(out, map[string]any{
			"categories":   items,
			"total":        len(items),
			"total_videos": total,
		})
	}

	if len(categories) == 0 {
		fmt.Fprintln(out, "No categories with videos found.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "CATEGORY\tVIDEOS")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%d\n", c.Name, len(c.Videos))
	}
	w.Flush()

	return nil
}

func runCatalogInit(cmd *cobra.Command, args []string) error {
	cfg, err := resolveLocalConfig()
	if err != nil {
		return err
	}
	if cfg.Catalog.UsesS3() {
		return fmt.Errorf("catalog init only applies to a filesystem catalog")
	}

	c := cfg.Catalog
	if err := catalog.EnsureFolders(c.Root, c.InitialCategories, c.Extensions); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"root":       c.Root,
			"categories": c.InitialCategories,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %d category folders under %s\n",
		len(c.InitialCategories), c.Root)
	return nil
}
