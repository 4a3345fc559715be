package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hyperengineering/reel/internal/config"
	"github.com/hyperengineering/reel/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPathOverride     string
	videosRootOverride string
	jsonOutput         bool
)

// addLocalFlags registers the flags shared by every offline subcommand.
func addLocalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&dbPathOverride, "db", "",
		"Database path (overrides config and REEL_DB_PATH)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
}

// resolveLocalConfig loads configuration for offline commands and applies
// flag overrides on top of it.
func resolveLocalConfig() (*config.Config, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dbPathOverride != "" {
		cfg.Database.Path = dbPathOverride
	}
	if videosRootOverride != "" {
		cfg.Catalog.Root = videosRootOverride
		cfg.Catalog.S3 = config.S3CatalogConfig{}
	}
	return cfg, nil
}

// openStore opens the database named by the local config.
func openStore() (*store.SQLiteStore, error) {
	cfg, err := resolveLocalConfig()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(cfg.Database.Path)
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
