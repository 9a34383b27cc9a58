// Package cmd implements the catalog command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/di"
)

var (
	flags    config.Flags
	jsonOut  bool
	injector *do.RootScope
	catalog  *di.Catalog
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage a tagged-file catalog",
	Long: `catalog stores file records, a tag hierarchy, locations and saved
searches, and answers criteria queries over the files.

Configuration comes from flags, then environment variables (DATA_PATH,
STORE_BACKEND, LOG_LEVEL, SEARCH_ENABLED, BULK_WRITE_SIZE), then a .env
file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		injector = di.NewContainer(flags)
		var err error
		catalog, err = di.Bootstrap(injector)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if injector != nil {
			_ = injector.Shutdown()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if injector != nil {
			_ = injector.Shutdown()
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.DataPath, "data", "", "catalog data directory")
	pf.StringVar(&flags.Backend, "backend", "", "storage backend (badger or sqlite)")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.Env, "env", "", "environment (development, staging, production)")
	pf.StringVar(&flags.SearchEnabled, "search", "", "enable quick search index (true or false)")
	pf.StringVar(&flags.BulkWriteSize, "bulk-size", "", "records per bulk write transaction")
	pf.StringVar(&flags.EnvFile, "env-file", "", "path to a .env file")
	pf.BoolVar(&jsonOut, "json", false, "print JSON instead of text")
}
