package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	jsonOutput bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recipebox",
		Short:         "Discover recipes from TheMealDB and keep a list of favourites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("storage-driver", "", "Storage backend (memory, file, sqlite, postgres, firestore, s3)")
	flags.String("storage-path", "", "Directory or database file for local storage backends")
	flags.Bool("ephemeral", false, "Keep favourites in memory for this run only")
	flags.String("profile", "", "Storage key holding this user's favourites")
	flags.String("mealdb-url", "", "Base URL of the recipe API")

	root.AddCommand(
		newServeCmd(),
		newCategoriesCmd(),
		newSearchCmd(),
		newCategoryCmd(),
		newShowCmd(),
		newFavouritesCmd(),
		newBrowseCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "recipebox: %v\n", err)
		os.Exit(1)
	}
}
