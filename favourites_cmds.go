package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"recipebox/models"
	"recipebox/storage"
	"recipebox/viewmodel"
)

func newFavouritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favorites", "fav"},
		Short:   "Manage favourite recipes",
	}
	cmd.AddCommand(
		newFavListCmd(),
		newFavAddCmd(),
		newFavRemoveCmd(),
		newFavKeysCmd(),
		newFavWatchCmd(),
	)
	return cmd
}

func newFavListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favourites in the order they were added",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return outputFavourites(cmd.OutOrStdout(), a.favs.List(), a.favs)
		}),
	}
}

func newFavAddCmd() *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "add [id]",
		Short: "Add a recipe by catalog id, or from a JSON file with --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			var recipe models.Recipe
			switch {
			case fromFile != "":
				data, err := readInput(cmd, fromFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &recipe); err != nil {
					return fmt.Errorf("parse recipe: %w", err)
				}
				if recipe.ID == "" {
					return fmt.Errorf("recipe has no idMeal")
				}
			case len(args) == 1:
				found := a.catalog.GetRecipeByID(cmd.Context(), args[0])
				if found == nil {
					return fmt.Errorf("recipe %s not found", args[0])
				}
				recipe = *found
			default:
				return fmt.Errorf("a recipe id or --file is required")
			}

			if a.favs.Add(cmd.Context(), recipe) {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to favourites\n", recipe.Name, recipe.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already a favourite\n", recipe.ID)
			}
			warnIfNotPersistent(cmd, a)
			return nil
		}),
	}
	cmd.Flags().StringVar(&fromFile, "file", "", "Read the recipe JSON from a file (- for stdin)")
	return cmd
}

func newFavRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a recipe from favourites",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if a.favs.Remove(cmd.Context(), args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favourites\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not a favourite\n", args[0])
			}
			warnIfNotPersistent(cmd, a)
			return nil
		}),
	}
}

func newFavKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the storage keys (profiles) holding favourites",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			keys, err := a.slot.Keys(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), keys)
			}
			for _, k := range keys {
				marker := "  "
				if k == a.cfg.Favourites.Key {
					marker = "* "
				}
				fmt.Fprintln(cmd.OutOrStdout(), marker+k)
			}
			return nil
		}),
	}
}

func newFavWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reprint favourites whenever another process changes them",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			watcher, ok := a.slot.(storage.Watcher)
			if !ok {
				return fmt.Errorf("storage driver %q does not support watching", a.cfg.Storage.Driver)
			}
			changes, err := watcher.Watch(cmd.Context(), a.cfg.Favourites.Key)
			if err != nil {
				return err
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			cancel := a.favs.Subscribe(func(recipes []models.Recipe) {
				mu.Lock()
				defer mu.Unlock()
				_ = outputFavourites(out, recipes, a.favs)
			})
			defer cancel()

			_ = outputFavourites(out, a.favs.List(), a.favs)
			for range changes {
				a.favs.Load(cmd.Context())
			}
			return nil
		}),
	}
}

func outputFavourites(w io.Writer, recipes []models.Recipe, favs viewmodel.Favourites) error {
	cards := viewmodel.Cards(recipes, favs)
	if jsonOutput {
		return printJSON(w, cards)
	}
	if len(cards) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No favourites yet."))
		return nil
	}
	renderCards(w, cards)
	return nil
}

func warnIfNotPersistent(cmd *cobra.Command, a *app) {
	if !a.favs.Persistent() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: favourites storage is unavailable; changes last only for this session")
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
