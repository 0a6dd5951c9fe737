package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recipebox/catalog"
	"recipebox/viewmodel"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories [filter]",
		Short: "List recipe categories",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			categories := a.catalog.ListCategories(cmd.Context())
			if len(args) == 1 {
				categories = catalog.FilterCategories(categories, args[0])
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), categories)
			}
			renderCategories(cmd.OutOrStdout(), categories)
			return nil
		}),
	}
}

func newSearchCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search recipes by name",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			recipes := a.catalog.SearchRecipes(cmd.Context(), strings.Join(args, " "))
			return outputPage(cmd, viewmodel.Paginate(viewmodel.Cards(recipes, a.favs), page))
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func newCategoryCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "category <name>",
		Short: "List the recipes in a category",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			recipes := a.catalog.FilterByCategory(cmd.Context(), args[0])
			return outputPage(cmd, viewmodel.Paginate(viewmodel.Cards(recipes, a.favs), page))
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe with its ingredients",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			recipe := a.catalog.GetRecipeByID(cmd.Context(), args[0])
			if recipe == nil {
				return fmt.Errorf("recipe %s not found", args[0])
			}
			detail := viewmodel.NewDetail(*recipe, a.favs)
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), detail)
			}
			renderDetail(cmd.OutOrStdout(), detail)
			return nil
		}),
	}
}

func outputPage(cmd *cobra.Command, page viewmodel.Page) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), page)
	}
	renderPage(cmd.OutOrStdout(), page)
	return nil
}
