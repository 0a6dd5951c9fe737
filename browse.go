package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"recipebox/browse"
	"recipebox/viewmodel"
)

const browseHelp = `commands:
  s <term>      search by name (clears the category filter)
  c <category>  filter by category ("all" clears it)
  n / p         next / previous page
  g <page>      go to page
  fav <id>      add a listed recipe to favourites
  unfav <id>    remove a favourite
  clear         clear the search term
  q             quit`

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively search and page through recipes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return runBrowse(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
		}),
	}
}

func runBrowse(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	var mu sync.Mutex
	locked := func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		f()
	}

	render := func(st browse.State) {
		if st.Loading {
			locked(func() { fmt.Fprintln(out, dimStyle.Render("loading...")) })
			return
		}
		page := viewmodel.Paginate(viewmodel.Cards(st.Results, a.favs), st.Page)
		locked(func() {
			heading := "All recipes"
			if st.Category != browse.AllCategories {
				heading = st.Category + " recipes"
			} else if st.Term != "" {
				heading = fmt.Sprintf("Results for %q", st.Term)
			}
			fmt.Fprintln(out, titleStyle.Render(heading))
			renderPage(out, page)
		})
	}

	session := browse.New(a.catalog, browse.OnChange(render), browse.WithMetrics(a.metrics))
	defer session.Wait()

	locked(func() { fmt.Fprintln(out, dimStyle.Render(browseHelp)) })
	session.Start(ctx)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		verb, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "":
		case "q", "quit", "exit":
			return nil
		case "s", "search":
			session.Search(ctx, arg)
		case "c", "category":
			session.SelectCategory(ctx, arg)
		case "clear":
			session.ClearSearch(ctx)
		case "n", "next":
			session.NextPage()
		case "p", "prev":
			session.PrevPage()
		case "g", "page":
			n, err := strconv.Atoi(arg)
			if err != nil {
				locked(func() { fmt.Fprintln(out, "page must be a number") })
				continue
			}
			session.SetPage(n)
		case "fav":
			recipe := a.catalog.GetRecipeByID(ctx, arg)
			if recipe == nil {
				locked(func() { fmt.Fprintf(out, "recipe %s not found\n", arg) })
				continue
			}
			a.favs.Add(ctx, *recipe)
			locked(func() { fmt.Fprintf(out, "%s %s\n", heart(true), recipe.Name) })
		case "unfav":
			a.favs.Remove(ctx, arg)
			locked(func() { fmt.Fprintf(out, "removed %s\n", arg) })
		case "h", "help", "?":
			locked(func() { fmt.Fprintln(out, browseHelp) })
		default:
			locked(func() { fmt.Fprintf(out, "unknown command %q (h for help)\n", verb) })
		}
	}
	return scanner.Err()
}
