package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"recipebox/models"
	"recipebox/viewmodel"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	heartStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(7)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func heart(favourited bool) string {
	if favourited {
		return heartStyle.Render("♥")
	}
	return " "
}

func renderCards(w io.Writer, cards []viewmodel.Card) {
	for _, c := range cards {
		meta := strings.Join(nonEmpty(c.Recipe.Category, c.Recipe.Area), " | ")
		line := fmt.Sprintf("%s %s %s  %s", heart(c.Favourited), idStyle.Render(c.Recipe.ID),
			c.Recipe.Name, dimStyle.Render(fmt.Sprintf("★ %.1f", c.Rating)))
		if meta != "" {
			line += "  " + dimStyle.Render(meta)
		}
		fmt.Fprintln(w, line)
	}
}

func renderPage(w io.Writer, page viewmodel.Page) {
	if page.Total == 0 {
		fmt.Fprintln(w, dimStyle.Render("No recipes found."))
		return
	}
	renderCards(w, page.Items)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("page %d/%d · %d recipes", page.Number, page.TotalPages, page.Total)))
}

func renderCategories(w io.Writer, categories []models.Category) {
	if len(categories) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No categories found."))
		return
	}
	for _, c := range categories {
		desc := c.Description
		if i := strings.IndexAny(desc, ".\n"); i > 0 {
			desc = desc[:i+1]
		}
		fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(c.Name), dimStyle.Render(desc))
	}
}

func renderDetail(w io.Writer, d viewmodel.Detail) {
	r := d.Recipe
	fmt.Fprintf(w, "%s %s\n", heart(d.Favourited), titleStyle.Render(r.Name))
	if meta := strings.Join(nonEmpty(r.Category, r.Area), " | "); meta != "" {
		fmt.Fprintln(w, dimStyle.Render(meta))
	}
	if len(d.Ingredients) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Ingredients"))
		for _, line := range d.Ingredients {
			fmt.Fprintln(w, "  • "+line)
		}
	}
	if r.Instructions != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Instructions"))
		fmt.Fprintln(w, lipgloss.NewStyle().Width(80).Render(strings.TrimSpace(r.Instructions)))
	}
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
