package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"recipebox/browse"
	"recipebox/catalog"
	"recipebox/favorites"
	"recipebox/viewmodel"
)

func GetHome(cat *catalog.Catalog, favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	home := cat.Home(r.Context())
	writeJSON(w, r, http.StatusOK, viewmodel.NewHome(home.Recipes, home.Categories, favs))
}

// GetCategories lists categories, optionally filtered by the "q" substring.
func GetCategories(cat *catalog.Catalog, w http.ResponseWriter, r *http.Request) {
	categories := cat.ListCategories(r.Context())
	if q := r.URL.Query().Get("q"); q != "" {
		categories = catalog.FilterCategories(categories, q)
	}
	writeJSON(w, r, http.StatusOK, categories)
}

// GetRecipes lists one page of recipes. A category other than "All" takes
// precedence over the "s" search term.
func GetRecipes(cat *catalog.Catalog, favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid 'page' query parameter", http.StatusBadRequest)
			return
		}
		page = n
	}

	category := strings.TrimSpace(query.Get("category"))
	var cards []viewmodel.Card
	if category != "" && !strings.EqualFold(category, browse.AllCategories) {
		cards = viewmodel.Cards(cat.FilterByCategory(r.Context(), category), favs)
	} else {
		cards = viewmodel.Cards(cat.SearchRecipes(r.Context(), query.Get("s")), favs)
	}

	writeJSON(w, r, http.StatusOK, viewmodel.Paginate(cards, page))
}

func GetRecipe(cat *catalog.Catalog, favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	// Get the "id" query parameter from the URL
	recipeID := strings.TrimSpace(r.URL.Query().Get("id"))
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	recipe := cat.GetRecipeByID(r.Context(), recipeID)
	if recipe == nil {
		http.Error(w, "No matching recipe found", http.StatusNotFound)
		return
	}

	writeJSON(w, r, http.StatusOK, viewmodel.NewDetail(*recipe, favs))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		LoggerFrom(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}
