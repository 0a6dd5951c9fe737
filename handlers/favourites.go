package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"recipebox/catalog"
	"recipebox/favorites"
	"recipebox/models"
	"recipebox/viewmodel"
)

const maxRecipeBody = 1 << 20

func GetFavourites(favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, viewmodel.Cards(favs.List(), favs))
}

// AddFavourite stores the recipe in the request body, or looks up the recipe
// named by the "id" query parameter and stores that.
func AddFavourite(cat *catalog.Catalog, favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	var recipe models.Recipe

	if recipeID := strings.TrimSpace(r.URL.Query().Get("id")); recipeID != "" {
		found := cat.GetRecipeByID(r.Context(), recipeID)
		if found == nil {
			http.Error(w, "No matching recipe found", http.StatusNotFound)
			return
		}
		recipe = *found
	} else {
		// Parse the JSON request body into the Recipe struct
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecipeBody)).Decode(&recipe); err != nil {
			http.Error(w, "Invalid request payload", http.StatusBadRequest)
			LoggerFrom(r.Context()).Info("failed to decode favourite", zap.Error(err))
			return
		}
		if strings.TrimSpace(recipe.ID) == "" {
			http.Error(w, "Recipe 'idMeal' is required", http.StatusBadRequest)
			return
		}
	}

	status := http.StatusOK
	if favs.Add(r.Context(), recipe) {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, viewmodel.NewCard(recipe, favs))
}

// RemoveFavourite is idempotent: removing an absent recipe still succeeds.
func RemoveFavourite(favs *favorites.Store, w http.ResponseWriter, r *http.Request) {
	recipeID := strings.TrimSpace(r.URL.Query().Get("id"))
	if recipeID == "" {
		http.Error(w, "Missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	favs.Remove(r.Context(), recipeID)
	w.WriteHeader(http.StatusNoContent)
}
