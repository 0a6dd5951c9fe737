// Package viewmodel derives display-only data from catalog records. Fetched
// recipes are never modified; every derived field lives on the view structs.
package viewmodel

import (
	"math"

	"github.com/cespare/xxhash/v2"

	"recipebox/models"
)

const (
	PageSize = 8
	featured = 3

	minRating = 2.8
	maxRating = 4.8
)

// Favourites answers whether a recipe is currently a favourite.
type Favourites interface {
	IsFavorited(id string) bool
}

type Card struct {
	Recipe     models.Recipe `json:"recipe"`
	Rating     float64       `json:"rating"`
	Favourited bool          `json:"favourited"`
}

type Detail struct {
	Recipe      models.Recipe `json:"recipe"`
	Ingredients []string      `json:"ingredients"`
	Favourited  bool          `json:"favourited"`
}

type Page struct {
	Items      []Card `json:"items"`
	Number     int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
}

type Home struct {
	Featured   []Card            `json:"featured"`
	Trending   []Card            `json:"trending"`
	Categories []models.Category `json:"categories"`
}

// Rating is a stable display rating in [2.8, 4.8] with one decimal, derived
// from the recipe ID so it does not change between renders.
func Rating(id string) float64 {
	steps := int(math.Round((maxRating - minRating) * 10))
	n := xxhash.Sum64String(id) % uint64(steps+1)
	return math.Round((minRating+float64(n)/10)*10) / 10
}

func NewCard(r models.Recipe, favs Favourites) Card {
	return Card{
		Recipe:     r,
		Rating:     Rating(r.ID),
		Favourited: favs != nil && favs.IsFavorited(r.ID),
	}
}

func Cards(recipes []models.Recipe, favs Favourites) []Card {
	out := make([]Card, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewCard(r, favs))
	}
	return out
}

func NewDetail(r models.Recipe, favs Favourites) Detail {
	return Detail{
		Recipe:      r,
		Ingredients: IngredientLines(r),
		Favourited:  favs != nil && favs.IsFavorited(r.ID),
	}
}

// IngredientLines renders "name - measure" per ingredient.
func IngredientLines(r models.Recipe) []string {
	lines := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Measure == "" {
			lines = append(lines, ing.Name)
			continue
		}
		lines = append(lines, ing.Name+" - "+ing.Measure)
	}
	return lines
}

// Paginate returns the 1-based page of cards, clamping out-of-range numbers.
func Paginate(cards []Card, number int) Page {
	totalPages := (len(cards) + PageSize - 1) / PageSize
	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}

	start := min((number-1)*PageSize, len(cards))
	end := min(start+PageSize, len(cards))
	return Page{
		Items:      append([]Card{}, cards[start:end]...),
		Number:     number,
		TotalPages: totalPages,
		Total:      len(cards),
	}
}

func NewHome(recipes []models.Recipe, categories []models.Category, favs Favourites) Home {
	cards := Cards(recipes, favs)
	split := min(featured, len(cards))
	if categories == nil {
		categories = []models.Category{}
	}
	return Home{
		Featured:   cards[:split],
		Trending:   cards[split:],
		Categories: categories,
	}
}
