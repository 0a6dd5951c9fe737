package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MaxIngredients is the number of strIngredientN/strMeasureN pairs TheMealDB
// exposes on a meal record.
const MaxIngredients = 20

type Recipe struct {
	ID           string
	Name         string
	Category     string
	Area         string
	Instructions string
	Thumbnail    string
	Tags         string
	YouTube      string
	Source       string
	Ingredients  []Ingredient
}

type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

type Category struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Thumbnail   string `json:"strCategoryThumb"`
	Description string `json:"strCategoryDescription"`
}

// SameAs reports whether both records describe the same catalog entry.
func (r Recipe) SameAs(other Recipe) bool {
	return r.ID == other.ID
}

// UnmarshalJSON reads the flat meal shape used by TheMealDB. Fields that are
// null, missing or not strings are left empty.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}

	*r = Recipe{
		ID:           str("idMeal"),
		Name:         str("strMeal"),
		Category:     str("strCategory"),
		Area:         str("strArea"),
		Instructions: str("strInstructions"),
		Thumbnail:    str("strMealThumb"),
		Tags:         str("strTags"),
		YouTube:      str("strYoutube"),
		Source:       str("strSource"),
	}

	for i := 1; i <= MaxIngredients; i++ {
		n := strconv.Itoa(i)
		name := strings.TrimSpace(str("strIngredient" + n))
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, Ingredient{
			Name:    name,
			Measure: strings.TrimSpace(str("strMeasure" + n)),
		})
	}
	return nil
}

// MarshalJSON writes the record back in the flat meal shape so persisted
// favourites decode exactly like fresh API responses.
func (r Recipe) MarshalJSON() ([]byte, error) {
	out := map[string]string{
		"idMeal":          r.ID,
		"strMeal":         r.Name,
		"strCategory":     r.Category,
		"strArea":         r.Area,
		"strInstructions": r.Instructions,
		"strMealThumb":    r.Thumbnail,
		"strTags":         r.Tags,
		"strYoutube":      r.YouTube,
		"strSource":       r.Source,
	}
	for i, ing := range r.Ingredients {
		if i >= MaxIngredients {
			break
		}
		n := strconv.Itoa(i + 1)
		out["strIngredient"+n] = ing.Name
		out["strMeasure"+n] = ing.Measure
	}
	return json.Marshal(out)
}
