// Package catalog is what views call to read the recipe catalog. It never
// returns an error: failed fetches are logged and surface as empty results or
// an absent recipe, which views render as "no results" / "not found".
package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"recipebox/models"
)

const (
	homeRecipes    = 8
	homeCategories = 6
)

// Source is the remote catalog. *mealdb.Client implements it.
type Source interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	SearchRecipes(ctx context.Context, query string) ([]models.Recipe, error)
	FilterByCategory(ctx context.Context, category string) ([]models.Recipe, error)
	GetRecipeByID(ctx context.Context, id string) (*models.Recipe, error)
}

type Catalog struct {
	src    Source
	logger *zap.Logger
	flight singleflight.Group
}

func New(src Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{src: src, logger: logger}
}

// Home is the landing page data.
type Home struct {
	Recipes    []models.Recipe
	Categories []models.Category
}

func (c *Catalog) ListCategories(ctx context.Context) []models.Category {
	v, err := c.shared(ctx, "categories", func(ctx context.Context) (any, error) {
		return c.src.ListCategories(ctx)
	})
	if err != nil {
		c.logger.Warn("failed to load categories", zap.Error(err))
		return []models.Category{}
	}
	return append([]models.Category{}, v.([]models.Category)...)
}

func (c *Catalog) SearchRecipes(ctx context.Context, query string) []models.Recipe {
	query = strings.TrimSpace(query)
	return c.recipes(ctx, "search:"+query, func(ctx context.Context) (any, error) {
		return c.src.SearchRecipes(ctx, query)
	})
}

func (c *Catalog) FilterByCategory(ctx context.Context, category string) []models.Recipe {
	category = strings.TrimSpace(category)
	if category == "" {
		return []models.Recipe{}
	}
	return c.recipes(ctx, "filter:"+category, func(ctx context.Context) (any, error) {
		return c.src.FilterByCategory(ctx, category)
	})
}

// GetRecipeByID returns nil when the recipe is absent or the lookup failed.
func (c *Catalog) GetRecipeByID(ctx context.Context, id string) *models.Recipe {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	v, err := c.shared(ctx, "lookup:"+id, func(ctx context.Context) (any, error) {
		return c.src.GetRecipeByID(ctx, id)
	})
	if err != nil {
		c.logger.Warn("failed to look up recipe", zap.String("id", id), zap.Error(err))
		return nil
	}
	r, _ := v.(*models.Recipe)
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// Home fetches the default recipes and categories concurrently.
func (c *Catalog) Home(ctx context.Context) Home {
	var home Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recipes := c.SearchRecipes(gctx, "")
		home.Recipes = recipes[:min(len(recipes), homeRecipes)]
		return nil
	})
	g.Go(func() error {
		categories := c.ListCategories(gctx)
		home.Categories = categories[:min(len(categories), homeCategories)]
		return nil
	})
	_ = g.Wait()
	return home
}

func (c *Catalog) recipes(ctx context.Context, key string, fetch func(context.Context) (any, error)) []models.Recipe {
	v, err := c.shared(ctx, key, fetch)
	if err != nil {
		c.logger.Warn("failed to load recipes", zap.String("request", key), zap.Error(err))
		return []models.Recipe{}
	}
	return append([]models.Recipe{}, v.([]models.Recipe)...)
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from any single caller's cancellation, so one caller giving up does
// not fail the others; each caller still stops waiting when its own ctx ends.
// The fetch itself stays bounded by the client timeout and retry budget.
func (c *Catalog) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		return fetch(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FilterCategories keeps the categories whose name contains term, ignoring case.
func FilterCategories(categories []models.Category, term string) []models.Category {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Category, 0, len(categories))
	for _, cat := range categories {
		if strings.Contains(strings.ToLower(cat.Name), term) {
			out = append(out, cat)
		}
	}
	return out
}
