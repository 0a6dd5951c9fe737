package mealdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustTestServer starts a test server or skips if the sandbox disallows listening.
func mustTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("test server unavailable in sandbox: %v", r)
		}
	}()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(srv.URL),
		WithRateLimit(0),
		WithRetryMaxElapsed(2 * time.Second),
	}
	return New(append(base, opts...)...)
}

func TestSearchRecipes(t *testing.T) {
	var gotQuery string
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.php", r.URL.Path)
		gotQuery = r.URL.Query().Get("s")
		w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole","strIngredient1":"soy sauce","strMeasure1":"3/4 cup"}]}`))
	}))

	recipes, err := newTestClient(srv).SearchRecipes(context.Background(), " chicken ")
	require.NoError(t, err)
	assert.Equal(t, "chicken", gotQuery)
	require.Len(t, recipes, 1)
	assert.Equal(t, "52772", recipes[0].ID)
	assert.Equal(t, "soy sauce", recipes[0].Ingredients[0].Name)
}

func TestNullMealsDecodeAsEmpty(t *testing.T) {
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meals":null}`))
	}))
	client := newTestClient(srv)

	recipes, err := client.SearchRecipes(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, recipes)
	assert.Empty(t, recipes)

	recipes, err = client.FilterByCategory(context.Background(), "Nope")
	require.NoError(t, err)
	assert.Empty(t, recipes)

	recipe, err := client.GetRecipeByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Nil(t, recipe)
}

func TestListCategories(t *testing.T) {
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories.php", r.URL.Path)
		w.Write([]byte(`{"categories":[{"idCategory":"1","strCategory":"Beef","strCategoryThumb":"beef.png","strCategoryDescription":"Beef is the culinary name for meat from cattle."}]}`))
	}))

	categories, err := newTestClient(srv).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Beef", categories[0].Name)
}

func TestGetRecipeByID(t *testing.T) {
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lookup.php", r.URL.Path)
		assert.Equal(t, "52772", r.URL.Query().Get("i"))
		w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole"}]}`))
	}))

	recipe, err := newTestClient(srv).GetRecipeByID(context.Background(), "52772")
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, "Teriyaki Chicken Casserole", recipe.Name)
}

func TestRequiredArguments(t *testing.T) {
	client := New()
	_, err := client.FilterByCategory(context.Background(), " ")
	assert.Error(t, err)
	_, err = client.GetRecipeByID(context.Background(), "")
	assert.Error(t, err)
}

func TestRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"meals":[]}`))
	}))

	_, err := newTestClient(srv).SearchRecipes(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := newTestClient(srv).SearchRecipes(context.Background(), "")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoesNotRetryMalformedBody(t *testing.T) {
	var calls atomic.Int32
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"meals":"Invalid ID"}`))
	}))

	_, err := newTestClient(srv).GetRecipeByID(context.Background(), "abc")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryDisabled(t *testing.T) {
	var calls atomic.Int32
	srv := mustTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := newTestClient(srv, WithRetryMaxElapsed(0)).ListCategories(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
