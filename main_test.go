package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipebox/models"
	"recipebox/storage"
	"recipebox/viewmodel"
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

func fakeMealDB(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/categories.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"categories":[
			{"idCategory":"1","strCategory":"Beef","strCategoryDescription":"Beef is meat from cattle."},
			{"idCategory":"3","strCategory":"Dessert","strCategoryDescription":"Sweet things."}]}`))
	})
	mux.HandleFunc("/search.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") == "nothing" {
			w.Write([]byte(`{"meals":null}`))
			return
		}
		w.Write([]byte(`{"meals":[
			{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole","strCategory":"Chicken","strArea":"Japanese"},
			{"idMeal":"52959","strMeal":"Baked salmon with fennel & tomatoes","strCategory":"Seafood"}]}`))
	})
	mux.HandleFunc("/lookup.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "52772" {
			w.Write([]byte(`{"meals":null}`))
			return
		}
		w.Write([]byte(`{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken Casserole",
			"strCategory":"Chicken","strInstructions":"Preheat oven to 350.",
			"strIngredient1":"soy sauce","strMeasure1":"3/4 cup",
			"strIngredient2":"water","strMeasure2":"1/2 cup",
			"strIngredient3":"","strMeasure3":""}]}`))
	})
	return mustTestServer(t, mux)
}

func newTestRoot(srv *httptest.Server, dir, stdin string, out io.Writer, args ...string) *cobra.Command {
	configPath, jsonOutput = "", false

	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--mealdb-url", srv.URL,
		"--storage-driver", "file",
		"--storage-path", dir,
		"--log-level", "error",
	}, args...))
	return root
}

// run executes the CLI in-process with file storage under dir.
func run(t *testing.T, srv *httptest.Server, dir, stdin string, args ...string) string {
	t.Helper()
	t.Cleanup(func() { configPath, jsonOutput = "", false })

	var out bytes.Buffer
	require.NoError(t, newTestRoot(srv, dir, stdin, &out, args...).ExecuteContext(context.Background()))
	return out.String()
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFavouritesPersistAcrossInvocations(t *testing.T) {
	srv := fakeMealDB(t)
	dir := t.TempDir()

	out := run(t, srv, dir, "", "favourites", "add", "52772")
	assert.Contains(t, out, "Added Teriyaki Chicken Casserole (52772)")

	out = run(t, srv, dir, "", "favourites", "add", "52772")
	assert.Contains(t, out, "52772 is already a favourite")

	out = run(t, srv, dir, "", "--json", "favourites", "list")
	var cards []viewmodel.Card
	require.NoError(t, json.Unmarshal([]byte(out), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "52772", cards[0].Recipe.ID)
	assert.True(t, cards[0].Favourited)

	out = run(t, srv, dir, "", "favourites", "keys")
	assert.Contains(t, out, "* favourites")

	out = run(t, srv, dir, "", "favourites", "remove", "52772")
	assert.Contains(t, out, "Removed 52772")

	out = run(t, srv, dir, "", "favourites", "list")
	assert.Contains(t, out, "No favourites yet.")
}

func TestFavouritesWatchReprintsExternalChanges(t *testing.T) {
	srv := fakeMealDB(t)
	dir := t.TempDir()
	run(t, srv, dir, "", "favourites", "add", "52772")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	root := newTestRoot(srv, dir, "", &out, "favourites", "watch")
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	// The initial listing is printed once the watch is registered.
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Teriyaki Chicken Casserole")
	}, 5*time.Second, 10*time.Millisecond)

	other, err := storage.OpenFile(dir)
	require.NoError(t, err)
	require.NoError(t, other.Set(ctx, "favourites", []byte(`[{"idMeal":"99","strMeal":"Toast"}]`)))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Toast")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}

func TestFavouriteAddFromStdin(t *testing.T) {
	srv := fakeMealDB(t)
	dir := t.TempDir()

	recipe := `{"idMeal":"99","strMeal":"Toast","strIngredient1":"bread"}`
	out := run(t, srv, dir, recipe, "--profile", "alice", "favourites", "add", "--file", "-")
	assert.Contains(t, out, "Added Toast (99)")

	// Profiles are independent slots.
	out = run(t, srv, dir, "", "favourites", "list")
	assert.Contains(t, out, "No favourites yet.")
	out = run(t, srv, dir, "", "--profile", "alice", "favourites", "list")
	assert.Contains(t, out, "Toast")
}

func TestSearchAndShow(t *testing.T) {
	srv := fakeMealDB(t)
	dir := t.TempDir()

	out := run(t, srv, dir, "", "--json", "search", "chicken")
	var page viewmodel.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)

	out = run(t, srv, dir, "", "search", "nothing")
	assert.Contains(t, out, "No recipes found.")

	out = run(t, srv, dir, "", "show", "52772")
	assert.Contains(t, out, "Teriyaki Chicken Casserole")
	assert.Contains(t, out, "soy sauce - 3/4 cup")
	assert.Contains(t, out, "Preheat oven")

	out = run(t, srv, dir, "", "categories", "ee")
	assert.Contains(t, out, "Beef")
	assert.NotContains(t, out, "Dessert")
}

func TestBrowseSession(t *testing.T) {
	srv := fakeMealDB(t)
	dir := t.TempDir()

	out := run(t, srv, dir, "s nothing\nfav 52772\nbogus\nq\n", "browse")
	assert.Contains(t, out, `Results for "nothing"`)
	assert.Contains(t, out, "No recipes found.")
	assert.Contains(t, out, "unknown command")

	out = run(t, srv, dir, "", "favourites", "list")
	assert.Contains(t, out, "Teriyaki Chicken Casserole")
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	cards := viewmodel.Cards([]models.Recipe{
		{ID: "1", Name: "Pie", Category: "Dessert"},
		{ID: "2", Name: "Stew"},
	}, nil)
	renderPage(&buf, viewmodel.Paginate(cards, 1))

	out := buf.String()
	assert.Contains(t, out, "Pie")
	assert.Contains(t, out, "Dessert")
	assert.Contains(t, out, "page 1/1 · 2 recipes")
}

func TestRenderCategoriesTrimsDescription(t *testing.T) {
	var buf bytes.Buffer
	renderCategories(&buf, []models.Category{{Name: "Beef", Description: "Meat from cattle. Second sentence."}})
	assert.Contains(t, buf.String(), "Meat from cattle.")
	assert.NotContains(t, buf.String(), "Second sentence")

	buf.Reset()
	renderCategories(&buf, nil)
	assert.Contains(t, buf.String(), "No categories found.")
}
