package browse

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"recipebox/models"
)

const (
	timeout = 5 * time.Second
	tick    = 10 * time.Millisecond
)

// gatedFetcher answers each request with canned results, holding requests
// whose key has a gate until the gate is closed.
type gatedFetcher struct {
	mu      sync.Mutex
	results map[string][]models.Recipe
	gates   map[string]chan struct{}
	calls   []string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		results: make(map[string][]models.Recipe),
		gates:   make(map[string]chan struct{}),
	}
}

func (f *gatedFetcher) gate(key string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[key] = ch
	f.mu.Unlock()
	return ch
}

func (f *gatedFetcher) answer(key string) []models.Recipe {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	gate := f.gates[key]
	res := f.results[key]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return res
}

func (f *gatedFetcher) SearchRecipes(ctx context.Context, query string) []models.Recipe {
	return f.answer("s:" + query)
}

func (f *gatedFetcher) FilterByCategory(ctx context.Context, category string) []models.Recipe {
	return f.answer("c:" + category)
}

func meals(prefix string, n int) []models.Recipe {
	out := make([]models.Recipe, n)
	for i := range out {
		out[i] = models.Recipe{ID: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	f := newGatedFetcher()
	f.results["s:chicken"] = meals("chicken", 2)
	f.results["s:beef"] = meals("beef", 3)
	slow := f.gate("s:chicken")

	s := New(f)
	first := s.Search(ctx, "chicken")
	second := s.Search(ctx, "beef")
	assert.Greater(t, second, first)

	// Wait for the newer fetch, then let the older one resolve late.
	require.Eventually(t, func() bool { return !s.State().Loading }, timeout, tick)
	close(slow)
	s.Wait()

	st := s.State()
	assert.Equal(t, "beef", st.Term)
	assert.Equal(t, second, st.Token)
	assert.Len(t, st.Results, 3)
	assert.Equal(t, "beef0", st.Results[0].ID)
}

func TestSearchResetsCategory(t *testing.T) {
	ctx := context.Background()
	f := newGatedFetcher()
	f.results["c:Seafood"] = meals("fish", 4)
	f.results["s:pie"] = meals("pie", 1)

	s := New(f)
	s.SelectCategory(ctx, "Seafood")
	s.Wait()
	assert.Equal(t, "Seafood", s.State().Category)
	assert.Len(t, s.State().Results, 4)

	s.Search(ctx, "pie")
	s.Wait()
	assert.Equal(t, AllCategories, s.State().Category)
	assert.Len(t, s.State().Results, 1)
	assert.Equal(t, []string{"c:Seafood", "s:pie"}, f.calls)
}

func TestCategoryTakesPrecedenceOverTerm(t *testing.T) {
	ctx := context.Background()
	f := newGatedFetcher()

	s := New(f)
	s.Search(ctx, "pie")
	s.Wait()
	s.SelectCategory(ctx, "Dessert")
	s.Wait()
	s.SelectCategory(ctx, "all")
	s.Wait()
	s.ClearSearch(ctx)
	s.Wait()

	assert.Equal(t, []string{"s:pie", "c:Dessert", "s:pie", "s:"}, f.calls)
	assert.Equal(t, AllCategories, s.State().Category)
	assert.NotNil(t, s.State().Results)
}

func TestPagingResetsOnNewResults(t *testing.T) {
	ctx := context.Background()
	f := newGatedFetcher()
	f.results["s:"] = meals("m", 20)
	f.results["s:x"] = meals("x", 9)

	var changes int
	s := New(f, OnChange(func(State) { changes++ }))
	s.Start(ctx)
	s.Wait()

	s.NextPage()
	s.NextPage()
	s.NextPage()
	assert.Equal(t, 3, s.State().Page)
	page := s.View(nil)
	assert.Len(t, page.Items, 4)
	assert.Equal(t, "m16", page.Items[0].Recipe.ID)

	s.PrevPage()
	assert.Equal(t, 2, s.State().Page)

	s.Search(ctx, "x")
	s.Wait()
	assert.Equal(t, 1, s.State().Page)
	assert.Equal(t, 2, s.View(nil).TotalPages)
	// Two fetch starts, two applied results and four page moves.
	assert.Equal(t, 8, changes)
}

func TestFetchStartReportsLoading(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	f := newGatedFetcher()
	f.results["s:stew"] = meals("stew", 2)
	gate := f.gate("s:stew")

	var (
		mu     sync.Mutex
		states []State
	)
	s := New(f, OnChange(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st)
	}))

	token := s.Search(ctx, "stew")
	mu.Lock()
	require.Len(t, states, 1)
	assert.True(t, states[0].Loading)
	assert.Equal(t, "stew", states[0].Term)
	assert.Equal(t, token, states[0].Token)
	mu.Unlock()

	close(gate)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 2)
	assert.False(t, states[1].Loading)
	assert.Len(t, states[1].Results, 2)
}
