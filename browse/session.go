// Package browse holds the state of an interactive recipe listing: search
// term, category filter, page and results.
//
// Fetches run asynchronously. Each fetch-triggering change takes the next
// request token, and a result is applied only if its token is still the
// latest, so a slow response can never overwrite a newer one.
package browse

import (
	"context"
	"strings"
	"sync"

	"recipebox/metrics"
	"recipebox/models"
	"recipebox/viewmodel"
)

// AllCategories means no category filter.
const AllCategories = "All"

// Fetcher is the failure-absorbing catalog; *catalog.Catalog implements it.
type Fetcher interface {
	SearchRecipes(ctx context.Context, query string) []models.Recipe
	FilterByCategory(ctx context.Context, category string) []models.Recipe
}

// State is a snapshot of the listing.
type State struct {
	Term     string
	Category string
	Page     int
	Loading  bool
	Results  []models.Recipe
	// Token identifies the fetch whose results are shown, or in flight.
	Token uint64
}

type Session struct {
	fetch    Fetcher
	metrics  *metrics.Metrics
	onChange func(State)

	mu       sync.Mutex
	notifyMu sync.Mutex
	state    State
	latest   uint64

	inflight sync.WaitGroup
}

type Option func(*Session)

// OnChange registers a callback run after every state change, including the
// start of a fetch (State.Loading set). It must not call back into the Session
// mutators.
func OnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func New(fetch Fetcher, opts ...Option) *Session {
	s := &Session{
		fetch: fetch,
		state: State{Category: AllCategories, Page: 1, Results: []models.Recipe{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start issues the initial fetch for the current filters.
func (s *Session) Start(ctx context.Context) uint64 {
	s.mu.Lock()
	return s.refresh(ctx)
}

// Search sets the search term. A search always clears the category filter.
func (s *Session) Search(ctx context.Context, term string) uint64 {
	s.mu.Lock()
	s.state.Term = strings.TrimSpace(term)
	s.state.Category = AllCategories
	return s.refresh(ctx)
}

// SelectCategory filters by category; "" or "All" removes the filter.
func (s *Session) SelectCategory(ctx context.Context, category string) uint64 {
	s.mu.Lock()
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		category = AllCategories
	}
	s.state.Category = category
	return s.refresh(ctx)
}

// ClearSearch empties the search term and refetches.
func (s *Session) ClearSearch(ctx context.Context) uint64 {
	s.mu.Lock()
	s.state.Term = ""
	return s.refresh(ctx)
}

// SetPage moves to a 1-based page. Out-of-range pages clamp when viewed.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	page := viewmodel.Paginate(viewmodel.Cards(s.state.Results, nil), n)
	s.state.Page = page.Number
	s.unlockAndNotify()
}

func (s *Session) NextPage() { s.SetPage(s.State().Page + 1) }
func (s *Session) PrevPage() { s.SetPage(s.State().Page - 1) }

// State returns a snapshot of the listing.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// View renders the current page as cards.
func (s *Session) View(favs viewmodel.Favourites) viewmodel.Page {
	st := s.State()
	return viewmodel.Paginate(viewmodel.Cards(st.Results, favs), st.Page)
}

// Wait blocks until every issued fetch has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// refresh must be called with s.mu held; it releases it and reports the
// loading state.
func (s *Session) refresh(ctx context.Context) uint64 {
	token := s.startFetchLocked(ctx)
	s.unlockAndNotify()
	return token
}

func (s *Session) startFetchLocked(ctx context.Context) uint64 {
	s.latest++
	token := s.latest
	s.state.Loading = true
	s.state.Token = token
	term, category := s.state.Term, s.state.Category

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		var results []models.Recipe
		if category != AllCategories {
			results = s.fetch.FilterByCategory(ctx, category)
		} else {
			results = s.fetch.SearchRecipes(ctx, term)
		}
		s.apply(token, results)
	}()
	return token
}

func (s *Session) apply(token uint64, results []models.Recipe) {
	s.mu.Lock()
	if token != s.latest {
		s.mu.Unlock()
		s.metrics.IncStaleResult()
		return
	}
	if results == nil {
		results = []models.Recipe{}
	}
	s.state.Results = results
	s.state.Page = 1
	s.state.Loading = false
	s.unlockAndNotify()
}

func (s *Session) snapshotLocked() State {
	st := s.state
	st.Results = append([]models.Recipe{}, s.state.Results...)
	return st
}

// unlockAndNotify releases s.mu and delivers the state it guarded. notifyMu
// is taken first so OnChange sees states in the order they were applied.
func (s *Session) unlockAndNotify() {
	snapshot := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}
