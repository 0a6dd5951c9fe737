// Package favorites owns the user's favourite recipes for a session and keeps
// them written through to a durable storage slot.
//
// A Store is constructed once at startup and handed to every consumer. Reads
// go through List and IsFavorited, mutations through Add and Remove, and
// consumers that render the list register with Subscribe instead of polling.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"recipebox/metrics"
	"recipebox/models"
	"recipebox/storage"
)

// DefaultKey is the storage slot holding the serialised favourites.
const DefaultKey = "favourites"

// Store is the ordered, ID-unique set of favourite recipes.
type Store struct {
	slot    storage.Store
	key     string
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	recipes []models.Recipe
	loaded  bool
	// persist is cleared when the slot could not be read, so the session
	// never overwrites data it has not seen.
	persist bool

	// notifyMu is taken before mu is released so observers see snapshots
	// in mutation order.
	notifyMu  sync.Mutex
	obsMu     sync.Mutex
	observers map[int]func([]models.Recipe)
	nextObs   int
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns an empty store bound to slot. Nothing is written until Load
// has completed.
func New(slot storage.Store, opts ...Option) *Store {
	s := &Store{
		slot:      slot,
		key:       DefaultKey,
		logger:    zap.NewNop(),
		recipes:   []models.Recipe{},
		persist:   true,
		observers: make(map[int]func([]models.Recipe)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory set with the persisted one. It never fails:
// a missing slot yields an empty set, a corrupted slot is cleared, and an
// unreadable slot disables persistence for the session.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	recipes, persist := s.read(ctx)
	s.recipes = recipes
	s.persist = persist
	s.loaded = true
	snapshot := slices.Clone(s.recipes)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.notify(snapshot)
	s.notifyMu.Unlock()
}

func (s *Store) read(ctx context.Context) ([]models.Recipe, bool) {
	if s.slot == nil {
		return []models.Recipe{}, false
	}

	data, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Recipe{}, true
	}
	if err != nil {
		s.logger.Error("favourites unreadable, persistence disabled for this session",
			zap.String("key", s.key), zap.Error(err))
		s.metrics.IncStorageFailure("read")
		return []models.Recipe{}, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		s.logger.Warn("discarding corrupted favourites",
			zap.String("key", s.key), zap.ByteString("value", truncate(data, 64)), zap.Error(err))
		if err := s.slot.Delete(ctx, s.key); err != nil {
			s.logger.Error("clear corrupted favourites", zap.String("key", s.key), zap.Error(err))
			s.metrics.IncStorageFailure("delete")
		}
		return []models.Recipe{}, true
	}

	recipes := make([]models.Recipe, 0, len(items))
	for i, item := range items {
		var r models.Recipe
		if err := json.Unmarshal(item, &r); err != nil || r.ID == "" {
			s.logger.Warn("skipping malformed favourite", zap.Int("index", i), zap.Error(err))
			continue
		}
		if containsID(recipes, r.ID) {
			continue
		}
		recipes = append(recipes, r)
	}
	return recipes, true
}

// Add appends recipe unless a favourite with the same ID exists. It reports
// whether the set changed; a change is persisted before Add returns.
func (s *Store) Add(ctx context.Context, recipe models.Recipe) bool {
	if recipe.ID == "" {
		s.logger.Warn("ignoring favourite without an id", zap.String("name", recipe.Name))
		return false
	}

	s.mu.Lock()
	if containsID(s.recipes, recipe.ID) {
		s.mu.Unlock()
		return false
	}
	s.recipes = append(s.recipes, recipe)
	s.write(ctx)
	snapshot := slices.Clone(s.recipes)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.metrics.IncFavourite("add")
	s.notify(snapshot)
	s.notifyMu.Unlock()
	return true
}

// Remove deletes the favourite with id. It reports whether the set changed;
// a change is persisted before Remove returns.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := slices.IndexFunc(s.recipes, func(r models.Recipe) bool { return r.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.recipes = slices.Delete(s.recipes, i, i+1)
	s.write(ctx)
	snapshot := slices.Clone(s.recipes)
	s.notifyMu.Lock()
	s.mu.Unlock()

	s.metrics.IncFavourite("remove")
	s.notify(snapshot)
	s.notifyMu.Unlock()
	return true
}

func (s *Store) IsFavorited(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsID(s.recipes, id)
}

// List returns a copy of the favourites in insertion order.
func (s *Store) List() []models.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recipes)
}

// Loaded reports whether Load has completed at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Persistent reports whether changes are currently written to storage.
func (s *Store) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && s.persist
}

// Subscribe registers fn to receive a snapshot after Load and after every
// change, in the order the changes were applied. fn runs on the mutating
// goroutine and must not call Load, Add or Remove.
func (s *Store) Subscribe(fn func([]models.Recipe)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// write must be called with s.mu held.
func (s *Store) write(ctx context.Context) {
	if !s.loaded || !s.persist || s.slot == nil {
		return
	}
	data, err := json.Marshal(s.recipes)
	if err != nil {
		s.logger.Error("encode favourites", zap.Error(err))
		return
	}
	if err := s.slot.Set(ctx, s.key, data); err != nil {
		s.logger.Error("favourites not persisted", zap.String("key", s.key), zap.Error(err))
		s.metrics.IncStorageFailure("write")
	}
}

func (s *Store) notify(snapshot []models.Recipe) {
	s.obsMu.Lock()
	fns := make([]func([]models.Recipe), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(snapshot))
	}
}

func containsID(recipes []models.Recipe, id string) bool {
	return slices.ContainsFunc(recipes, func(r models.Recipe) bool { return r.ID == id })
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
