package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"cageledger/internal/store"
	"cageledger/internal/xid"
)

// Store keeps every collection in process memory. It is the default backend
// when no DATABASE_URL is configured and the substrate for unit tests.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
	lastInsert  time.Time
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]store.Document),
	}
}

func (s *Store) Insert(_ context.Context, collection string, fields store.Fields) (*store.Document, error) {
	if collection == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]store.Document)
		s.collections[collection] = docs
	}

	// Bump same-instant inserts by a nanosecond so createdAt ordering is
	// strict even on coarse clocks.
	now := time.Now().UTC()
	if !now.After(s.lastInsert) {
		now = s.lastInsert.Add(time.Nanosecond)
	}
	s.lastInsert = now

	doc := store.Document{
		ID:        xid.New(idPrefix(collection)),
		CreatedAt: now,
		Fields:    make(store.Fields, len(fields)),
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	docs[doc.ID] = doc

	created := doc.Clone()
	return &created, nil
}

func (s *Store) Get(_ context.Context, collection string, id string) (*store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := doc.Clone()
	return &found, nil
}

func (s *Store) Query(_ context.Context, collection string, q store.Query) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]store.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		if !matches(doc, q) {
			continue
		}
		result = append(result, doc.Clone())
	}

	slices.SortFunc(result, func(a, b store.Document) int {
		c := compareDocs(a, b, q.OrderBy)
		if q.Descending {
			return -c
		}
		return c
	})

	return result, nil
}

func (s *Store) Update(_ context.Context, collection string, id string, fields store.Fields) (*store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}

	updated := doc.Clone()
	for k, v := range fields {
		updated.Fields[k] = v
	}
	s.collections[collection][id] = updated

	out := updated.Clone()
	return &out, nil
}

func (s *Store) Delete(_ context.Context, collection string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func matches(doc store.Document, q store.Query) bool {
	for key, want := range q.Equal {
		if compareValues(doc.Fields[key], want) != 0 {
			return false
		}
	}
	for key, bound := range q.Less {
		if compareValues(doc.Fields[key], bound) >= 0 {
			return false
		}
	}
	return true
}

// compareDocs orders by the requested field, falling back to insertion time
// and finally ID so the order is deterministic.
func compareDocs(a, b store.Document, orderBy string) int {
	if orderBy != "" && orderBy != "createdAt" {
		if c := compareValues(a.Fields[orderBy], b.Fields[orderBy]); c != 0 {
			return c
		}
	}
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	return strings.Compare(a.ID, b.ID)
}

// compareValues compares two field values: numbers numerically, everything
// else as strings. Mixed int/float64 values occur because JSON decoding
// widens stored ints.
func compareValues(a, b any) int {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, _ := a.(string)
	bs, _ := b.(string)
	return strings.Compare(as, bs)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func idPrefix(collection string) string {
	switch collection {
	case store.CollectionCustomer:
		return "cust"
	case store.CollectionDailyRecord:
		return "rec"
	}
	return "doc"
}
