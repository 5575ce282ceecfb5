package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"loanshop/internal/pkg/apperrors"

	"github.com/google/uuid"
)

// MemoryStore is a map-backed Store used by tests and local runs. It
// mirrors the remote store's semantics, including the missing-composite-
// index precondition: a range filter ordered by a different field, or an
// ordering over more than one field, is refused the way the real store
// refuses it.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]map[string]map[string]any{}}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	return id, s.Set(ctx, collection, id, data)
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
	}
	return Document{ID: id, Data: cloneDoc(doc)}, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = map[string]map[string]any{}
	}
	s.collections[collection][id] = cloneDoc(data)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(collection, id, fields)
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error) {
	if err := checkIndex(filters, orders); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Document
	for id, data := range s.collections[collection] {
		if matchesAll(data, filters) {
			result = append(result, Document{ID: id, Data: cloneDoc(data)})
		}
	}

	sortDocs(result, orders)
	return result, nil
}

func (s *MemoryStore) Batch() Batch {
	return &memoryBatch{store: s}
}

func (s *MemoryStore) updateLocked(collection, id string, fields map[string]any) error {
	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, collection, id)
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

type batchOp struct {
	collection string
	id         string
	fields     map[string]any
	delete     bool
}

type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (b *memoryBatch) Update(collection, id string, fields map[string]any) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, fields: fields})
}

func (b *memoryBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, delete: true})
}

// Commit applies all queued operations under one lock; a failed update
// leaves every earlier operation unapplied.
func (b *memoryBatch) Commit(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for _, op := range b.ops {
		if op.delete {
			continue
		}
		if _, ok := b.store.collections[op.collection][op.id]; !ok {
			return fmt.Errorf("%w: %s/%s", apperrors.ErrNotFound, op.collection, op.id)
		}
	}

	for _, op := range b.ops {
		if op.delete {
			delete(b.store.collections[op.collection], op.id)
			continue
		}
		if err := b.store.updateLocked(op.collection, op.id, op.fields); err != nil {
			return err
		}
	}
	return nil
}

func checkIndex(filters []Filter, orders []Order) error {
	if len(orders) > 1 {
		return fmt.Errorf("%w: ordering on %d fields", apperrors.ErrMissingIndex, len(orders))
	}
	if len(orders) == 1 {
		for _, f := range filters {
			if f.Op.IsRange() && f.Field != orders[0].Field {
				return fmt.Errorf("%w: range on %q ordered by %q", apperrors.ErrMissingIndex, f.Field, orders[0].Field)
			}
		}
	}
	return nil
}

func matchesAll(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		cmp, ok := compareValues(data[f.Field], f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false
			}
		case OpGreater:
			if cmp <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		case OpLess:
			if cmp >= 0 {
				return false
			}
		case OpLessOrEqual:
			if cmp > 0 {
				return false
			}
		}
	}
	return true
}

func sortDocs(docs []Document, orders []Order) {
	if len(orders) == 0 {
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return
	}
	ord := orders[0]
	sort.Slice(docs, func(i, j int) bool {
		cmp, ok := compareValues(docs[i].Data[ord.Field], docs[j].Data[ord.Field])
		if !ok {
			return docs[i].ID < docs[j].ID
		}
		if ord.Descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case float64:
		bv, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case int:
		return compareValues(float64(av), b)
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func cloneDoc(data map[string]any) map[string]any {
	clone := make(map[string]any, len(data))
	for k, v := range data {
		clone[k] = v
	}
	return clone
}
