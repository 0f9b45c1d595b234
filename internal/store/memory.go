package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/relayview-io/relayview/internal/models"
)

// NewMemory returns a Store holding everything in process memory.
// Insertion order is the store order reported by List.
func NewMemory() Store {
	return Store{
		Devices: newMemoryCollection(
			func(d *models.Device) primitive.ObjectID { return d.ID },
			func(d *models.Device, f Filter) bool {
				if f.OwnerID != "" && d.OwnerID != f.OwnerID {
					return false
				}
				if f.SessionID != nil {
					for _, id := range d.SessionIDs {
						if id == *f.SessionID {
							return true
						}
					}
					return false
				}
				return true
			},
		),
		Sessions: newMemoryCollection(
			func(s *models.Session) primitive.ObjectID { return s.ID },
			func(s *models.Session, f Filter) bool {
				return f.OwnerID == "" || s.OwnerID == f.OwnerID
			},
		),
		Viewers: newMemoryCollection(
			func(v *models.Viewer) primitive.ObjectID { return v.ID },
			func(v *models.Viewer, f Filter) bool {
				if f.OwnerID != "" && v.OwnerID != f.OwnerID {
					return false
				}
				return f.SessionID == nil || v.SessionID == *f.SessionID
			},
		),
	}
}

type memoryCollection[T any] struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]T
	order []primitive.ObjectID
	id    func(*T) primitive.ObjectID
	match func(*T, Filter) bool
}

func newMemoryCollection[T any](id func(*T) primitive.ObjectID, match func(*T, Filter) bool) *memoryCollection[T] {
	return &memoryCollection[T]{
		docs:  make(map[primitive.ObjectID]T),
		id:    id,
		match: match,
	}
}

func (m *memoryCollection[T]) List(_ context.Context, filter Filter, page Page) ([]T, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]T, 0)
	for _, id := range m.order {
		doc, ok := m.docs[id]
		if !ok {
			continue
		}
		if m.match(&doc, filter) {
			matched = append(matched, doc)
		}
	}

	total := int64(len(matched))
	if page.Skip >= len(matched) {
		return []T{}, total, nil
	}
	matched = matched[page.Skip:]
	if page.Limit > 0 && len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return matched, total, nil
}

func (m *memoryCollection[T]) Get(_ context.Context, id primitive.ObjectID) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (m *memoryCollection[T]) Create(_ context.Context, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.id(doc)
	if _, exists := m.docs[id]; !exists {
		m.order = append(m.order, id)
	}
	m.docs[id] = *doc
	return nil
}

func (m *memoryCollection[T]) Update(_ context.Context, id primitive.ObjectID, doc *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	m.docs[id] = *doc
	return nil
}

func (m *memoryCollection[T]) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
