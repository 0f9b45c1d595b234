// Package store provides the document collections backing each resource
// type. The mongo backend is used in production; the memory backend backs
// handler tests and local development.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/relayview-io/relayview/internal/models"
)

// ErrNotFound is returned when a document id does not exist in its
// collection. Callers check it with errors.Is.
var ErrNotFound = errors.New("document not found")

// Page bounds a list query. Skip >= 0, Limit in [1,100]; the handlers
// validate before the store sees it.
type Page struct {
	Skip  int
	Limit int
}

// Filter narrows a list query. SessionID matches the parent-reference
// field of the collection: membership in sessionIds for devices, equality
// on sessionId for viewers. Zero values mean "no constraint".
type Filter struct {
	OwnerID   string
	SessionID *primitive.ObjectID
}

// Collection is a single document collection keyed by ObjectID.
type Collection[T any] interface {
	// List returns one page of matching documents in store order, plus
	// the total matched count.
	List(ctx context.Context, filter Filter, page Page) ([]T, int64, error)
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	// Create inserts a new document.
	Create(ctx context.Context, doc *T) error
	// Update replaces the stored document wholesale, or ErrNotFound.
	Update(ctx context.Context, id primitive.ObjectID, doc *T) error
	// Delete removes the document, or ErrNotFound.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Store bundles the three resource collections.
type Store struct {
	Devices  Collection[models.Device]
	Sessions Collection[models.Session]
	Viewers  Collection[models.Viewer]
}
