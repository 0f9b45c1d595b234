package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/relayview-io/relayview/internal/models"
)

// Collection names. Each service owns one of them but they share a
// database so cross-references stay queryable.
const (
	DevicesCollection  = "devices"
	SessionsCollection = "sessions"
	ViewersCollection  = "viewers"
)

// NewMongo returns a Store backed by the given database.
func NewMongo(db *mongo.Database) Store {
	return Store{
		Devices:  &mongoCollection[models.Device]{coll: db.Collection(DevicesCollection), parentRefField: "sessionIds"},
		Sessions: &mongoCollection[models.Session]{coll: db.Collection(SessionsCollection)},
		Viewers:  &mongoCollection[models.Viewer]{coll: db.Collection(ViewersCollection), parentRefField: "sessionId"},
	}
}

// EnsureIndexes creates the secondary indexes the list filters rely on.
// Safe to call on every startup; index creation is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		DevicesCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
			{Keys: bson.D{{Key: "sessionIds", Value: 1}}},
		},
		SessionsCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		},
		ViewersCollection: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}},
			{Keys: bson.D{{Key: "sessionId", Value: 1}}},
		},
	}
	for name, defs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, defs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
	// parentRefField is the bson field the Filter.SessionID constraint
	// applies to; empty when the resource has no parent reference.
	parentRefField string
}

func (m *mongoCollection[T]) query(filter Filter) bson.M {
	q := bson.M{}
	if filter.OwnerID != "" {
		q["ownerId"] = filter.OwnerID
	}
	if filter.SessionID != nil && m.parentRefField != "" {
		// Equality on an array field matches membership, so the same
		// query serves both the devices and viewers collections.
		q[m.parentRefField] = *filter.SessionID
	}
	return q
}

func (m *mongoCollection[T]) List(ctx context.Context, filter Filter, page Page) ([]T, int64, error) {
	q := m.query(filter)

	total, err := m.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSkip(int64(page.Skip)).SetLimit(int64(page.Limit))
	cursor, err := m.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (m *mongoCollection[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *mongoCollection[T]) Create(ctx context.Context, doc *T) error {
	_, err := m.coll.InsertOne(ctx, doc)
	return err
}

func (m *mongoCollection[T]) Update(ctx context.Context, id primitive.ObjectID, doc *T) error {
	result, err := m.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoCollection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
