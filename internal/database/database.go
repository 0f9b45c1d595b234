// Package database connects to the document store. The connection is
// retried with exponential backoff so the services survive the store
// coming up after them; running out of retries is a startup failure and
// the only condition that should exit the process.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// NewDatabase dials the store at uri and returns a handle to dbName. The
// dial is verified with a ping before the handle is returned.
func NewDatabase(
	parent context.Context,
	logger *zap.SugaredLogger,
	uri string,
	dbName string,
) (*mongo.Database, error) {
	var client *mongo.Client
	connectDb := func() error {
		ctx, cancel := context.WithTimeout(parent, connectTimeout)
		defer cancel()

		var err error
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		if err = client.Ping(ctx, readpref.Primary()); err != nil {
			logger.Warnf("database not reachable yet: %s", err)
			return err
		}
		return nil
	}
	err := backoff.Retry(connectDb, backoff.WithContext(backoff.NewExponentialBackOff(), parent))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	return client.Database(dbName), nil
}
