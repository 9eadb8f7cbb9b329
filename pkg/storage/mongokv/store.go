// Package mongokv stores dashboard documents in a MongoDB collection.
package mongokv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dashboard "github.com/goliatone/go-homelab/components/dashboard"
)

// DefaultCollection is used when Config.Collection is empty.
const DefaultCollection = "dashboard_documents"

// Config describes the MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type document struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store implements dashboard.KVStore on a Mongo collection.
type Store struct {
	collection *mongo.Collection
	client     *mongo.Client
}

var _ dashboard.KVStore = (*Store)(nil)

// Connect dials MongoDB and returns a store bound to the configured collection.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongokv: uri is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongokv: database is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongokv: connect: %w", err)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	store := New(client.Database(cfg.Database).Collection(collection))
	store.client = client
	return store, nil
}

// New wraps an existing collection.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Get returns the stored value or dashboard.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dashboard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongokv: get %s: %w", key, err)
	}
	return doc.Value, nil
}

// Put replaces the document, inserting it when missing.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	doc := document{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongokv: put %s: %w", key, err)
	}
	return nil
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
