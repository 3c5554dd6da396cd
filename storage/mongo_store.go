package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civicsync-web/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend stores one document per (browser, key) in a collection.
type MongoBackend struct {
	collection *mongo.Collection
}

// NewMongoBackend ensures the unique (browser, key) index exists.
func NewMongoBackend(db *mongo.Database, collection string) (*MongoBackend, error) {
	if collection == "" {
		collection = "kv"
	}
	coll := db.Collection(collection)
	if err := models.EnsureKVIndex(coll); err != nil {
		return nil, fmt.Errorf("ensure kv index: %w", err)
	}
	return &MongoBackend{collection: coll}, nil
}

func (m *MongoBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var entry models.KVEntry
	err := m.collection.FindOne(ctx, bson.M{"browser": namespace, "key": key}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (m *MongoBackend) Set(ctx context.Context, namespace, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"browser": namespace, "key": key}
	update := bson.M{"$set": bson.M{"value": string(value), "updatedAt": time.Now()}}
	_, err := m.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func (m *MongoBackend) Delete(ctx context.Context, namespace, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := m.collection.DeleteOne(ctx, bson.M{"browser": namespace, "key": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}
