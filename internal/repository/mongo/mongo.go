// Package mongo хранит пользователей, ссылки, записи и счетчики в MongoDB.
// Вся координация между запросами держится на уникальных индексах и
// атомарных операциях над одним документом.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"linkregistry/internal/repository"
)

const (
	collectionUsers    = "users"
	collectionLinks    = "links"
	collectionRecords  = "records"
	collectionCounters = "counters"

	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

var _ repository.Storage = (*MongoStorage)(nil)

type MongoStorage struct {
	client   *mongo.Client
	users    *mongo.Collection
	links    *mongo.Collection
	records  *mongo.Collection
	counters *mongo.Collection
}

func NewStorage(ctx context.Context, uri, database string) (*MongoStorage, error) {
	ctxConnect, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctxConnect, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	s := newStorage(client.Database(database))
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

func newStorage(db *mongo.Database) *MongoStorage {
	return &MongoStorage{
		client:   db.Client(),
		users:    db.Collection(collectionUsers),
		links:    db.Collection(collectionLinks),
		records:  db.Collection(collectionRecords),
		counters: db.Collection(collectionCounters),
	}
}

func (m *MongoStorage) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{m.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{m.links, []mongo.IndexModel{
			{Keys: bson.D{{Key: "link_url", Value: 1}}, Options: options.Index().SetUnique(true)},
			// у старых записей link_id нет
			{Keys: bson.D{{Key: "link_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "generatedId", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		}},
		{m.records, []mongo.IndexModel{
			{Keys: bson.D{{Key: "record_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "contact_number", Value: 1}}},
			{Keys: bson.D{{Key: "import_id", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("collection %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (m *MongoStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	return nil
}
