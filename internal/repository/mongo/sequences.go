package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linkregistry/internal/domain/models"
)

// SequenceInit создает счетчик, если его еще нет. Проигравший гонку upsert
// получает duplicate key, это не ошибка.
func (m *MongoStorage) SequenceInit(ctx context.Context, name string, value int64) error {
	_, err := m.counters.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$setOnInsert": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to init sequence: %w", err)
	}
	return nil
}

func (m *MongoStorage) SequenceAdvance(ctx context.Context, name string, n int64) (int64, error) {
	if n <= 0 {
		return 0, models.ErrInvalidData
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc counterDocument
	err := m.counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"value": n}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, models.ErrUnfound
		}
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	return doc.Value, nil
}
