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

const duplicateKeyCode = 11000

func (m *MongoStorage) RecordMaxID(ctx context.Context) (int64, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "record_id", Value: -1}}).
		SetProjection(bson.M{"record_id": 1})

	var doc recordDocument
	if err := m.records.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get max record id: %w", err)
	}
	return doc.RecordID, nil
}

// RecordInsertMany - неупорядоченная вставка: дубликаты record_id не мешают
// остальным документам. Число вставленных берется из BulkWriteException.
func (m *MongoStorage) RecordInsertMany(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = fromRecord(r)
	}

	_, err := m.records.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(records), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}

	inserted := len(records) - len(bwe.WriteErrors)
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return inserted, fmt.Errorf("failed to insert records: %w", err)
		}
	}
	return inserted, fmt.Errorf("%w: %d records skipped", models.ErrDuplicate, len(bwe.WriteErrors))
}

func (m *MongoStorage) RecordCountByImport(ctx context.Context, importID string) (int, error) {
	n, err := m.records.CountDocuments(ctx, bson.M{"import_id": importID})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return int(n), nil
}

func (m *MongoStorage) RecordFindByContacts(ctx context.Context, contacts []string) ([]models.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "record_id", Value: 1}})

	cursor, err := m.records.Find(ctx, bson.M{"contact_number": bson.M{"$in": contacts}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	result := make([]models.Record, len(docs))
	for i, d := range docs {
		result[i] = d.toModel()
	}
	return result, nil
}
