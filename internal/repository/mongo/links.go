package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linkregistry/internal/domain/models"
)

func byCode(code string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"link_id": code},
		bson.M{"link_id": bson.M{"$exists": false}, "generatedId": code},
	}}
}

func (m *MongoStorage) LinkCreate(ctx context.Context, link models.Link) (models.Link, error) {
	if link.URL == "" || link.Code == "" {
		return models.Link{}, fmt.Errorf("%w: link url and id must not be empty", models.ErrInvalidData)
	}

	if _, err := m.links.InsertOne(ctx, fromLink(link)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Link{}, fmt.Errorf("%w: link url or id already exists", models.ErrDuplicate)
		}
		return models.Link{}, fmt.Errorf("failed to insert link: %w", err)
	}
	return link, nil
}

func (m *MongoStorage) LinkGetByURL(ctx context.Context, url string) (models.Link, error) {
	return m.findLink(ctx, bson.M{"link_url": url})
}

func (m *MongoStorage) LinkGetByCode(ctx context.Context, code string) (models.Link, error) {
	return m.findLink(ctx, byCode(code))
}

func (m *MongoStorage) findLink(ctx context.Context, filter bson.M) (models.Link, error) {
	var doc linkDocument
	if err := m.links.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Link{}, fmt.Errorf("%w: link not found", models.ErrUnfound)
		}
		return models.Link{}, fmt.Errorf("failed to get link: %w", err)
	}
	return doc.toModel(), nil
}

// LinkSetCode записывает канонический код, если у документа все еще oldCode.
// Поле generatedId при этом удаляется.
func (m *MongoStorage) LinkSetCode(ctx context.Context, url, oldCode, newCode string) error {
	filter := bson.M{"link_url": url}
	for k, v := range byCode(oldCode) {
		filter[k] = v
	}

	update := bson.M{
		"$set":   bson.M{"link_id": newCode},
		"$unset": bson.M{"generatedId": ""},
	}

	res, err := m.links.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: id %s already taken", models.ErrDuplicate, newCode)
		}
		return fmt.Errorf("failed to update link id: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if _, err := m.LinkGetByURL(ctx, url); err != nil {
		return err
	}
	return fmt.Errorf("%w: link id changed", models.ErrConflict)
}

func (m *MongoStorage) LinkUpdateURL(ctx context.Context, code, url string) error {
	res, err := m.links.UpdateOne(ctx, byCode(code), bson.M{"$set": bson.M{"link_url": url}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: url already registered", models.ErrDuplicate)
		}
		return fmt.Errorf("failed to update link: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: link not found", models.ErrUnfound)
	}
	return nil
}

func (m *MongoStorage) LinkDelete(ctx context.Context, code string) error {
	res, err := m.links.DeleteOne(ctx, byCode(code))
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: link not found", models.ErrUnfound)
	}
	return nil
}

// LinkLatestCode учитывает и старые документы, у которых канонический код лежит в generatedId.
func (m *MongoStorage) LinkLatestCode(ctx context.Context, prefix string) (string, error) {
	pattern := bson.M{"$regex": "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"}
	filter := bson.M{"$or": bson.A{
		bson.M{"link_id": pattern},
		bson.M{"link_id": bson.M{"$exists": false}, "generatedId": pattern},
	}}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"link_id": 1, "generatedId": 1})

	var doc linkDocument
	if err := m.links.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", models.ErrUnfound
		}
		return "", fmt.Errorf("failed to get latest link id: %w", err)
	}
	return doc.toModel().Code, nil
}
