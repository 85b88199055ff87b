package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"linkregistry/internal/domain/models"
)

func (m *MongoStorage) UserCreate(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" || user.Email == "" {
		return models.User{}, fmt.Errorf("%w: user id and email must not be empty", models.ErrInvalidData)
	}

	if _, err := m.users.InsertOne(ctx, fromUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, fmt.Errorf("%w: email already registered", models.ErrDuplicate)
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (m *MongoStorage) UserGetByEmail(ctx context.Context, email string) (models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *MongoStorage) UserGetByID(ctx context.Context, id string) (models.User, error) {
	return m.findUser(ctx, bson.M{"user_id": id})
}

func (m *MongoStorage) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrUnfound)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

// UserCompareAndSetLoginState обновляет документ только при совпадении login_version.
func (m *MongoStorage) UserCompareAndSetLoginState(ctx context.Context, userID string, expectedVersion int64, next models.LoginState) (bool, error) {
	update := bson.M{
		"$set": bson.M{
			"failed_attempts":     next.FailedAttempts,
			"last_failed_attempt": next.LastFailedAt,
			"blocked_until":       next.BlockedUntil,
			"login_version":       expectedVersion + 1,
		},
	}

	res, err := m.users.UpdateOne(ctx, loginVersionFilter(userID, expectedVersion), update)
	if err != nil {
		return false, fmt.Errorf("failed to update login state: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := m.users.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	if n == 0 {
		return false, models.ErrUnfound
	}
	return false, nil
}

// loginVersionFilter - документ без login_version считается версией 0.
func loginVersionFilter(userID string, expectedVersion int64) bson.M {
	if expectedVersion == 0 {
		return bson.M{"user_id": userID, "login_version": bson.M{"$in": bson.A{int64(0), nil}}}
	}
	return bson.M{"user_id": userID, "login_version": expectedVersion}
}
