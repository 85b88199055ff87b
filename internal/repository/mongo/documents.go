package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"linkregistry/internal/domain/models"
)

// userDocument - _id выдает драйвер, пользователя идентифицирует user_id (uuid).
// У старых документов нет полей блокировки и login_version.
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UserID         string             `bson:"user_id"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	PasswordHash   string             `bson:"password_hash"`
	Role           string             `bson:"role_id"`
	FailedAttempts int                `bson:"failed_attempts"`
	LastFailedAt   *time.Time         `bson:"last_failed_attempt,omitempty"`
	BlockedUntil   *time.Time         `bson:"blocked_until,omitempty"`
	LoginVersion   int64              `bson:"login_version"`
	CreatedAt      time.Time          `bson:"created_at"`
}

// linkDocument - старые записи хранят код в поле generatedId вместо link_id.
type linkDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Code        string             `bson:"link_id,omitempty"`
	GeneratedID string             `bson:"generatedId,omitempty"`
	URL         string             `bson:"link_url"`
	UserID      string             `bson:"user_id"`
	CreatedAt   time.Time          `bson:"created_at"`
}

type recordDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	RecordID      int64              `bson:"record_id"`
	ContactNumber string             `bson:"contact_number"`
	SourceName    string             `bson:"source_name"`
	UserID        string             `bson:"user_id"`
	Role          string             `bson:"role"`
	ImportID      string             `bson:"import_id"`
	CreatedAt     time.Time          `bson:"created_at"`
}

type counterDocument struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

func fromUser(u models.User) userDocument {
	return userDocument{
		UserID:         u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		FailedAttempts: u.Login.FailedAttempts,
		LastFailedAt:   u.Login.LastFailedAt,
		BlockedUntil:   u.Login.BlockedUntil,
		LoginVersion:   u.Login.Version,
		CreatedAt:      u.CreatedAt,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:           d.UserID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		Login: models.LoginState{
			FailedAttempts: d.FailedAttempts,
			LastFailedAt:   utc(d.LastFailedAt),
			BlockedUntil:   utc(d.BlockedUntil),
			Version:        d.LoginVersion,
		},
		CreatedAt: d.CreatedAt,
	}
}

func fromLink(l models.Link) linkDocument {
	return linkDocument{
		Code:      l.Code,
		URL:       l.URL,
		UserID:    l.UserID,
		CreatedAt: l.CreatedAt,
	}
}

func (d linkDocument) toModel() models.Link {
	code := d.Code
	if code == "" {
		code = d.GeneratedID
	}
	return models.Link{
		Code:      code,
		URL:       d.URL,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
	}
}

func fromRecord(r models.Record) recordDocument {
	return recordDocument{
		RecordID:      r.ID,
		ContactNumber: r.ContactNumber,
		SourceName:    r.SourceName,
		UserID:        r.UserID,
		Role:          string(r.Role),
		ImportID:      r.ImportID,
		CreatedAt:     r.CreatedAt,
	}
}

func (d recordDocument) toModel() models.Record {
	return models.Record{
		ID:            d.RecordID,
		ContactNumber: d.ContactNumber,
		SourceName:    d.SourceName,
		UserID:        d.UserID,
		Role:          models.Role(d.Role),
		ImportID:      d.ImportID,
		CreatedAt:     d.CreatedAt,
	}
}

// mongo хранит время с точностью до миллисекунд и отдает его в локальной зоне
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
