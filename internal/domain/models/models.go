package models

import (
	"context"
	"time"
)

// Role - роль пользователя. main - привилегированная, sub - обычная.
type Role string

const (
	RoleMain Role = "main"
	RoleSub  Role = "sub"
)

func (r Role) Valid() bool {
	return r == RoleMain || r == RoleSub
}

type (
	User struct {
		ID           string // UUID, выдается при регистрации
		Name         string
		Email        string // уникальный
		PasswordHash string
		Role         Role
		Login        LoginState
		CreatedAt    time.Time
	}

	// LoginState - состояние автомата блокировки, хранится в документе пользователя.
	// Version растет на каждую запись и используется для условного обновления.
	LoginState struct {
		FailedAttempts int
		LastFailedAt   *time.Time
		BlockedUntil   *time.Time
		Version        int64
	}

	Link struct {
		Code      string // PRB1011 или legacy-идентификатор
		URL       string // нормализованный, уникальный
		UserID    string
		CreatedAt time.Time
	}

	Record struct {
		ID            int64
		ContactNumber string
		SourceName    string
		UserID        string
		Role          Role
		ImportID      string // correlation id пакетной загрузки
		CreatedAt     time.Time
	}

	// Identity - результат проверки токена на защищенном вызове.
	Identity struct {
		UserID string
		Role   Role
		Name   string
		Email  string
	}
)

func (u User) Identity() Identity {
	return Identity{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
		Email:  u.Email,
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
