// Package token выпускает и проверяет сессионные JWT (HS256).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"linkregistry/internal/domain/models"
)

const (
	DefaultTTL   = 24 * time.Hour
	MinSecretLen = 32
)

type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	RoleID models.Role `json:"role_id"`
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration) (*Service, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes", MinSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	// копия, чтобы вызывающий не мог поменять ключ после старта
	key := make([]byte, len(secret))
	copy(key, secret)

	return &Service{
		secret: key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue возвращает подписанный токен и момент его истечения.
func (s *Service) Issue(userID string, role models.Role) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, models.ErrInvalidData
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		RoleID: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify никогда не сообщает, какая именно проверка не прошла - всегда ErrInvalidToken.
func (s *Service) Verify(tokenString string) (Claims, error) {
	claims := Claims{}

	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return Claims{}, models.ErrInvalidToken
	}

	return claims, nil
}
