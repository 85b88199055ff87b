// Package auth проверяет учетные данные, ведет блокировку после неудачных
// попыток входа и восстанавливает личность вызывающего по токену.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/services/token"
)

//go:generate mockgen -destination=../../mocks/mock_user_storage.go -package=mocks linkregistry/internal/services/auth UserStorage

type UserStorage interface {
	UserCreate(ctx context.Context, user models.User) (models.User, error)
	UserGetByEmail(ctx context.Context, email string) (models.User, error)
	UserGetByID(ctx context.Context, id string) (models.User, error)
	UserCompareAndSetLoginState(ctx context.Context, userID string, expectedVersion int64, next models.LoginState) (bool, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenService interface {
	Issue(userID string, role models.Role) (string, time.Time, error)
	Verify(tokenString string) (token.Claims, error)
}

// число повторов при конкурентном изменении состояния входа
const maxStateRetries = 5

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Role      models.Role
}

type Service struct {
	storage UserStorage
	hasher  PasswordHasher
	tokens  TokenService
	log     *zerolog.Logger
	now     func() time.Time

	// хеш для неизвестных email, чтобы время ответа не выдавало наличие пользователя
	dummyHash string
}

func NewService(storage UserStorage, hasher PasswordHasher, tokens TokenService, log *zerolog.Logger) (*Service, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Service{
		storage:   storage,
		hasher:    hasher,
		tokens:    tokens,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummy,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, input RegisterInput, role models.Role) (models.User, error) {
	if !role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", models.ErrInvalidData, role)
	}

	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("%w: name, email and password are required", models.ErrInvalidData)
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return models.User{}, fmt.Errorf("%w: malformed email", models.ErrInvalidData)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.storage.UserCreate(ctx, models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         role,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return user, nil
}

// Login проверяет пароль и ведет счетчик неудачных попыток. Состояние
// пишется условным обновлением по версии: при гонке перечитываем пользователя.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", models.ErrInvalidData)
	}

	var (
		passwordOK bool
		checked    bool
	)

	for attempt := 0; attempt < maxStateRetries; attempt++ {
		user, err := s.storage.UserGetByEmail(ctx, email)
		if errors.Is(err, models.ErrUnfound) {
			s.hasher.Verify(password, s.dummyHash)
			return LoginResult{}, models.ErrInvalidCredentials
		}
		if err != nil {
			return LoginResult{}, fmt.Errorf("failed to get user: %w", err)
		}

		now := s.now()
		if remaining, locked := LockRemaining(user.Login, now); locked {
			return LoginResult{}, &models.LockedError{Until: *user.Login.BlockedUntil, Remaining: remaining}
		}

		if !checked {
			passwordOK = s.hasher.Verify(password, user.PasswordHash)
			checked = true
		}

		next, outcome := Transition(user.Login, passwordOK, now)
		if !(outcome == OutcomeSuccess && isClean(user.Login)) {
			swapped, err := s.storage.UserCompareAndSetLoginState(ctx, user.ID, user.Login.Version, next)
			if err != nil {
				return LoginResult{}, fmt.Errorf("failed to save login state: %w", err)
			}
			if !swapped {
				continue
			}
		}

		switch outcome {
		case OutcomeLocked:
			s.log.Warn().Str("user_id", user.ID).Time("blocked_until", *next.BlockedUntil).Msg("account locked")
			return LoginResult{}, &models.LockedError{Until: *next.BlockedUntil, Remaining: LockoutDuration}
		case OutcomeRejected:
			return LoginResult{}, &models.CredentialsError{AttemptsRemaining: MaxFailedAttempts - next.FailedAttempts}
		}

		tok, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
		if err != nil {
			return LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
		}
		return LoginResult{Token: tok, ExpiresAt: expiresAt, Role: user.Role}, nil
	}

	return LoginResult{}, fmt.Errorf("%w: login state keeps changing", models.ErrConflict)
}

// Authenticate восстанавливает личность по токену. Роль берется из хранилища,
// а не из claims. Любая проблема с токеном или пользователем - ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return models.Identity{}, models.ErrInvalidToken
	}

	user, err := s.storage.UserGetByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrUnfound) {
		return models.Identity{}, models.ErrInvalidToken
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user.Identity(), nil
}
