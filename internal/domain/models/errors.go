package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidData        = errors.New("invalid input data")
	ErrUnfound            = errors.New("not found")
	ErrConflict           = errors.New("concurrent modification")
	ErrDuplicate          = errors.New("duplicate resource")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
)

// CredentialsError - неверный пароль, с количеством оставшихся попыток до блокировки.
type CredentialsError struct {
	AttemptsRemaining int
}

func (e *CredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials: %d attempts remaining", e.AttemptsRemaining)
}

func (e *CredentialsError) Unwrap() error {
	return ErrInvalidCredentials
}

// LockedError - аккаунт заблокирован до Until.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %s", e.Remaining.Round(time.Minute))
}

func (e *LockedError) Unwrap() error {
	return ErrAccountLocked
}

// HoursRemaining округляет вверх, чтобы 30 минут не превращались в "0 часов".
func (e *LockedError) HoursRemaining() int {
	h := int(e.Remaining / time.Hour)
	if e.Remaining%time.Hour > 0 {
		h++
	}
	return h
}
