package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"linkregistry/internal/domain/models"
)

const userColumns = `id, name, email, password_hash, role, failed_attempts, last_failed_at, blocked_until, login_version, created_at`

func (p *PostgresStorage) UserCreate(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" || user.Email == "" {
		return models.User{}, fmt.Errorf("%w: user id and email must not be empty", models.ErrInvalidData)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: email already registered", models.ErrDuplicate)
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (p *PostgresStorage) UserGetByEmail(ctx context.Context, email string) (models.User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (p *PostgresStorage) UserGetByID(ctx context.Context, id string) (models.User, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserCompareAndSetLoginState - условное обновление по login_version.
func (p *PostgresStorage) UserCompareAndSetLoginState(ctx context.Context, userID string, expectedVersion int64, next models.LoginState) (bool, error) {
	result, err := p.db.ExecContext(ctx, `
		UPDATE users
		SET failed_attempts = $3, last_failed_at = $4, blocked_until = $5, login_version = login_version + 1
		WHERE id = $1 AND login_version = $2`,
		userID, expectedVersion, next.FailedAttempts, nullTime(next.LastFailedAt), nullTime(next.BlockedUntil),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update login state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return false, models.ErrUnfound
	}
	return false, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		user         models.User
		role         string
		lastFailedAt sql.NullTime
		blockedUntil sql.NullTime
	)

	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role,
		&user.Login.FailedAttempts, &lastFailedAt, &blockedUntil, &user.Login.Version, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user not found", models.ErrUnfound)
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role)
	user.Login.LastFailedAt = timePtr(lastFailedAt)
	user.Login.BlockedUntil = timePtr(blockedUntil)
	return user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
