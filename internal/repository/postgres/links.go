package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"linkregistry/internal/domain/models"
)

func (p *PostgresStorage) LinkCreate(ctx context.Context, link models.Link) (models.Link, error) {
	if link.URL == "" || link.Code == "" {
		return models.Link{}, fmt.Errorf("%w: link url and id must not be empty", models.ErrInvalidData)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO links (code, url, user_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		link.Code, link.URL, link.UserID, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Link{}, fmt.Errorf("%w: link url or id already exists", models.ErrDuplicate)
		}
		return models.Link{}, fmt.Errorf("failed to insert link: %w", err)
	}

	return link, nil
}

func (p *PostgresStorage) LinkGetByURL(ctx context.Context, url string) (models.Link, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT code, url, user_id, created_at FROM links WHERE url = $1`, url)
	return scanLink(row)
}

func (p *PostgresStorage) LinkGetByCode(ctx context.Context, code string) (models.Link, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT code, url, user_id, created_at FROM links WHERE code = $1`, code)
	return scanLink(row)
}

// LinkSetCode меняет код только если он все еще равен oldCode.
func (p *PostgresStorage) LinkSetCode(ctx context.Context, url, oldCode, newCode string) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE links SET code = $3 WHERE url = $1 AND code = $2`,
		url, oldCode, newCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: id %s already taken", models.ErrDuplicate, newCode)
		}
		return fmt.Errorf("failed to update link id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	if _, err := p.LinkGetByURL(ctx, url); err != nil {
		return err
	}
	return fmt.Errorf("%w: link id changed", models.ErrConflict)
}

func (p *PostgresStorage) LinkUpdateURL(ctx context.Context, code, url string) error {
	result, err := p.db.ExecContext(ctx, `UPDATE links SET url = $2 WHERE code = $1`, code, url)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: url already registered", models.ErrDuplicate)
		}
		return fmt.Errorf("failed to update link: %w", err)
	}
	return expectOneRow(result)
}

func (p *PostgresStorage) LinkDelete(ctx context.Context, code string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM links WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return expectOneRow(result)
}

// LinkLatestCode - код самой новой ссылки вида prefix+цифры.
func (p *PostgresStorage) LinkLatestCode(ctx context.Context, prefix string) (string, error) {
	pattern := "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"

	var code string
	err := p.db.QueryRowContext(ctx, `
		SELECT code FROM links
		WHERE code ~ $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`,
		pattern,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.ErrUnfound
		}
		return "", fmt.Errorf("failed to get latest link id: %w", err)
	}
	return code, nil
}

func scanLink(row *sql.Row) (models.Link, error) {
	var link models.Link
	if err := row.Scan(&link.Code, &link.URL, &link.UserID, &link.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Link{}, fmt.Errorf("%w: link not found", models.ErrUnfound)
		}
		return models.Link{}, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: link not found", models.ErrUnfound)
	}
	return nil
}
