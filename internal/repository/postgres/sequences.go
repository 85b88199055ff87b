package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"linkregistry/internal/domain/models"
)

func (p *PostgresStorage) SequenceInit(ctx context.Context, name string, value int64) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sequences (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to init sequence: %w", err)
	}
	return nil
}

func (p *PostgresStorage) SequenceAdvance(ctx context.Context, name string, n int64) (int64, error) {
	if n <= 0 {
		return 0, models.ErrInvalidData
	}

	var value int64
	err := p.db.QueryRowContext(ctx, `
		UPDATE sequences SET value = value + $2
		WHERE name = $1
		RETURNING value`,
		name, n,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, models.ErrUnfound
		}
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	return value, nil
}
