package postgres

import (
	"context"
	"fmt"
	"time"

	"linkregistry/internal/domain/models"
)

func (p *PostgresStorage) RecordMaxID(ctx context.Context) (int64, error) {
	var maxID int64
	if err := p.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM records`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to get max record id: %w", err)
	}
	return maxID, nil
}

// RecordInsertMany вставляет пачку одним запросом через unnest. Строки с занятым id
// пропускаются, число вставленных считается по RETURNING.
func (p *PostgresStorage) RecordInsertMany(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var (
		ids       = make([]int64, len(records))
		contacts  = make([]string, len(records))
		sources   = make([]string, len(records))
		users     = make([]string, len(records))
		roles     = make([]string, len(records))
		imports   = make([]string, len(records))
		createdAt = make([]time.Time, len(records))
	)
	for i, r := range records {
		ids[i] = r.ID
		contacts[i] = r.ContactNumber
		sources[i] = r.SourceName
		users[i] = r.UserID
		roles[i] = string(r.Role)
		imports[i] = r.ImportID
		createdAt[i] = r.CreatedAt
	}

	rows, err := p.db.QueryContext(ctx, `
		INSERT INTO records (id, contact_number, source_name, user_id, role, import_id, created_at)
		SELECT * FROM unnest($1::bigint[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::timestamptz[])
		ON CONFLICT (id) DO NOTHING
		RETURNING id`,
		ids, contacts, sources, users, roles, imports, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert records: %w", err)
	}
	defer rows.Close()

	inserted := 0
	for rows.Next() {
		inserted++
	}
	if err := rows.Err(); err != nil {
		return inserted, fmt.Errorf("rows iteration error: %w", err)
	}

	if inserted < len(records) {
		return inserted, fmt.Errorf("%w: %d records skipped", models.ErrDuplicate, len(records)-inserted)
	}
	return inserted, nil
}

func (p *PostgresStorage) RecordCountByImport(ctx context.Context, importID string) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE import_id = $1`, importID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (p *PostgresStorage) RecordFindByContacts(ctx context.Context, contacts []string) ([]models.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, contact_number, source_name, user_id, role, import_id, created_at
		FROM records
		WHERE contact_number = ANY($1)
		ORDER BY id`,
		contacts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		var (
			r    models.Record
			role string
		)
		if err := rows.Scan(&r.ID, &r.ContactNumber, &r.SourceName, &r.UserID, &role, &r.ImportID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Role = models.Role(role)
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return result, nil
}
