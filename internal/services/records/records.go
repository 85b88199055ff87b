// Package records импортирует контактные записи пачками и ищет их по номеру.
package records

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/services/allocator"
)

const (
	MaxImportRecords = 1_000_000
	MaxFetchContacts = 1000

	insertChunkSize = 5000
)

type RecordStorage interface {
	RecordInsertMany(ctx context.Context, records []models.Record) (int, error)
	RecordCountByImport(ctx context.Context, importID string) (int, error)
	RecordFindByContacts(ctx context.Context, contacts []string) ([]models.Record, error)
}

type IDReserver interface {
	Reserve(ctx context.Context, name string, n int64) (first, last int64, err error)
}

type RecordInput struct {
	ContactNumber string
	SourceName    string
}

type ImportResult struct {
	ImportID string
	Inserted int
	Skipped  int
}

type Service struct {
	storage  RecordStorage
	reserver IDReserver
	log      *zerolog.Logger
	now      func() time.Time
}

func NewService(storage RecordStorage, reserver IDReserver, log *zerolog.Logger) *Service {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Service{
		storage:  storage,
		reserver: reserver,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// BulkImport резервирует диапазон номеров одним инкрементом счетчика и вставляет
// записи без транзакции. Частичная вставка не откатывается: Inserted - сколько
// строк реально сохранено, Skipped - все остальные.
func (s *Service) BulkImport(ctx context.Context, owner models.Identity, input []RecordInput) (ImportResult, error) {
	if len(input) > MaxImportRecords {
		return ImportResult{}, fmt.Errorf("%w: at most %d records per upload", models.ErrInvalidData, MaxImportRecords)
	}

	result := ImportResult{ImportID: uuid.NewString()}

	valid := make([]RecordInput, 0, len(input))
	for _, in := range input {
		contact := strings.TrimSpace(in.ContactNumber)
		if contact == "" {
			continue
		}
		valid = append(valid, RecordInput{ContactNumber: contact, SourceName: strings.TrimSpace(in.SourceName)})
	}

	if len(valid) == 0 {
		result.Skipped = len(input)
		return result, nil
	}

	first, _, err := s.reserver.Reserve(ctx, allocator.SequenceRecords, int64(len(valid)))
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to reserve record ids: %w", err)
	}

	createdAt := s.now()
	batch := make([]models.Record, len(valid))
	for i, in := range valid {
		batch[i] = models.Record{
			ID:            first + int64(i),
			ContactNumber: in.ContactNumber,
			SourceName:    in.SourceName,
			UserID:        owner.UserID,
			Role:          owner.Role,
			ImportID:      result.ImportID,
			CreatedAt:     createdAt,
		}
	}

	inserted, failed := 0, false
	for start := 0; start < len(batch); start += insertChunkSize {
		end := min(start+insertChunkSize, len(batch))

		n, err := s.storage.RecordInsertMany(ctx, batch[start:end])
		inserted += n
		if err != nil {
			failed = true
			s.log.Warn().Err(err).
				Str("import_id", result.ImportID).
				Int("chunk_start", start).
				Int("chunk_inserted", n).
				Msg("record chunk partially inserted")
		}
	}

	if failed {
		// счетчик из ответа хранилища при ошибке ненадежен, пересчитываем по import_id
		recount, err := s.storage.RecordCountByImport(ctx, result.ImportID)
		if err != nil {
			s.log.Error().Err(err).Str("import_id", result.ImportID).Msg("failed to recount imported records")
		} else {
			inserted = recount
		}
	}

	result.Inserted = inserted
	result.Skipped = len(input) - inserted

	s.log.Info().
		Str("import_id", result.ImportID).
		Str("user_id", owner.UserID).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("records imported")

	return result, nil
}

// FetchByContacts возвращает записи по номерам, пустые и повторяющиеся номера отбрасываются.
func (s *Service) FetchByContacts(ctx context.Context, contacts []string) ([]models.Record, error) {
	if len(contacts) > MaxFetchContacts {
		return nil, fmt.Errorf("%w: at most %d contact numbers per request", models.ErrInvalidData, MaxFetchContacts)
	}

	seen := make(map[string]struct{}, len(contacts))
	wanted := make([]string, 0, len(contacts))
	for _, c := range contacts {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		wanted = append(wanted, c)
	}

	if len(wanted) == 0 {
		return []models.Record{}, nil
	}

	found, err := s.storage.RecordFindByContacts(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	if found == nil {
		found = []models.Record{}
	}
	return found, nil
}
