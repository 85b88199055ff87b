// Package links сопоставляет URL каноническим идентификаторам PRB и обратно.
package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/services/allocator"
)

// Status - итог сопоставления одного URL.
type Status string

const (
	StatusExisting  Status = "existing"
	StatusUpdated   Status = "updated_to_canonical"
	StatusCreated   Status = "created"
	StatusFailed    Status = "error"
	MaxBatchEntries        = 1000

	maxInsertAttempts = 5
)

type LinkStorage interface {
	LinkCreate(ctx context.Context, link models.Link) (models.Link, error)
	LinkGetByURL(ctx context.Context, url string) (models.Link, error)
	LinkGetByCode(ctx context.Context, code string) (models.Link, error)
	LinkSetCode(ctx context.Context, url, oldCode, newCode string) error
	LinkUpdateURL(ctx context.Context, code, url string) error
	LinkDelete(ctx context.Context, code string) error
}

type IDAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

type (
	Resolution struct {
		URL    string
		Code   string
		Status Status
	}

	// BatchResult - результат одной записи пакета; Err заполнен при Status == StatusFailed
	BatchResult struct {
		Resolution
		Err error
	}

	CodeResult struct {
		Code string
		URL  string
		Err  error // models.ErrUnfound для отсутствующего кода
	}
)

type Service struct {
	storage   LinkStorage
	allocator IDAllocator
	log       *zerolog.Logger
	now       func() time.Time
}

func NewService(storage LinkStorage, alloc IDAllocator, log *zerolog.Logger) *Service {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Service{
		storage:   storage,
		allocator: alloc,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeURL убирает пробелы и добавляет https:// если схемы нет.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "https://" + url
	}
	return url
}

func normalizeOrReject(raw string) (string, error) {
	url := NormalizeURL(raw)
	if url == "" || url == "http://" || url == "https://" {
		return "", fmt.Errorf("%w: empty url", models.ErrInvalidData)
	}
	return url, nil
}

// Add регистрирует новый URL; если он уже есть - ErrDuplicate.
func (s *Service) Add(ctx context.Context, owner models.Identity, rawURL string) (models.Link, error) {
	url, err := normalizeOrReject(rawURL)
	if err != nil {
		return models.Link{}, err
	}

	// проверка до выделения номера, чтобы повтор не сжигал идентификатор
	_, err = s.storage.LinkGetByURL(ctx, url)
	switch {
	case err == nil:
		return models.Link{}, fmt.Errorf("%w: link already exists", models.ErrDuplicate)
	case !errors.Is(err, models.ErrUnfound):
		return models.Link{}, fmt.Errorf("failed to get link: %w", err)
	}

	return s.create(ctx, owner, url)
}

func (s *Service) Update(ctx context.Context, code, rawURL string) (string, error) {
	url, err := normalizeOrReject(rawURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("%w: empty id", models.ErrInvalidData)
	}

	if err := s.storage.LinkUpdateURL(ctx, code, url); err != nil {
		return "", fmt.Errorf("failed to update link %s: %w", code, err)
	}
	return url, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty id", models.ErrInvalidData)
	}
	if err := s.storage.LinkDelete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete link %s: %w", code, err)
	}
	return nil
}

// ResolveOrCreate возвращает канонический код для URL, создавая или обновляя запись при необходимости.
func (s *Service) ResolveOrCreate(ctx context.Context, owner models.Identity, rawURL string) (Resolution, error) {
	url, err := normalizeOrReject(rawURL)
	if err != nil {
		return Resolution{}, err
	}

	link, err := s.storage.LinkGetByURL(ctx, url)
	switch {
	case err == nil:
		return s.reconcile(ctx, link)
	case !errors.Is(err, models.ErrUnfound):
		return Resolution{}, fmt.Errorf("failed to look up link: %w", err)
	}

	created, err := s.create(ctx, owner, url)
	if errors.Is(err, models.ErrDuplicate) {
		// URL успели вставить параллельно - работаем с существующей записью
		link, getErr := s.storage.LinkGetByURL(ctx, url)
		if getErr != nil {
			return Resolution{}, fmt.Errorf("failed to look up link: %w", getErr)
		}
		return s.reconcile(ctx, link)
	}
	if err != nil {
		return Resolution{}, err
	}

	return Resolution{URL: url, Code: created.Code, Status: StatusCreated}, nil
}

// reconcile переводит legacy-код в канонический формат.
func (s *Service) reconcile(ctx context.Context, link models.Link) (Resolution, error) {
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		if models.IsCanonicalCode(link.Code) {
			return Resolution{URL: link.URL, Code: link.Code, Status: StatusExisting}, nil
		}

		n, err := s.allocator.Next(ctx, allocator.SequenceLinks)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to allocate id: %w", err)
		}
		code := models.FormatCode(models.CanonicalPrefix, n)

		err = s.storage.LinkSetCode(ctx, link.URL, link.Code, code)
		switch {
		case err == nil:
			s.log.Info().
				Str("url", link.URL).
				Str("legacy_id", link.Code).
				Str("id", code).
				Msg("legacy link id upgraded")
			return Resolution{URL: link.URL, Code: code, Status: StatusUpdated}, nil
		case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrDuplicate):
			// кто-то поменял запись между чтением и записью - перечитываем
			link, err = s.storage.LinkGetByURL(ctx, link.URL)
			if err != nil {
				return Resolution{}, fmt.Errorf("failed to reload link: %w", err)
			}
		default:
			return Resolution{}, fmt.Errorf("failed to upgrade link id: %w", err)
		}
	}

	return Resolution{}, fmt.Errorf("%w: link %s keeps changing", models.ErrConflict, link.URL)
}

// create вставляет новую ссылку. Код может оказаться занят записью, созданной
// в обход счетчика, поэтому при дубликате кода пробуем следующий номер.
func (s *Service) create(ctx context.Context, owner models.Identity, url string) (models.Link, error) {
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		n, err := s.allocator.Next(ctx, allocator.SequenceLinks)
		if err != nil {
			return models.Link{}, fmt.Errorf("failed to allocate id: %w", err)
		}

		link := models.Link{
			Code:      models.FormatCode(models.CanonicalPrefix, n),
			URL:       url,
			UserID:    owner.UserID,
			CreatedAt: s.now(),
		}

		created, err := s.storage.LinkCreate(ctx, link)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, models.ErrDuplicate) {
			return models.Link{}, fmt.Errorf("failed to create link: %w", err)
		}

		if _, getErr := s.storage.LinkGetByURL(ctx, url); getErr == nil {
			return models.Link{}, fmt.Errorf("%w: link already exists", models.ErrDuplicate)
		}
	}

	return models.Link{}, fmt.Errorf("%w: no free id after %d attempts", models.ErrConflict, maxInsertAttempts)
}

// ResolveBatch обрабатывает записи по порядку и независимо: ошибка одной не прерывает остальные.
func (s *Service) ResolveBatch(ctx context.Context, owner models.Identity, rawURLs []string) ([]BatchResult, error) {
	if len(rawURLs) > MaxBatchEntries {
		return nil, fmt.Errorf("%w: at most %d links per request", models.ErrInvalidData, MaxBatchEntries)
	}

	results := make([]BatchResult, 0, len(rawURLs))
	for _, raw := range rawURLs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := s.ResolveOrCreate(ctx, owner, raw)
		if err != nil {
			s.log.Warn().Err(err).Str("link", raw).Msg("failed to resolve link")
			results = append(results, BatchResult{
				Resolution: Resolution{URL: NormalizeURL(raw), Status: StatusFailed},
				Err:        err,
			})
			continue
		}
		results = append(results, BatchResult{Resolution: res})
	}
	return results, nil
}

func (s *Service) ResolveByCode(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty id", models.ErrInvalidData)
	}

	link, err := s.storage.LinkGetByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to get link %s: %w", code, err)
	}
	return link.URL, nil
}

// ResolveCodes никогда не падает целиком из-за одной отсутствующей записи.
func (s *Service) ResolveCodes(ctx context.Context, codes []string) ([]CodeResult, error) {
	if len(codes) > MaxBatchEntries {
		return nil, fmt.Errorf("%w: at most %d ids per request", models.ErrInvalidData, MaxBatchEntries)
	}

	results := make([]CodeResult, 0, len(codes))
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		url, err := s.ResolveByCode(ctx, code)
		results = append(results, CodeResult{Code: code, URL: url, Err: err})
	}
	return results, nil
}
