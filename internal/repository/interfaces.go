package repository

import (
	"context"

	"linkregistry/internal/domain/models"
)

// Storage - хранилище документов Users / Links / Records / Sequences.
// Все координации между запросами делаются через атомарные операции над одним документом:
// уникальные индексы и условные обновления. Внутрипроцессных блокировок сервисы не держат.
type (
	Storage interface {
		UserStorage
		LinkStorage
		RecordStorage
		SequenceStorage

		Ping(ctx context.Context) error
		Close() error
	}

	UserStorage interface {
		// UserCreate возвращает ErrDuplicate, если email уже занят
		UserCreate(ctx context.Context, user models.User) (models.User, error)
		UserGetByEmail(ctx context.Context, email string) (models.User, error)
		UserGetByID(ctx context.Context, id string) (models.User, error)
		// UserCompareAndSetLoginState записывает next только если сохраненная версия равна expectedVersion.
		// next.Version игнорируется, в хранилище пишется expectedVersion+1.
		UserCompareAndSetLoginState(ctx context.Context, userID string, expectedVersion int64, next models.LoginState) (bool, error)
	}

	LinkStorage interface {
		// LinkCreate возвращает ErrDuplicate при совпадении URL или кода
		LinkCreate(ctx context.Context, link models.Link) (models.Link, error)
		LinkGetByURL(ctx context.Context, url string) (models.Link, error)
		LinkGetByCode(ctx context.Context, code string) (models.Link, error)
		// LinkSetCode меняет код только если текущий код равен oldCode, иначе ErrConflict
		LinkSetCode(ctx context.Context, url, oldCode, newCode string) error
		LinkUpdateURL(ctx context.Context, code, url string) error
		LinkDelete(ctx context.Context, code string) error
		// LinkLatestCode - самый новый по created_at код вида prefix+digits
		LinkLatestCode(ctx context.Context, prefix string) (string, error)
	}

	RecordStorage interface {
		RecordMaxID(ctx context.Context) (int64, error)
		// RecordInsertMany вставляет без транзакции и возвращает точное число сохраненных записей
		// даже вместе с ошибкой.
		RecordInsertMany(ctx context.Context, records []models.Record) (int, error)
		RecordCountByImport(ctx context.Context, importID string) (int, error)
		RecordFindByContacts(ctx context.Context, contacts []string) ([]models.Record, error)
	}

	SequenceStorage interface {
		// SequenceInit создает счетчик со значением value, если его еще нет
		SequenceInit(ctx context.Context, name string, value int64) error
		// SequenceAdvance атомарно прибавляет n и возвращает новое значение; ErrUnfound если счетчика нет
		SequenceAdvance(ctx context.Context, name string, n int64) (int64, error)
	}
)
