// Package deps собирает внешние зависимости приложения: хранилище и сервисы поверх него.
package deps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"linkregistry/internal/config"
	"linkregistry/internal/http/server"
	"linkregistry/internal/repository"
	"linkregistry/internal/repository/inmemory"
	"linkregistry/internal/repository/mongo"
	"linkregistry/internal/repository/postgres"
	"linkregistry/internal/services/allocator"
	"linkregistry/internal/services/auth"
	"linkregistry/internal/services/links"
	"linkregistry/internal/services/password"
	"linkregistry/internal/services/records"
	"linkregistry/internal/services/token"
)

// OpenStorage открывает хранилище, выбранное в конфиге.
func OpenStorage(ctx context.Context, cfg config.Config, log *zerolog.Logger) (repository.Storage, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		store, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		log.Info().Msg("using postgres storage")
		return store, nil
	case config.StorageMongo:
		store, err := mongo.NewStorage(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo storage: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("using mongo storage")
		return store, nil
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, data will be lost on restart")
		return inmemory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// NewAllocator регистрирует оба счетчика: ссылки стартуют с PRB1011, записи с 1.
func NewAllocator(store repository.Storage) *allocator.Allocator {
	return allocator.New(store,
		allocator.Sequence{
			Name:    allocator.SequenceLinks,
			Seed:    allocator.LinkSeed,
			Current: allocator.LinkCurrent(store.LinkLatestCode),
		},
		allocator.Sequence{
			Name:    allocator.SequenceRecords,
			Seed:    allocator.RecordSeed,
			Current: store.RecordMaxID,
		},
	)
}

func NewServices(store repository.Storage, cfg config.Config, log *zerolog.Logger) (server.Services, error) {
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return server.Services{}, err
	}

	tokens, err := token.NewService([]byte(cfg.JWTSecretKey), cfg.JWTAccessExpire)
	if err != nil {
		return server.Services{}, err
	}

	authService, err := auth.NewService(store, hasher, tokens, log)
	if err != nil {
		return server.Services{}, err
	}

	alloc := NewAllocator(store)

	return server.Services{
		Auth:    authService,
		Links:   links.NewService(store, alloc, log),
		Records: records.NewService(store, alloc, log),
		Storage: store,
	}, nil
}
