// Package allocator выдает монотонные идентификаторы из счетчиков в хранилище.
//
// Каждое значение выдается атомарным инкрементом документа-счетчика, поэтому
// параллельные вызовы никогда не получают одинаковый номер. Счетчик создается
// лениво: при первом обращении берется текущий максимум из хранилища.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"linkregistry/internal/domain/models"
)

const (
	SequenceLinks   = "links"
	SequenceRecords = "records"

	LinkSeed   int64 = 1011
	RecordSeed int64 = 1
)

type SequenceStorage interface {
	SequenceInit(ctx context.Context, name string, value int64) error
	SequenceAdvance(ctx context.Context, name string, n int64) (int64, error)
}

// CurrentFunc возвращает наибольший уже выданный номер (0, если ничего нет).
type CurrentFunc func(ctx context.Context) (int64, error)

type Sequence struct {
	Name    string
	Seed    int64 // первое значение для пустого хранилища
	Current CurrentFunc
}

type Allocator struct {
	storage   SequenceStorage
	sequences map[string]Sequence
}

func New(storage SequenceStorage, sequences ...Sequence) *Allocator {
	m := make(map[string]Sequence, len(sequences))
	for _, s := range sequences {
		m[s.Name] = s
	}
	return &Allocator{
		storage:   storage,
		sequences: m,
	}
}

// Next выдает один номер.
func (a *Allocator) Next(ctx context.Context, name string) (int64, error) {
	first, _, err := a.Reserve(ctx, name, 1)
	return first, err
}

// Reserve резервирует n подряд идущих номеров [first, last].
func (a *Allocator) Reserve(ctx context.Context, name string, n int64) (first, last int64, err error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: reserve size must be positive", models.ErrInvalidData)
	}
	seq, ok := a.sequences[name]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown sequence %q", models.ErrInvalidData, name)
	}

	top, err := a.storage.SequenceAdvance(ctx, name, n)
	if errors.Is(err, models.ErrUnfound) {
		if err := a.initSequence(ctx, seq); err != nil {
			return 0, 0, err
		}
		top, err = a.storage.SequenceAdvance(ctx, name, n)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to advance sequence %q: %w", name, err)
	}

	return top - n + 1, top, nil
}

// initSequence создает счетчик. Если параллельный вызов успел раньше,
// SequenceInit ничего не меняет.
func (a *Allocator) initSequence(ctx context.Context, seq Sequence) error {
	start := seq.Seed - 1

	if seq.Current != nil {
		current, err := seq.Current(ctx)
		if err != nil {
			return fmt.Errorf("failed to read current maximum for %q: %w", seq.Name, err)
		}
		if current > start {
			start = current
		}
	}

	if err := a.storage.SequenceInit(ctx, seq.Name, start); err != nil {
		return fmt.Errorf("failed to init sequence %q: %w", seq.Name, err)
	}
	return nil
}

// LinkCurrent - номер самой новой канонической ссылки.
func LinkCurrent(latest func(ctx context.Context, prefix string) (string, error)) CurrentFunc {
	return func(ctx context.Context) (int64, error) {
		code, err := latest(ctx, models.CanonicalPrefix)
		if errors.Is(err, models.ErrUnfound) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		n, _ := models.ParseCode(models.CanonicalPrefix, code)
		return n, nil
	}
}
