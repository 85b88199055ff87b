package records

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/repository/inmemory"
	"linkregistry/internal/services/allocator"
)

var owner = models.Identity{UserID: "owner-1", Role: models.RoleMain}

func newTestService(t *testing.T, storage RecordStorage, maxID func(context.Context) (int64, error), seq allocator.SequenceStorage) *Service {
	t.Helper()
	alloc := allocator.New(seq, allocator.Sequence{
		Name:    allocator.SequenceRecords,
		Seed:    allocator.RecordSeed,
		Current: maxID,
	})
	return NewService(storage, alloc, nil)
}

func inputs(n int) []RecordInput {
	in := make([]RecordInput, n)
	for i := range in {
		in[i] = RecordInput{ContactNumber: fmt.Sprintf("+7900000%04d", i), SourceName: "crm"}
	}
	return in
}

func TestService_BulkImport_ContinuesFromMax(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()

	existing := make([]models.Record, 5)
	for i := range existing {
		existing[i] = models.Record{ID: int64(i + 1), ContactNumber: "old"}
	}
	_, err := store.RecordInsertMany(ctx, existing)
	require.NoError(t, err)

	svc := newTestService(t, store, store.RecordMaxID, store)

	res, err := svc.BulkImport(ctx, owner, inputs(10))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Inserted)
	assert.Equal(t, 0, res.Skipped)
	assert.NotEmpty(t, res.ImportID)

	maxID, err := store.RecordMaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), maxID)

	found, err := svc.FetchByContacts(ctx, []string{"+79000000000", "+79000000009"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, int64(6), found[0].ID)
	assert.Equal(t, int64(15), found[1].ID)
	assert.Equal(t, owner.UserID, found[0].UserID)
	assert.Equal(t, models.RoleMain, found[0].Role)
	assert.Equal(t, res.ImportID, found[0].ImportID)
}

func TestService_BulkImport_EmptyStoreStartsAtOne(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()
	svc := newTestService(t, store, store.RecordMaxID, store)

	_, err := svc.BulkImport(ctx, owner, inputs(3))
	require.NoError(t, err)

	found, err := svc.FetchByContacts(ctx, []string{"+79000000000"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)
}

func TestService_BulkImport_SkipsEmptyContacts(t *testing.T) {
	store := inmemory.NewStorage()
	svc := newTestService(t, store, store.RecordMaxID, store)

	res, err := svc.BulkImport(context.Background(), owner, []RecordInput{
		{ContactNumber: "111"},
		{ContactNumber: "   "},
		{ContactNumber: "222"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	res, err = svc.BulkImport(context.Background(), owner, []RecordInput{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestService_BulkImport_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()
	svc := newTestService(t, store, store.RecordMaxID, store)

	_, err := svc.BulkImport(ctx, owner, inputs(5)) // ids 1..5
	require.NoError(t, err)

	// запись с id 8 появилась в обход счетчика
	_, err = store.RecordInsertMany(ctx, []models.Record{{ID: 8, ContactNumber: "foreign"}})
	require.NoError(t, err)

	res, err := svc.BulkImport(ctx, owner, inputs(5)) // ids 6..10
	require.NoError(t, err)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
}

// unreliableStorage сохраняет записи, но сообщает об ошибке и неверном счетчике.
type unreliableStorage struct {
	*inmemory.InmemoryStorage
}

func (u unreliableStorage) RecordInsertMany(ctx context.Context, records []models.Record) (int, error) {
	if _, err := u.InmemoryStorage.RecordInsertMany(ctx, records); err != nil {
		return 0, err
	}
	return 0, errors.New("write concern timeout")
}

func TestService_BulkImport_RecountsAfterStoreError(t *testing.T) {
	store := inmemory.NewStorage()
	svc := newTestService(t, unreliableStorage{store}, store.RecordMaxID, store)

	res, err := svc.BulkImport(context.Background(), owner, inputs(7))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Inserted)
	assert.Equal(t, 0, res.Skipped)
}

func TestService_BulkImport_TooMany(t *testing.T) {
	store := inmemory.NewStorage()
	svc := newTestService(t, store, store.RecordMaxID, store)

	_, err := svc.BulkImport(context.Background(), owner, make([]RecordInput, MaxImportRecords+1))
	assert.ErrorIs(t, err, models.ErrInvalidData)
}

func TestService_FetchByContacts(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStorage()
	svc := newTestService(t, store, store.RecordMaxID, store)

	_, err := svc.BulkImport(ctx, owner, []RecordInput{{ContactNumber: "111"}, {ContactNumber: "111"}, {ContactNumber: "222"}})
	require.NoError(t, err)

	found, err := svc.FetchByContacts(ctx, []string{" 111 ", "111", "", "999"})
	require.NoError(t, err)
	assert.Len(t, found, 2, "обе записи с номером 111")

	found, err = svc.FetchByContacts(ctx, []string{"", "  "})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	_, err = svc.FetchByContacts(ctx, make([]string, MaxFetchContacts+1))
	assert.ErrorIs(t, err, models.ErrInvalidData)
}
