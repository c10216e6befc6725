package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ashendes/restaurant-ordering/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	data    []byte
	saveErr error
	loadErr error
	saves   int
}

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) Load(ctx context.Context) ([]byte, error) {
	return m.data, m.loadErr
}

func (m *memBackend) Save(ctx context.Context, data []byte) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func record(id, txn string, total string) models.OrderRecord {
	return models.OrderRecord{
		ID:            id,
		TransactionID: txn,
		Items: []models.CartItem{{
			ID:       "7",
			Dish:     models.Dish{ID: "7", Name: "Dal", Price: decimal.RequireFromString("99.99"), Rating: 4, CuisineType: "Indian"},
			Quantity: 2,
		}},
		GrandTotal: decimal.RequireFromString(total),
		Date:       time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	}
}

func assertSameRecord(t *testing.T, want, got models.OrderRecord) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.TransactionID, got.TransactionID)
	assert.True(t, want.GrandTotal.Equal(got.GrandTotal), "grand total %s vs %s", want.GrandTotal, got.GrandTotal)
	assert.True(t, want.Date.Equal(got.Date))
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.Equal(t, want.Items[i].ID, got.Items[i].ID)
		assert.Equal(t, want.Items[i].Quantity, got.Items[i].Quantity)
		assert.True(t, want.Items[i].Dish.Price.Equal(got.Items[i].Dish.Price))
	}
}

func TestStore_AppendPrependsAndPersists(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	assert.Empty(t, store.Load())

	require.NoError(t, store.Append(context.Background(), record("a", "TXN1", "105")))
	require.NoError(t, store.Append(context.Background(), record("b", "TXN2", "209.979")))

	got := store.Load()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, 2, backend.saves)

	reopened, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	reloaded := reopened.Load()
	require.Len(t, reloaded, 2)
	assertSameRecord(t, got[0], reloaded[0])
	assertSameRecord(t, got[1], reloaded[1])
}

func TestStore_FailedSaveLeavesMemoryUnchanged(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), record("a", "TXN1", "105")))

	backend.saveErr = errors.New("disk full")
	err = store.Append(context.Background(), record("b", "TXN2", "10"))
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.saveErr)

	got := store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, 1, store.Len())
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	store, err := NewStore(context.Background(), &memBackend{})
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), record("a", "TXN1", "105")))

	first := store.Load()
	second := store.Load()
	assert.Equal(t, first, second)

	first[0].Items[0].Quantity = 99
	assert.Equal(t, 2, store.Load()[0].Items[0].Quantity)
}

func TestNewStore_Errors(t *testing.T) {
	_, err := NewStore(context.Background(), &memBackend{loadErr: errors.New("unreachable")})
	assert.Error(t, err)

	_, err = NewStore(context.Background(), &memBackend{data: []byte("{not json")})
	assert.ErrorIs(t, err, ErrCorruptHistory)
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.json")
	store, err := NewStore(context.Background(), NewFileBackend(path))
	require.NoError(t, err)

	rec := record("a", "TXN123", "209.979")
	require.NoError(t, store.Append(context.Background(), rec))

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewStore(context.Background(), NewFileBackend(path))
	require.NoError(t, err)
	got := reopened.Load()
	require.Len(t, got, 1)
	assertSameRecord(t, rec, got[0])

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backend := NewRedisBackend(client, "")
	data, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)

	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), record("a", "TXN1", "105")))

	raw, err := mr.Get(DefaultKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"transaction_id":"TXN1"`)

	mr.SetError("READONLY")
	err = store.Append(context.Background(), record("b", "TXN2", "1"))
	assert.Error(t, err)
	mr.SetError("")
	assert.Equal(t, 1, store.Len())
}

func TestPostgresBackend(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend := NewPostgresBackend(db, "")

	mock.ExpectExec(regexp.QuoteMeta(createTableSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, backend.EnsureSchema(context.Background()))

	mock.ExpectQuery(regexp.QuoteMeta(selectPayloadSQL)).
		WithArgs(DefaultKey).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(upsertPayloadSQL)).
		WithArgs(DefaultKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Append(context.Background(), record("a", "TXN1", "105")))

	mock.ExpectExec(regexp.QuoteMeta(upsertPayloadSQL)).
		WithArgs(DefaultKey, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	assert.Error(t, store.Append(context.Background(), record("b", "TXN2", "1")))
	assert.Equal(t, 1, store.Len())

	mock.ExpectQuery(regexp.QuoteMeta(selectPayloadSQL)).
		WithArgs(DefaultKey).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`[{"id":"a","transaction_id":"TXN1","items":[],"grand_total":"105","date":"2026-10-17T12:00:00Z"}]`)))
	reopened, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	require.Len(t, reopened.Load(), 1)
	assert.Equal(t, "TXN1", reopened.Load()[0].TransactionID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
