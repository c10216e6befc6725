package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS order_history (
	storage_key TEXT PRIMARY KEY,
	payload     BYTEA NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectPayloadSQL = `SELECT payload FROM order_history WHERE storage_key = $1`
	upsertPayloadSQL = `INSERT INTO order_history (storage_key, payload, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
)

// OpenPostgres connects with lib/pq and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// PostgresBackend keeps the history as one row keyed by the storage key
type PostgresBackend struct {
	db  *sql.DB
	key string
}

func NewPostgresBackend(db *sql.DB, key string) *PostgresBackend {
	if key == "" {
		key = DefaultKey
	}
	return &PostgresBackend{db: db, key: key}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// EnsureSchema creates the history table when missing
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create order_history table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, selectPayloadSQL, b.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select order history: %w", err)
	}
	return payload, nil
}

func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	if _, err := b.db.ExecContext(ctx, upsertPayloadSQL, b.key, data); err != nil {
		return fmt.Errorf("upsert order history: %w", err)
	}
	return nil
}
