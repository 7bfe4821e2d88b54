// Package repository provides the SQL-backed key/value store holding the
// catalog and trash collections, on PostgreSQL or embedded SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/atinyakov/rivone/internal/db"
)

// CatalogRepository implements key/value operations against the kv table.
type CatalogRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB

	driver string
}

// NewCatalogRepository creates a CatalogRepository using the provided *sql.DB.
// driver selects the SQL dialect and must match the driver db was opened with;
// an empty driver means PostgreSQL.
func NewCatalogRepository(conn *sql.DB, driver string) *CatalogRepository {
	if driver == "" {
		driver = db.DriverPostgres
	}
	return &CatalogRepository{DB: conn, driver: driver}
}

func (r *CatalogRepository) sqlite() bool {
	return r.driver == db.DriverSQLite
}

// placeholder returns the n-th (1-based) bind parameter for the dialect.
func (r *CatalogRepository) placeholder(n int) string {
	if r.sqlite() {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

func (r *CatalogRepository) upsertQuery() string {
	return `INSERT INTO kv (key, value, updated_at) VALUES (` + r.placeholder(1) + `, ` + r.placeholder(2) + `, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`
}

// Get fetches the raw value stored under key.
//
//	ctx: context for cancellation and deadlines
//	key: collection key
//
// Returns the value and true, or nil and false when the key does not exist.
func (r *CatalogRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := r.DB.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = `+r.placeholder(1), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// GetMany fetches several keys in a single query.
//
//	ctx:  context for cancellation and deadlines
//	keys: collection keys
//
// Returns a map holding only the keys that exist.
func (r *CatalogRepository) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	if r.sqlite() {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
		args := make([]any, len(keys))
		for i, k := range keys {
			args[i] = k
		}
		rows, err = r.DB.QueryContext(ctx, `SELECT key, value FROM kv WHERE key IN (`+marks+`)`, args...)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT key, value FROM kv WHERE key = ANY($1)`, pq.Array(keys))
	}
	if err != nil {
		return nil, fmt.Errorf("get many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out[key] = []byte(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get many: %w", err)
	}
	return out, nil
}

// Put inserts or replaces the value stored under key.
func (r *CatalogRepository) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.DB.ExecContext(ctx, r.upsertQuery(), key, string(value)); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// PutMany upserts every entry of values within one transaction, in key
// order. Either all keys are written or none.
//
//	ctx:    context for cancellation and deadlines
//	values: key to raw value
//
// Returns an error if any operation or the commit fails.
func (r *CatalogRepository) PutMany(ctx context.Context, values map[string][]byte) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := r.upsertQuery()
	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, query, k, string(values[k])); err != nil {
			return fmt.Errorf("put %q: %w", k, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
