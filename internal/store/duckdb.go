package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/azye/tabdog/internal/db"
	"pkt.systems/pslog"
)

// DuckDB keeps each record as one row of the kv table.
type DuckDB struct {
	db  *sql.DB
	log pslog.Logger
}

// NewDuckDB opens a DuckDB-backed store. An empty path is in-memory.
func NewDuckDB(ctx context.Context, path string) (*DuckDB, error) {
	return NewDuckDBWithLogger(ctx, path, nil)
}

// NewDuckDBWithLogger opens a DuckDB-backed store with logging.
func NewDuckDBWithLogger(ctx context.Context, path string, logger pslog.Logger) (*DuckDB, error) {
	conn, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("store", BackendDuckDB, "store_path", path)
	}
	return &DuckDB{db: conn, log: logger}, nil
}

// Get selects the requested keys.
func (d *DuckDB) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]interface{}, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`SELECT key, value FROM kv WHERE key IN (%s)`, placeholders), args...)
	if err != nil {
		if d.log != nil {
			d.log.Warn("store load failed", "err", err)
		}
		return nil, fmt.Errorf("failed to query kv: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read kv rows: %w", err)
	}
	if d.log != nil {
		d.log.Debug("store load ok", "keys", len(out))
	}
	return out, nil
}

// Set upserts all values in one transaction.
func (d *DuckDB) Set(ctx context.Context, values map[string]json.RawMessage) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, string(value)); err != nil {
			_ = tx.Rollback()
			if d.log != nil {
				d.log.Warn("store save failed", "key", key, "err", err)
			}
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		if d.log != nil {
			d.log.Warn("store save failed", "err", err)
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	if d.log != nil {
		d.log.Trace("store save ok", "keys", len(values))
	}
	return nil
}

// Close closes the database.
func (d *DuckDB) Close() error {
	return d.db.Close()
}
