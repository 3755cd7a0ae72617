// Package vulncache keeps a local SQLite mirror of reduced vulnerability
// records, fed by bulk dump loads and by write-through caching of
// exact-id feed lookups.
package vulncache

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteCache implements ports.VulnerabilityCache using SQLite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database at dbPath.
// ":memory:" works for tests.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// GetByID retrieves a cached record. Identifiers are matched
// case-insensitively; ports.ErrNotFound signals a cache miss.
func (c *SQLiteCache) GetByID(ctx context.Context, id string) (*domain.VulnerabilityRecord, error) {
	query := `
		SELECT id, title, description, cvss_score, published
		FROM vulnerability_records
		WHERE id = ?
	`

	row := c.db.QueryRowContext(ctx, query, strings.ToUpper(id))

	var rec domain.VulnerabilityRecord
	var published string
	err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.CVSSScore, &published)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	if published != "" {
		rec.Published, _ = time.Parse(time.RFC3339, published)
	}
	return &rec, nil
}

// UpsertRecord inserts or updates one record, keyed by its uppercased
// identifier.
func (c *SQLiteCache) UpsertRecord(ctx context.Context, rec domain.VulnerabilityRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	query := `
		INSERT INTO vulnerability_records (id, title, description, cvss_score, published)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			cvss_score = excluded.cvss_score,
			published = excluded.published,
			updated_at = CURRENT_TIMESTAMP
	`

	published := ""
	if !rec.Published.IsZero() {
		published = rec.Published.Format(time.RFC3339)
	}

	_, err := c.db.ExecContext(ctx, query,
		strings.ToUpper(rec.ID), rec.Title, rec.Description, rec.CVSSScore, published,
	)
	return err
}

// GetLastSyncTime returns the timestamp of the last bulk load. Zero time
// means the cache has never been seeded.
func (c *SQLiteCache) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	var lastSync string
	err := c.db.QueryRowContext(ctx, "SELECT last_sync_time FROM feed_sync_status WHERE id = 1").Scan(&lastSync)
	if err != nil {
		return time.Time{}, err
	}
	if lastSync == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, lastSync)
}

// UpdateSyncStatus records the outcome of a bulk load.
func (c *SQLiteCache) UpdateSyncStatus(ctx context.Context, status domain.FeedSyncStatus) error {
	query := `
		UPDATE feed_sync_status
		SET last_sync_time = ?,
		    record_count = ?,
		    error_message = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`

	_, err := c.db.ExecContext(ctx, query,
		status.LastSyncTime.Format(time.RFC3339),
		status.RecordCount,
		status.ErrorMessage,
	)
	return err
}

// GetTotalCount returns the number of cached records.
func (c *SQLiteCache) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vulnerability_records").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
