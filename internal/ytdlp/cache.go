package ytdlp

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Cache stores extracted video info keyed by URL.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// OpenCache opens (creating if needed) the sqlite info cache at path.
func OpenCache(ctx context.Context, path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache %s: %w", path, err)
	}

	c := &Cache{db: db, now: time.Now}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache %s: %w", path, err)
	}
	return c, nil
}

// migrate applies the embedded goose migrations.
func (c *Cache) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, c.db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached info for url if it is younger than maxAge.
// A maxAge <= 0 accepts any age.
func (c *Cache) Get(ctx context.Context, url string, maxAge time.Duration) (map[string]any, bool, error) {
	var (
		raw       string
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT info, fetched_at FROM video_info WHERE url = ?`, url,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query video info: %w", err)
	}

	if maxAge > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	info, err := decodeInfo([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("decode cached info for %s: %w", url, err)
	}
	return info, true, nil
}

// Put stores info for url, replacing any previous row.
func (c *Cache) Put(ctx context.Context, url, videoID string, info map[string]any) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode video info: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO video_info (url, video_id, info, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			video_id = excluded.video_id,
			info = excluded.info,
			fetched_at = excluded.fetched_at
	`, url, videoID, string(raw), c.now().Unix())
	if err != nil {
		return fmt.Errorf("store video info: %w", err)
	}
	return nil
}

// Purge deletes rows older than maxAge and reports how many were removed.
func (c *Cache) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := c.now().Add(-maxAge).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM video_info WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge video info: %w", err)
	}
	return res.RowsAffected()
}
