package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// SQLite stores links in a local SQLite file
type SQLite struct {
	db   *sqlx.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	source_page TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	discovered_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_run ON links(run_id, sequence);
CREATE INDEX IF NOT EXISTS idx_links_discovered ON links(discovered_at);
`

// linkRow is the stored form of models.AcceptedLink
type linkRow struct {
	RunID        string `db:"run_id"`
	URL          string `db:"url"`
	SourcePage   string `db:"source_page"`
	Sequence     int    `db:"sequence"`
	DiscoveredAt string `db:"discovered_at"`
}

type runRow struct {
	RunID     string `db:"run_id"`
	Links     int    `db:"links"`
	StartedAt string `db:"started_at"`
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection serializes appends
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) Append(ctx context.Context, link models.AcceptedLink) error {
	row := linkRow{
		RunID:        link.RunID,
		URL:          link.URL,
		SourcePage:   link.SourcePage,
		Sequence:     link.Sequence,
		DiscoveredAt: formatTime(link.DiscoveredAt),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO links (run_id, url, source_page, sequence, discovered_at)
		VALUES (:run_id, :url, :source_page, :sequence, :discovered_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

func (s *SQLite) Links(ctx context.Context, runID string) ([]string, error) {
	urls := []string{}
	err := s.db.SelectContext(ctx, &urls,
		`SELECT url FROM links WHERE run_id = ? ORDER BY sequence, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return urls, nil
}

func (s *SQLite) Runs(ctx context.Context) ([]models.RunSummary, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, COUNT(*) AS links, MIN(discovered_at) AS started_at
		FROM links
		GROUP BY run_id
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs := make([]models.RunSummary, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, models.RunSummary{RunID: r.RunID, Links: r.Links, StartedAt: parseTime(r.StartedAt)})
	}
	return runs, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
