package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// Postgres stores links in a PostgreSQL database
type Postgres struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS links (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	source_page TEXT NOT NULL,
	sequence INTEGER NOT NULL,
	discovered_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_run ON links(run_id, sequence);
CREATE INDEX IF NOT EXISTS idx_links_discovered ON links(discovered_at);
`

// OpenPostgres connects to dsn and creates the schema if needed.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Append(ctx context.Context, link models.AcceptedLink) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO links (run_id, url, source_page, sequence, discovered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		link.RunID, link.URL, link.SourcePage, link.Sequence, link.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

func (p *Postgres) Links(ctx context.Context, runID string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT url FROM links WHERE run_id = $1 ORDER BY sequence, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan links: %w", err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return urls, nil
}

func (p *Postgres) Runs(ctx context.Context) ([]models.RunSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT run_id, COUNT(*)::int AS links, MIN(discovered_at) AS started_at
		FROM links
		GROUP BY run_id
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.RunSummary])
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return runs, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
