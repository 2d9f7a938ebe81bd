package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amosWeiskopf/linkharvest/internal/config"
	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// ErrRunNotFound is returned by Links when a run has no stored links.
var ErrRunNotFound = errors.New("run not found")

// Store is an append-only log of accepted links
type Store interface {
	// Append records one link. Safe for concurrent use.
	Append(ctx context.Context, link models.AcceptedLink) error

	// Links returns the URLs of a run ordered by sequence.
	Links(ctx context.Context, runID string) ([]string, error)

	// Runs lists stored runs, most recent first.
	Runs(ctx context.Context) ([]models.RunSummary, error)

	Close() error
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Open returns the store selected by cfg.Type
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "", "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageType, cfg.Type)
	}
}
