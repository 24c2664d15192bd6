package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizhub/aggregator/pkg/config"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("history store closed")

// Record is one provider's result in one probe run.
type Record struct {
	RunID    string    `json:"runId"`
	ProbedAt time.Time `json:"probedAt"`
	Provider string    `json:"provider"`
	API      string    `json:"api"`
	Status   string    `json:"status"`
	Series   int       `json:"series"`
	Error    string    `json:"error,omitempty"`
}

// Query selects records. Zero fields do not filter.
type Query struct {
	Provider string
	Since    time.Time
	Limit    int
}

// Store keeps probe records. Query returns the newest records first.
type Store interface {
	Append(ctx context.Context, records []Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// StoreError wraps a backend failure with the operation that failed.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s history store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Open creates the store selected by cfg.
func Open(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(SQLiteConfig{
			Driver:      cfg.Driver,
			Path:        cfg.Path,
			BusyTimeout: cfg.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
