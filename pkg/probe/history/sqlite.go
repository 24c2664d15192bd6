package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)
)

// SQLiteConfig configures the SQLite history store.
type SQLiteConfig struct {
	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3).
	Driver string

	// Path is the database file, or ":memory:".
	Path string

	// BusyTimeout is how long to wait on a locked database.
	BusyTimeout time.Duration
}

// SQLiteStore persists probe records in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger

	mu         sync.RWMutex
	insertStmt *sql.Stmt
	closed     bool
}

// OpenSQLite opens or creates the database and applies the schema.
func OpenSQLite(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, &StoreError{Backend: "sqlite", Op: "open", Err: errors.New("path cannot be empty")}
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, &StoreError{Backend: cfg.Driver, Op: "open", Err: err}
	}
	// One connection: pragmas are per connection, and SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		driver: cfg.Driver,
		logger: slog.Default().With("component", "probe.history", "driver", cfg.Driver),
	}
	if err := s.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("probe history store opened", "path", cfg.Path)
	return s, nil
}

func (s *SQLiteStore) initialize(cfg SQLiteConfig) error {
	if cfg.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return s.fail("enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		return s.fail("set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return s.fail("create_schema", err)
	}
	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixMilli()); err != nil {
		return s.fail("insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return s.fail("get_schema_version", err)
	}
	if version != SchemaVersion {
		return s.fail("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	stmt, err := s.db.Prepare(insertRecord)
	if err != nil {
		return s.fail("prepare_insert", err)
	}
	s.insertStmt = stmt
	return nil
}

// Append stores records in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, records []Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("begin", err)
	}
	stmt := tx.StmtContext(ctx, s.insertStmt)
	for _, r := range records {
		var errVal any
		if r.Error != "" {
			errVal = r.Error
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.ProbedAt.UnixMilli(), r.Provider, r.API, r.Status, r.Series, errVal,
		); err != nil {
			_ = tx.Rollback()
			return s.fail("append", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return s.fail("commit", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	if q.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, q.Provider)
	}
	if !q.Since.IsZero() {
		where = append(where, "probed_at >= ?")
		args = append(args, q.Since.UnixMilli())
	}

	query := "SELECT run_id, probed_at, provider, api, status, series, error FROM probe_results"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY probed_at DESC, rowid ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail("query", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			r        Record
			probedAt int64
			errText  sql.NullString
		)
		if err := rows.Scan(&r.RunID, &probedAt, &r.Provider, &r.API, &r.Status, &r.Series, &errText); err != nil {
			return nil, s.fail("scan", err)
		}
		r.ProbedAt = time.UnixMilli(probedAt).UTC()
		r.Error = errText.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("query", err)
	}
	return out, nil
}

// Prune deletes records probed before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM probe_results WHERE probed_at < ?", before.UnixMilli())
	if err != nil {
		return 0, s.fail("prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("prune", err)
	}
	return n, nil
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}

func (s *SQLiteStore) fail(op string, err error) error {
	return &StoreError{Backend: s.driver, Op: op, Err: err}
}
