// Package store persists experiment results in a single-file SQLite
// database and runs the report aggregations against it.
//
// The pure-Go modernc.org/sqlite driver is registered as "sqlite":
//
//	st, err := store.Open("20250301080000_experiment_results.db")
//	defer st.Close()
//	n, err := st.ReplaceResults(ctx, records)
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "regkareport/internal/errors"
)

type options struct {
	driver      string
	busyTimeout int
	synchronous string
	mkdirAll    bool
	schema      bool
	logger      *slog.Logger
}

func defaults() options {
	return options{
		driver:      "sqlite",
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		schema:      true,
		logger:      slog.Default(),
	}
}

// Option customises Open behaviour.
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(o *options) { o.mkdirAll = true } }

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Store wraps the result database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path, applies pragmas
// and ensures the result table exists.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}

	if o.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.NewStorageError("create store directory", err)
		}
	}

	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, apperrors.NewStorageError("open store", err)
	}
	// One connection keeps :memory: databases coherent and matches the
	// single-writer batch usage.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db, &o); err != nil {
		db.Close()
		return nil, err
	}

	if o.schema {
		if _, err := db.Exec(createResultsTable); err != nil {
			db.Close()
			return nil, apperrors.NewStorageError("create result table", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("ping store", err)
	}

	o.logger.Debug("Store opened", slog.String("path", path))

	return &Store{db: db, path: path, logger: o.logger}, nil
}

// OpenExisting opens a store that must already exist on disk. It never
// creates a file and leaves the schema untouched.
func OpenExisting(path string, opts ...Option) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("store %s", path))
	}
	opts = append(opts, func(o *options) { o.schema = false })
	return Open(path, opts...)
}

// Path returns the database file path
func (s *Store) Path() string { return s.path }

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB, o *options) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", o.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return apperrors.NewStorageError(p, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
