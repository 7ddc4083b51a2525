package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"github.com/roach88/structq/internal/ir"
)

// Driver names accepted by Open.
const (
	DriverCGO  = "sqlite3"
	DriverPure = "sqlite"
)

// Options configures a Store. The zero value uses the cgo driver, "?"
// placeholders and slog.Default.
type Options struct {
	Driver   string
	Template ir.Template
	Logger   *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Driver == "" {
		o.Driver = DriverCGO
	}
	if o.Template == nil {
		o.Template = ir.QuestionMark
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// cached is a prepared statement with the text it was prepared from, so a
// hash collision never runs the wrong statement.
type cached struct {
	text string
	stmt *sql.Stmt
}

// Store executes statements on one database.
type Store struct {
	db       *sql.DB
	template ir.Template
	logger   *slog.Logger

	mu    sync.Mutex
	stmts map[uint64]cached
	group singleflight.Group
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Pass ":memory:" for a private in-memory database.
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	switch opts.Driver {
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// exists per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return New(db, opts), nil
}

// New wraps an open database. The caller keeps ownership of its
// configuration; Close still closes it.
func New(db *sql.DB, opts Options) *Store {
	opts = opts.withDefaults()
	return &Store{
		db:       db,
		template: opts.Template,
		logger:   opts.Logger,
		stmts:    make(map[uint64]cached),
	}
}

// Close releases the cached statements and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.mu.Lock()
	var errs []error
	for key, c := range s.stmts {
		errs = append(errs, c.stmt.Close())
		delete(s.stmts, key)
	}
	s.mu.Unlock()
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Template is the placeholder style statements render with.
func (s *Store) Template() ir.Template {
	return s.template
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// prepared returns the statement for text, preparing it on first use. It is
// cached unless another text with the same hash already holds the slot, in
// which case the caller owns it and must close it.
func (s *Store) prepared(ctx context.Context, text string) (stmt *sql.Stmt, shared bool, err error) {
	key := xxh3.HashString(text)

	s.mu.Lock()
	c, ok := s.stmts[key]
	s.mu.Unlock()
	if ok && c.text == text {
		return c.stmt, true, nil
	}

	v, err, _ := s.group.Do(text, func() (any, error) {
		s.mu.Lock()
		c, ok := s.stmts[key]
		s.mu.Unlock()
		if ok {
			if c.text == text {
				return c.stmt, nil
			}
			return nil, nil
		}

		stmt, err := s.db.PrepareContext(ctx, text)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.stmts[key] = cached{text: text, stmt: stmt}
		s.mu.Unlock()
		return stmt, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("prepare: %w", err)
	}
	if stmt, _ := v.(*sql.Stmt); stmt != nil {
		return stmt, true, nil
	}

	s.logger.Debug("statement cache collision", slog.Uint64("key", key))
	stmt, err = s.db.PrepareContext(ctx, text)
	if err != nil {
		return nil, false, fmt.Errorf("prepare: %w", err)
	}
	return stmt, false, nil
}

// cachedStatements is the number of prepared statements held.
func (s *Store) cachedStatements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stmts)
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
