package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/structq/internal/ir"
)

// Statement is anything that renders to SQL.
type Statement interface {
	Fragment() ir.Fragment
}

// Prepare reports the diagnostics of st through logger, slog.Default when
// nil, and renders it with template. ok is false when the statement is empty and must not be sent.
func Prepare(logger *slog.Logger, st Statement, template ir.Template) (text string, bindings []ir.Binding, ok bool) {
	if logger == nil {
		logger = slog.Default()
	}
	f := st.Fragment()
	ir.Report(logger, f)
	if f.IsEmpty() {
		logger.Debug("skipping empty statement", slog.Int("diagnostics", len(f.Diagnostics())))
		return "", nil, false
	}
	text, bindings = f.Prepare(template)
	return text, bindings, true
}

func (s *Store) render(st Statement) (text string, args []any, ok bool, err error) {
	text, bindings, ok := Prepare(s.logger, st, s.template)
	if !ok {
		return "", nil, false, nil
	}
	args, err = Args(bindings)
	if err != nil {
		return "", nil, false, err
	}
	return text, args, true, nil
}

// Exec runs a statement that returns no rows and reports how many rows it
// changed. An empty statement changes nothing and sends no SQL.
func (s *Store) Exec(ctx context.Context, st Statement) (int64, error) {
	text, args, ok, err := s.render(st)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	if !ok {
		return 0, nil
	}

	stmt, shared, err := s.prepared(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	if !shared {
		defer stmt.Close()
	}

	s.logger.Debug("exec", slog.String("sql", text), slog.Int("args", len(args)))
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Migration is one schema step: statements run in order inside a single
// transaction.
type Migration []Statement

// Migrate applies the migrations the database has not seen yet, tracking
// progress in PRAGMA user_version. Migration i brings the database to
// version i+1. Statements inside migrations are executed unprepared.
func (s *Store) Migrate(ctx context.Context, migrations ...Migration) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if err := s.migrate(ctx, i+1, migrations[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context, version int, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v%d: %w", version, err)
	}
	defer tx.Rollback()

	for _, st := range m {
		text, args, ok, err := s.render(st)
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", version, err)
		}
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, text, args...); err != nil {
			return fmt.Errorf("migrate to v%d: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v%d: %w", version, err)
	}
	s.logger.Info("migrated", slog.Int("version", version))
	return nil
}
