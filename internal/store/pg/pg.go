// Package pg executes rendered statements on PostgreSQL through pgx.
//
// Statements render with $N placeholders. Dates bind as timestamptz and UUIDs
// as uuid; every other binding binds the way the SQLite store binds it.
package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/store"
)

// Conn is the part of *pgx.Conn, pgxpool.Pool and pgx.Tx the store uses.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store executes statements on one PostgreSQL connection.
type Store struct {
	conn   Conn
	logger *slog.Logger
}

var _ store.Executor = (*Store)(nil)

// New wraps conn. A nil logger uses slog.Default.
func New(conn Conn, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger}
}

// Connect opens a connection from a postgres:// URL or DSN.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return New(conn, logger), nil
}

// Close closes the connection when the store owns one that can be closed.
func (s *Store) Close(ctx context.Context) error {
	if c, ok := s.conn.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}

func (s *Store) render(st store.Statement) (string, []any, bool, error) {
	text, bindings, ok := store.Prepare(s.logger, st, ir.DollarNumbered)
	if !ok {
		return "", nil, false, nil
	}
	args, err := Args(bindings)
	if err != nil {
		return "", nil, false, err
	}
	return text, args, true, nil
}

// Exec runs a statement that returns no rows and reports how many rows it
// changed. An empty statement sends no SQL.
func (s *Store) Exec(ctx context.Context, st store.Statement) (int64, error) {
	text, args, ok, err := s.render(st)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	if !ok {
		return 0, nil
	}
	s.logger.Debug("exec", slog.String("sql", text), slog.Int("args", len(args)))
	tag, err := s.conn.Exec(ctx, text, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Each runs a query and calls fn once per row. An error from fn stops
// iteration and is returned as is.
func (s *Store) Each(ctx context.Context, st store.Statement, fn func(decode.Decoder) error) error {
	text, args, ok, err := s.render(st)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if !ok {
		return nil
	}
	s.logger.Debug("query", slog.String("sql", text), slog.Int("args", len(args)))
	rows, err := s.conn.Query(ctx, text, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cur := &decode.Cursor{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		row := make([]ir.Binding, len(values))
		for i, v := range values {
			row[i] = Binding(v)
		}
		cur.Next(row)
		if err := fn(cur); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Args converts bindings to pgx arguments in placeholder order.
func Args(bindings []ir.Binding) ([]any, error) {
	args := make([]any, len(bindings))
	for i, b := range bindings {
		switch v := b.(type) {
		case ir.Date:
			args[i] = pgtype.Timestamptz{Time: v.Time(), Valid: true}
		case ir.UUID:
			args[i] = pgtype.UUID{Bytes: [16]byte(v.UUID()), Valid: true}
		default:
			arg, err := store.Arg(b)
			if err != nil {
				return nil, &store.BindError{Position: i + 1, Binding: b, Err: err}
			}
			args[i] = arg
		}
	}
	return args, nil
}

// Binding converts a value decoded by pgx to a binding.
func Binding(v any) ir.Binding {
	switch x := v.(type) {
	case [16]byte:
		return ir.NewUUID(uuid.UUID(x))
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil {
			return ir.Invalid{Err: err}
		}
		if !f.Valid {
			return ir.Null{}
		}
		return ir.Double(f.Float64)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return ir.Invalid{Err: err}
		}
		return ir.Text(data)
	}
	return ir.Of(v)
}
