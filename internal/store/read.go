package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/structq/internal/decode"
)

// ErrNoRows is returned by FetchOne when the statement yields no row.
var ErrNoRows = errors.New("statement returned no rows")

// Executor runs statements. Store and the PostgreSQL adapter implement it.
type Executor interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, st Statement) (int64, error)
	// Each runs a statement and calls fn once per result row.
	Each(ctx context.Context, st Statement, fn func(decode.Decoder) error) error
}

// Each runs a query, or a write with RETURNING, and calls fn with a decoder
// positioned at the first column of each row in turn. An empty statement
// yields no rows and sends no SQL. An error from fn stops iteration and is
// returned as is.
func (s *Store) Each(ctx context.Context, st Statement, fn func(decode.Decoder) error) error {
	text, args, ok, err := s.render(st)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if !ok {
		return nil
	}

	stmt, shared, err := s.prepared(ctx, text)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if !shared {
		defer stmt.Close()
	}

	s.logger.Debug("query", slog.String("sql", text), slog.Int("args", len(args)))
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	values := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	cur := &decode.Cursor{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		cur.Next(Row(values))
		if err := fn(cur); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate rows: %w", err)
	}
	return nil
}

// Fetch runs st and decodes every row with dec. It returns an empty slice,
// not nil, when there are no rows.
func Fetch[T any](ctx context.Context, e Executor, st Statement, dec decode.Func[T]) ([]T, error) {
	out := []T{}
	n := 0
	err := e.Each(ctx, st, func(d decode.Decoder) error {
		v, err := dec(d)
		if err != nil {
			return fmt.Errorf("decode row %d: %w", n, err)
		}
		out = append(out, v)
		n++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchOne runs st and decodes its first row. Remaining rows are ignored.
func FetchOne[T any](ctx context.Context, e Executor, st Statement, dec decode.Func[T]) (T, error) {
	var (
		out   T
		found bool
	)
	errStop := errors.New("stop")
	err := e.Each(ctx, st, func(d decode.Decoder) error {
		v, err := dec(d)
		if err != nil {
			return fmt.Errorf("decode row 0: %w", err)
		}
		out, found = v, true
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return out, err
	}
	if !found {
		return out, ErrNoRows
	}
	return out, nil
}
