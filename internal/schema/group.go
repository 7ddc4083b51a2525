package schema

import (
	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/ir"
)

// Group is a sub-table embedded in the rows of a parent table. Its columns
// are flattened into the parent, each name prefixed with the group prefix.
type Group[R, G any] struct {
	parent ir.TableRef
	width  int
	prefix string
	access func(*R) *G
}

func (t *Table[R]) groupColumns(sub ColumnSet, prefix string, nullable bool) ColumnSet {
	out := make(ColumnSet, len(sub))
	for i, c := range sub {
		c.Name = prefix + c.Name
		c.Table = t.registered
		c.Nullable = c.Nullable || nullable
		c.PrimaryKey = false
		out[i] = c
	}
	return out
}

// AddGroup flattens the columns of sub into t. access returns the embedded
// value inside a parent row.
func AddGroup[R, G any](t *Table[R], sub *Table[G], prefix string, access func(*R) *G) Group[R, G] {
	t.register(field[R]{
		columns: t.groupColumns(sub.columns, prefix, false),
		encode: func(r *R) []ir.Binding {
			return sub.Encode(*access(r))
		},
		decode: func(d decode.Decoder, r *R) error {
			g, err := sub.Decode(d)
			if err != nil {
				return err
			}
			*access(r) = g
			return nil
		},
	})
	return Group[R, G]{parent: t.registered, width: sub.Width(), prefix: prefix, access: access}
}

// AddOptionalGroup flattens the columns of sub into t as nullable columns.
// A nil group encodes as one NULL per column, and decodes back to nil when
// one of its required columns is NULL, after consuming all of its columns.
func AddOptionalGroup[R, G any](t *Table[R], sub *Table[G], prefix string, access func(*R) **G) Group[R, *G] {
	width := sub.Width()
	optional := sub.OptionalDecoder()
	t.register(field[R]{
		columns: t.groupColumns(sub.columns, prefix, true),
		encode: func(r *R) []ir.Binding {
			g := *access(r)
			if g == nil {
				nulls := make([]ir.Binding, width)
				for i := range nulls {
					nulls[i] = ir.Null{}
				}
				return nulls
			}
			return sub.Encode(*g)
		},
		decode: func(d decode.Decoder, r *R) error {
			g, err := optional(d)
			if err != nil {
				return err
			}
			*access(r) = g
			return nil
		},
	})
	return Group[R, *G]{parent: t.registered, width: width, prefix: prefix, access: access}
}

// Width is the number of flattened columns of the group.
func (g Group[R, G]) Width() int { return g.width }

// Get reads the group value from row.
func (g Group[R, G]) Get(row *R) G { return *g.access(row) }

func (g Group[R, G]) lift(info ColumnInfo) ColumnInfo {
	info.Name = g.prefix + info.Name
	info.Table = g.parent
	info.PrimaryKey = false
	return info
}

// GroupColumn lifts a column of the group's sub-table into a column of the
// parent by composing the two lenses.
func GroupColumn[R, G, V any](g Group[R, G], sub Column[G, V]) Column[R, V] {
	return newColumn(g.lift(sub.info), sub.codec,
		func(r *R) V { return sub.get(g.access(r)) },
		func(r *R, v V) { sub.set(g.access(r), v) },
	)
}

// OptionalGroupColumn lifts a column of an optional group into a nullable
// column of the parent. Reading through a nil group yields nil. Setting a
// value allocates the group; setting nil leaves the group as it is.
func OptionalGroupColumn[R, G, V any](g Group[R, *G], sub Column[G, V]) Column[R, *V] {
	info := g.lift(sub.info)
	info.Nullable = true
	return newColumn(info, codec.Optional(sub.codec),
		func(r *R) *V {
			gp := *g.access(r)
			if gp == nil {
				return nil
			}
			v := sub.get(gp)
			return &v
		},
		func(r *R, v *V) {
			if v == nil {
				return
			}
			gp := g.access(r)
			if *gp == nil {
				*gp = new(G)
			}
			sub.set(*gp, *v)
		},
	)
}
