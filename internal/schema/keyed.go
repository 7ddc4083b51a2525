package schema

import (
	"github.com/roach88/structq/internal/decode"
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
)

// Keyed is a table whose rows are identified by a primary key of type K.
type Keyed[R any, K comparable] struct {
	*Table[R]
	key Column[R, K]
}

// Draft is the pre-insert form of a keyed row: the key is optional and is
// assigned by the database when nil. A persisted row only comes back from a
// Draft through INSERT ... RETURNING.
type Draft[R any, K comparable] struct {
	ID  *K
	Row R
}

// WithPrimaryKey couples t with its primary key column.
func WithPrimaryKey[R any, K comparable](t *Table[R], key Column[R, K]) *Keyed[R, K] {
	return &Keyed[R, K]{Table: t, key: key}
}

// Key is the primary key column.
func (k *Keyed[R, K]) Key() Column[R, K] { return k.key }

// KeyOf reads the primary key of row.
func (k *Keyed[R, K]) KeyOf(row R) K { return k.key.Get(&row) }

// KeyIn renders pk IN (k1, k2, ...).
func (k *Keyed[R, K]) KeyIn(keys ...K) expr.Term[bool] {
	return k.key.In(keys...)
}

// Find is the predicate selecting the rows with the given keys.
func (k *Keyed[R, K]) Find(keys ...K) expr.Term[bool] {
	return k.KeyIn(keys...)
}

// FindDrafts is the predicate selecting the persisted rows of the drafts
// that carry a key. Drafts without a key match nothing.
func (k *Keyed[R, K]) FindDrafts(drafts ...Draft[R, K]) expr.Term[bool] {
	keys := make([]K, 0, len(drafts))
	for _, d := range drafts {
		if d.ID != nil {
			keys = append(keys, *d.ID)
		}
	}
	return k.KeyIn(keys...)
}

// Draft widens a persisted row to its draft. It never fails.
func (k *Keyed[R, K]) Draft(row R) Draft[R, K] {
	id := k.key.Get(&row)
	return Draft[R, K]{ID: &id, Row: row}
}

// NewDraft builds a draft without a key.
func (k *Keyed[R, K]) NewDraft(row R) Draft[R, K] {
	return Draft[R, K]{Row: row}
}

// DraftColumns returns the writable columns a batch of drafts inserts. The
// key column is omitted when no draft carries a key, so the database assigns
// every key.
func (k *Keyed[R, K]) DraftColumns(drafts ...Draft[R, K]) ColumnSet {
	withKey := false
	for _, d := range drafts {
		if d.ID != nil {
			withKey = true
			break
		}
	}
	var out ColumnSet
	for _, c := range k.Table.Columns() {
		if !c.Writable() && !c.PrimaryKey {
			continue
		}
		if c.Name == k.key.Name() && !withKey {
			continue
		}
		out = append(out, c)
	}
	return out
}

// EncodeDrafts binds a batch of drafts against DraftColumns. A draft without
// a key binds NULL for it when other drafts of the batch carry keys.
func (k *Keyed[R, K]) EncodeDrafts(drafts ...Draft[R, K]) (ColumnSet, [][]ir.Binding) {
	cols := k.DraftColumns(drafts...)
	rows := make([][]ir.Binding, 0, len(drafts))
	for _, d := range drafts {
		all := k.Table.Encode(d.Row)
		row := make([]ir.Binding, 0, len(cols))
		ci := 0
		for i, c := range k.Table.columns {
			if ci >= len(cols) || cols[ci].Name != c.Name {
				continue
			}
			ci++
			if c.Name == k.key.Name() {
				if d.ID == nil {
					row = append(row, ir.Null{})
				} else {
					row = append(row, k.key.codec.Encode(*d.ID))
				}
				continue
			}
			row = append(row, all[i])
		}
		rows = append(rows, row)
	}
	return cols, rows
}

// DecodeDraft reads a row as a draft carrying its key.
func (k *Keyed[R, K]) DecodeDraft(d decode.Decoder) (Draft[R, K], error) {
	row, err := k.Table.Decode(d)
	if err != nil {
		return Draft[R, K]{}, err
	}
	return k.Draft(row), nil
}

func (k *Keyed[R, K]) with(t *Table[R]) *Keyed[R, K] {
	return &Keyed[R, K]{Table: t, key: k.key}
}

// As returns a copy of k renamed to alias.
func (k *Keyed[R, K]) As(alias string) *Keyed[R, K] { return k.with(k.Table.As(alias)) }

// WithScope returns a copy of k whose default scope is pred.
func (k *Keyed[R, K]) WithScope(pred expr.Expr[bool]) *Keyed[R, K] {
	return k.with(k.Table.WithScope(pred))
}

// WithSchema returns a copy of k qualified with the schema name.
func (k *Keyed[R, K]) WithSchema(name string) *Keyed[R, K] {
	return k.with(k.Table.WithSchema(name))
}
