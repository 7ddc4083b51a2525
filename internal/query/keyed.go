package query

import (
	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/schema"
)

// InsertDrafts inserts drafts into k. When no draft carries a key the key
// column is left out, so the database assigns every key. Add
// ReturningAll and decode with the table's Decoder to get persisted rows
// back.
func InsertDrafts[R any, K comparable](k *schema.Keyed[R, K], drafts ...schema.Draft[R, K]) Insert[R] {
	cols, rows := k.EncodeDrafts(drafts...)
	return InsertInto(k.Table).Encoded(cols, rows...)
}

// Upsert inserts rows into k, updating the row with the same primary key
// when one exists.
func Upsert[R any, K comparable](k *schema.Keyed[R, K], rows ...R) Insert[R] {
	drafts := make([]schema.Draft[R, K], len(rows))
	for i, row := range rows {
		drafts[i] = k.Draft(row)
	}
	return UpsertDrafts(k, drafts...)
}

// UpsertDrafts inserts drafts into k. On a primary key conflict every
// writable column other than the key is set to its value in the proposed
// row, "excluded"."col".
func UpsertDrafts[R any, K comparable](k *schema.Keyed[R, K], drafts ...schema.Draft[R, K]) Insert[R] {
	excluded := schema.Excluded(k).Ref()
	var updates []expr.Assignment
	for _, c := range k.WritableColumns() {
		if c.Name == k.Key().Name() {
			continue
		}
		c.Table = excluded
		updates = append(updates, expr.Assignment{Column: c.Name, Value: c.Fragment()})
	}
	ins := InsertDrafts(k, drafts...).OnConflict(k.Key())
	if len(updates) == 0 {
		return ins.DoNothing()
	}
	return ins.DoUpdate(updates...)
}

// Save updates the stored row with the primary key of row, assigning every
// writable column other than the key.
func Save[R any, K comparable](k *schema.Keyed[R, K], row R) Update[R] {
	cols := k.Columns()
	values := k.Encode(row)
	var sets []expr.Assignment
	for i, c := range cols {
		if !c.Writable() || c.Name == k.Key().Name() {
			continue
		}
		sets = append(sets, expr.Assignment{Column: c.Name, Value: ir.Bind(values[i])})
	}
	return NewUpdate(k.Table, sets...).Where(k.Key().Eq(k.KeyOf(row)))
}

// DeleteRow deletes the stored row with the primary key of row.
func DeleteRow[R any, K comparable](k *schema.Keyed[R, K], row R) Delete[R] {
	return NewDelete(k.Table).Where(k.Key().Eq(k.KeyOf(row)))
}

// DeleteKeys deletes the stored rows with the given keys.
func DeleteKeys[R any, K comparable](k *schema.Keyed[R, K], keys ...K) Delete[R] {
	return FindIn(NewDelete(k.Table), k, keys...)
}
