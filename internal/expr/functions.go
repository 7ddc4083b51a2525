package expr

import (
	"github.com/roach88/structq/internal/ir"
)

// Call renders name(args...) as an expression of type V.
func Call[V any](name string, args ...ir.Fragment) Term[V] {
	return Atom[V](ir.Concat(ir.SQL(name+"("), ir.Join(args, ir.SQL(", ")), ir.SQL(")")))
}

// Count renders COUNT(e).
func Count[V any](e Expr[V]) Term[int64] { return Call[int64]("COUNT", e.Fragment()) }

// CountDistinct renders COUNT(DISTINCT e).
func CountDistinct[V any](e Expr[V]) Term[int64] {
	return Call[int64]("COUNT", ir.SQL("DISTINCT ").Append(e.Fragment()))
}

// CountAll renders COUNT(*).
func CountAll() Term[int64] { return Call[int64]("COUNT", ir.SQL("*")) }

// Sum renders SUM(e).
func Sum[V Number](e Expr[V]) Term[V] { return Call[V]("SUM", e.Fragment()) }

// Avg renders AVG(e).
func Avg[V Number](e Expr[V]) Term[float64] { return Call[float64]("AVG", e.Fragment()) }

// Min renders MIN(e).
func Min[V any](e Expr[V]) Term[V] { return Call[V]("MIN", e.Fragment()) }

// Max renders MAX(e).
func Max[V any](e Expr[V]) Term[V] { return Call[V]("MAX", e.Fragment()) }

// Coalesce renders COALESCE(a, fallback), turning a nullable value into a
// non-null one.
func Coalesce[V any](a Expr[*V], fallback Expr[V]) Term[V] {
	return Call[V]("COALESCE", a.Fragment(), fallback.Fragment())
}

// Lower renders LOWER(e).
func Lower(e Expr[string]) Term[string] { return Call[string]("LOWER", e.Fragment()) }

// Upper renders UPPER(e).
func Upper(e Expr[string]) Term[string] { return Call[string]("UPPER", e.Fragment()) }

// Length renders LENGTH(e).
func Length(e Expr[string]) Term[int64] { return Call[int64]("LENGTH", e.Fragment()) }
