package expr

import (
	"github.com/roach88/structq/internal/ir"
)

func binary[R, A, B any](a Expr[A], op string, b Expr[B], prec int) Term[R] {
	return Term[R]{
		frag: ir.Concat(operand(a, prec), ir.SQL(" "+op+" "), operand(b, prec)),
		prec: prec,
	}
}

// Eq renders a = b.
func Eq[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "=", b, precCmp) }

// Neq renders a <> b.
func Neq[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "<>", b, precCmp) }

// Lt renders a < b.
func Lt[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "<", b, precCmp) }

// Lte renders a <= b.
func Lte[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "<=", b, precCmp) }

// Gt renders a > b.
func Gt[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, ">", b, precCmp) }

// Gte renders a >= b.
func Gte[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, ">=", b, precCmp) }

// Is renders a IS b, the NULL-safe equality.
func Is[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "IS", b, precCmp) }

// IsNot renders a IS NOT b.
func IsNot[V any](a, b Expr[V]) Term[bool] { return binary[bool](a, "IS NOT", b, precCmp) }

// IsNull renders a IS NULL.
func IsNull[V any](a Expr[V]) Term[bool] {
	return Term[bool]{frag: operand(a, precCmp).Append(ir.SQL(" IS NULL")), prec: precCmp}
}

// IsNotNull renders a IS NOT NULL.
func IsNotNull[V any](a Expr[V]) Term[bool] {
	return Term[bool]{frag: operand(a, precCmp).Append(ir.SQL(" IS NOT NULL")), prec: precCmp}
}

// Like renders a LIKE pattern.
func Like(a, pattern Expr[string]) Term[bool] { return binary[bool](a, "LIKE", pattern, precCmp) }

// Glob renders a GLOB pattern.
func Glob(a, pattern Expr[string]) Term[bool] { return binary[bool](a, "GLOB", pattern, precCmp) }

// In renders a IN (v1, v2, ...). An empty list renders a IN (), which
// matches no row.
func In[V any](a Expr[V], values ...Expr[V]) Term[bool] {
	items := make([]ir.Fragment, len(values))
	for i, v := range values {
		items[i] = v.Fragment()
	}
	return Term[bool]{
		frag: ir.Concat(operand(a, precCmp), ir.SQL(" IN ("), ir.Join(items, ir.SQL(", ")), ir.SQL(")")),
		prec: precCmp,
	}
}

// NotIn renders a NOT IN (v1, v2, ...).
func NotIn[V any](a Expr[V], values ...Expr[V]) Term[bool] {
	items := make([]ir.Fragment, len(values))
	for i, v := range values {
		items[i] = v.Fragment()
	}
	return Term[bool]{
		frag: ir.Concat(operand(a, precCmp), ir.SQL(" NOT IN ("), ir.Join(items, ir.SQL(", ")), ir.SQL(")")),
		prec: precCmp,
	}
}

// InQuery renders a IN (subquery).
func InQuery[V any](a Expr[V], q Subquery) Term[bool] {
	return Term[bool]{
		frag: ir.Concat(operand(a, precCmp), ir.SQL(" IN ("), q.Fragment(), ir.SQL(")")),
		prec: precCmp,
	}
}

// Exists renders EXISTS (subquery).
func Exists(q Subquery) Term[bool] {
	return Atom[bool](ir.Concat(ir.SQL("EXISTS ("), q.Fragment(), ir.SQL(")")))
}

// Between renders a BETWEEN lo AND hi.
func Between[V any](a, lo, hi Expr[V]) Term[bool] {
	return Term[bool]{
		frag: ir.Concat(
			operand(a, precCmp), ir.SQL(" BETWEEN "),
			operand(lo, precCmp), ir.SQL(" AND "), operand(hi, precCmp),
		),
		prec: precCmp,
	}
}

func chain(preds []Expr[bool], op string, prec int) Term[bool] {
	parts := make([]ir.Fragment, 0, len(preds))
	var last Expr[bool]
	for _, p := range preds {
		if p == nil || p.Fragment().IsEmpty() {
			continue
		}
		last = p
		parts = append(parts, operand(p, prec))
	}
	switch len(parts) {
	case 0:
		return Term[bool]{}
	case 1:
		return Of(last)
	}
	return Term[bool]{frag: ir.Join(parts, ir.SQL(" "+op+" ")), prec: prec}
}

// And joins predicates with AND, skipping empty ones. No predicates yield
// the empty term; a single predicate is returned as is.
func And(preds ...Expr[bool]) Term[bool] { return chain(preds, "AND", precAnd) }

// Or joins predicates with OR, skipping empty ones.
func Or(preds ...Expr[bool]) Term[bool] { return chain(preds, "OR", precOr) }

// Not renders NOT p.
func Not(p Expr[bool]) Term[bool] {
	return Term[bool]{frag: ir.SQL("NOT ").Append(operand(p, precNot)), prec: precNot}
}

// Number constrains the arithmetic operators.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add renders a + b.
func Add[V Number](a, b Expr[V]) Term[V] { return binary[V](a, "+", b, precAdd) }

// Sub renders a - b.
func Sub[V Number](a, b Expr[V]) Term[V] { return binary[V](a, "-", b, precAdd) }

// Mul renders a * b.
func Mul[V Number](a, b Expr[V]) Term[V] { return binary[V](a, "*", b, precMul) }

// Div renders a / b.
func Div[V Number](a, b Expr[V]) Term[V] { return binary[V](a, "/", b, precMul) }

// Concat renders a || b.
func Concat(a, b Expr[string]) Term[string] { return binary[string](a, "||", b, precAdd) }
