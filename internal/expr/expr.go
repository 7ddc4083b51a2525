// Package expr builds typed SQL expressions.
//
// Expr[V] is an expression whose SQL value has Go type V. The type parameter
// only exists at compile time: it keeps a column of strings from being
// compared with an integer, and lets predicates (Expr[bool]) be told apart
// from values. At run time every expression is an ir.Fragment.
//
// Operands are parenthesized by precedence, so a single comparison renders
// bare ("tags"."title" = ?) and nested boolean logic keeps its meaning.
package expr

import (
	"github.com/roach88/structq/internal/codec"
	"github.com/roach88/structq/internal/ir"
)

// Operator precedence, tightest binding highest.
const (
	precOr   = 10
	precAnd  = 20
	precNot  = 30
	precCmp  = 40
	precAdd  = 50
	precMul  = 60
	precAtom = 100
)

// Expr is a SQL expression of Go type V.
//
// This is a sealed interface: implementations embed Term.
type Expr[V any] interface {
	Fragment() ir.Fragment
	precedence() int
	expr(V) // Sealed
}

// Term is the concrete expression value. Types that stand for an expression,
// such as table columns, embed it.
type Term[V any] struct {
	frag ir.Fragment
	prec int
}

// Fragment returns the rendered expression.
func (t Term[V]) Fragment() ir.Fragment { return t.frag }

func (t Term[V]) precedence() int { return t.prec }

func (Term[V]) expr(V) {}

// IsEmpty reports whether the term renders no SQL.
func (t Term[V]) IsEmpty() bool { return t.frag.IsEmpty() }

// Atom wraps a fragment that never needs parentheses: a column, literal,
// placeholder or function call.
func Atom[V any](f ir.Fragment) Term[V] {
	return Term[V]{frag: f, prec: precAtom}
}

// Raw wraps arbitrary SQL. It is parenthesized whenever it is an operand.
func Raw[V any](f ir.Fragment) Term[V] {
	return Term[V]{frag: f, prec: 0}
}

// Of converts any expression to its Term.
func Of[V any](e Expr[V]) Term[V] {
	if t, ok := e.(Term[V]); ok {
		return t
	}
	return Term[V]{frag: e.Fragment(), prec: e.precedence()}
}

// Retarget points every reference to from inside e at to.
func Retarget[V any](e Expr[V], from, to ir.TableRef) Term[V] {
	return Term[V]{frag: e.Fragment().Retarget(from, to), prec: e.precedence()}
}

// Compiled inlines the bindings of e as literals, for trigger and view
// bodies.
func Compiled[V any](e Expr[V], ctx ir.Context) Term[V] {
	return Term[V]{frag: e.Fragment().Compiled(ctx), prec: e.precedence()}
}

// operand renders e as an operand of an operator with precedence prec.
func operand[V any](e Expr[V], prec int) ir.Fragment {
	if e.precedence() <= prec {
		return ir.Parens(e.Fragment())
	}
	return e.Fragment()
}

// Bind encodes v with c and binds it as a parameter.
func Bind[V any](c codec.Codec[V], v V) Term[V] {
	return Atom[V](ir.Bind(c.Encode(v)))
}

// Text binds a string parameter.
func Text(s string) Term[string] { return Bind(codec.Text, s) }

// Int binds an integer parameter.
func Int(n int64) Term[int64] { return Bind(codec.Int64, n) }

// Null is the NULL literal.
func Null[V any]() Term[V] {
	return Atom[V](ir.SQL("NULL"))
}

// True is the always-true predicate, rendered as 1.
func True() Term[bool] {
	return Atom[bool](ir.SQL("1"))
}

// False is the always-false predicate, rendered as 0.
func False() Term[bool] {
	return Atom[bool](ir.SQL("0"))
}

// Subquery is a statement usable inside an expression.
type Subquery interface {
	Fragment() ir.Fragment
}

// Scalar wraps a single-column subquery as a value.
func Scalar[V any](q Subquery) Term[V] {
	return Atom[V](ir.Parens(q.Fragment()))
}

// Assignment is one "column = value" pair of a SET clause.
type Assignment struct {
	Column string
	Value  ir.Fragment
}

// Assign builds an assignment of e to the named column.
func Assign[V any](column string, e Expr[V]) Assignment {
	return Assignment{Column: column, Value: e.Fragment()}
}

// Fragment renders the assignment.
func (a Assignment) Fragment() ir.Fragment {
	return ir.Concat(ir.Ident(a.Column), ir.SQL(" = "), a.Value)
}

// Retarget points references to from inside the assigned value at to.
func (a Assignment) Retarget(from, to ir.TableRef) Assignment {
	a.Value = a.Value.Retarget(from, to)
	return a
}

// Ordering is one ORDER BY term.
type Ordering struct {
	frag ir.Fragment
}

// Fragment renders the ordering term.
func (o Ordering) Fragment() ir.Fragment { return o.frag }

// NullsFirst sorts NULL before other values.
func (o Ordering) NullsFirst() Ordering {
	return Ordering{frag: o.frag.Append(ir.SQL(" NULLS FIRST"))}
}

// NullsLast sorts NULL after other values.
func (o Ordering) NullsLast() Ordering {
	return Ordering{frag: o.frag.Append(ir.SQL(" NULLS LAST"))}
}

// Asc orders by e ascending.
func Asc[V any](e Expr[V]) Ordering {
	return Ordering{frag: e.Fragment().Append(ir.SQL(" ASC"))}
}

// Desc orders by e descending.
func Desc[V any](e Expr[V]) Ordering {
	return Ordering{frag: e.Fragment().Append(ir.SQL(" DESC"))}
}
