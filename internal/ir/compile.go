package ir

import "fmt"

// Context names a place where statements cannot carry bound parameters.
type Context uint8

const (
	ContextTrigger Context = iota
	ContextView
	ContextDDL
)

func (c Context) String() string {
	switch c {
	case ContextTrigger:
		return "trigger"
	case ContextView:
		return "view"
	case ContextDDL:
		return "ddl"
	}
	return fmt.Sprintf("context(%d)", uint8(c))
}

// Compiled returns f with every binding inlined as a SQL literal.
//
// Compilation never fails. Dates, UUIDs and blobs have no portable literal
// form; they inline the best-effort literal and raise CodeRiskyLiteral.
// Invalid bindings inline NULL and raise CodeInvalidBinding. A Uint above the
// int64 range inlines all of its digits and raises CodeUintOverflow.
func (f Fragment) Compiled(ctx Context) Fragment {
	out := Fragment{
		segs:  make([]segment, 0, len(f.segs)),
		diags: append([]Diagnostic(nil), f.diags...),
	}
	for _, s := range f.segs {
		if s.kind != segmentBinding {
			out.segs = append(out.segs, s)
			continue
		}
		text, diag := literal(ctx, s.binding)
		out.segs = append(out.segs, segment{kind: segmentText, text: text})
		if diag != nil {
			out.diags = append(out.diags, *diag)
		}
	}
	if len(out.diags) == 0 {
		out.diags = nil
	}
	return out
}

func literal(ctx Context, b Binding) (string, *Diagnostic) {
	switch v := b.(type) {
	case Date, UUID, Blob:
		d := Diagnosef(CodeRiskyLiteral, fmt.Sprintf(
			"%s binding %s inlined into %s; prefer an explicit literal expression",
			b.Kind(), b.String(), ctx))
		return b.String(), &d
	case Invalid:
		d := Diagnosef(CodeInvalidBinding, fmt.Sprintf(
			"%s inlined as NULL into %s", v.Error(), ctx))
		return "NULL", &d
	case Uint:
		if _, err := v.Int64(); err != nil {
			d := Diagnosef(CodeUintOverflow, fmt.Sprintf("%v inlined into %s", err, ctx))
			return v.String(), &d
		}
		return v.String(), nil
	default:
		return b.String(), nil
	}
}
