package ir

import (
	"slices"
	"strings"
)

type segmentKind uint8

const (
	segmentText segmentKind = iota
	segmentBinding
	segmentRef
)

type segment struct {
	kind    segmentKind
	text    string
	binding Binding
	ref     TableRef
}

// Fragment is SQL text with holes for out-of-band parameters.
//
// A fragment is an ordered list of segments: literal text, binding
// placeholders, and symbolic table references. The zero value is the empty
// fragment. Fragments are immutable; every operation returns a new value and
// never shares writable backing storage with its inputs.
//
// Diagnostics raised while building a fragment travel with it and accumulate
// through concatenation.
type Fragment struct {
	segs  []segment
	diags []Diagnostic
}

// Empty returns the empty fragment.
func Empty() Fragment {
	return Fragment{}
}

// SQL returns a fragment holding literal SQL text. The text is trusted: it
// must never contain user input.
func SQL(text string) Fragment {
	if text == "" {
		return Fragment{}
	}
	return Fragment{segs: []segment{{kind: segmentText, text: text}}}
}

// Bind returns a fragment holding a single placeholder for b.
func Bind(b Binding) Fragment {
	if b == nil {
		b = Null{}
	}
	return Fragment{segs: []segment{{kind: segmentBinding, binding: b}}}
}

// Ident returns a fragment holding a quoted identifier.
func Ident(name string) Fragment {
	return SQL(QuoteIdent(name))
}

// Ref returns a fragment holding a symbolic table reference.
func Ref(r TableRef) Fragment {
	return Fragment{segs: []segment{{kind: segmentRef, ref: r}}}
}

// Concat joins fragments in order. Concatenation is associative.
func Concat(frags ...Fragment) Fragment {
	var n, d int
	for _, f := range frags {
		n += len(f.segs)
		d += len(f.diags)
	}
	if n == 0 && d == 0 {
		return Fragment{}
	}
	out := Fragment{
		segs:  make([]segment, 0, n),
		diags: make([]Diagnostic, 0, d),
	}
	for _, f := range frags {
		out.segs = append(out.segs, f.segs...)
		out.diags = append(out.diags, f.diags...)
	}
	if len(out.diags) == 0 {
		out.diags = nil
	}
	return out
}

// Append returns f followed by others.
func (f Fragment) Append(others ...Fragment) Fragment {
	return Concat(append([]Fragment{f}, others...)...)
}

// Join concatenates the non-empty fragments in frags, separated by sep.
// Diagnostics of empty fragments are kept.
func Join(frags []Fragment, sep Fragment) Fragment {
	parts := make([]Fragment, 0, len(frags)*2)
	var dropped []Diagnostic
	for _, f := range frags {
		if f.IsEmpty() {
			dropped = append(dropped, f.diags...)
			continue
		}
		if len(parts) > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, f)
	}
	return Concat(parts...).WithDiagnostic(dropped...)
}

// Parens wraps f in parentheses. The empty fragment stays empty.
func Parens(f Fragment) Fragment {
	if f.IsEmpty() {
		return f
	}
	return Concat(SQL("("), f, SQL(")"))
}

// IsEmpty reports whether f renders no SQL. Diagnostics alone do not make a
// fragment non-empty.
func (f Fragment) IsEmpty() bool {
	for _, s := range f.segs {
		if s.kind != segmentText || s.text != "" {
			return false
		}
	}
	return true
}

// Bindings returns the bindings of f in placeholder order.
func (f Fragment) Bindings() []Binding {
	var out []Binding
	for _, s := range f.segs {
		if s.kind == segmentBinding {
			out = append(out, s.binding)
		}
	}
	return out
}

// Prepare renders f with template supplying the text of each placeholder.
// The n-th placeholder (1-based) corresponds to bindings[n-1].
func (f Fragment) Prepare(template Template) (string, []Binding) {
	if template == nil {
		template = QuestionMark
	}
	var sb strings.Builder
	var bindings []Binding
	for _, s := range f.segs {
		switch s.kind {
		case segmentText:
			sb.WriteString(s.text)
		case segmentBinding:
			bindings = append(bindings, s.binding)
			sb.WriteString(template(len(bindings)))
		case segmentRef:
			sb.WriteString(s.ref.String())
		}
	}
	return sb.String(), bindings
}

// String renders f for debugging, inlining each binding's literal form in
// place of its placeholder.
func (f Fragment) String() string {
	var sb strings.Builder
	for _, s := range f.segs {
		switch s.kind {
		case segmentText:
			sb.WriteString(s.text)
		case segmentBinding:
			sb.WriteString(s.binding.String())
		case segmentRef:
			sb.WriteString(s.ref.String())
		}
	}
	return sb.String()
}

// Retarget rewrites every reference equal to from so it points at to.
// References are compared exactly, alias included, so retargeting a base
// table leaves its aliases alone.
func (f Fragment) Retarget(from, to TableRef) Fragment {
	if len(f.segs) == 0 || from == to {
		return f
	}
	out := Fragment{segs: slices.Clone(f.segs), diags: slices.Clone(f.diags)}
	for i, s := range out.segs {
		if s.kind == segmentRef && s.ref == from {
			out.segs[i].ref = to
		}
	}
	return out
}

// Refs returns the distinct table references of f in first-use order.
func (f Fragment) Refs() []TableRef {
	var out []TableRef
	for _, s := range f.segs {
		if s.kind == segmentRef && !slices.Contains(out, s.ref) {
			out = append(out, s.ref)
		}
	}
	return out
}

// Diagnostics returns the diagnostics raised while building f.
func (f Fragment) Diagnostics() []Diagnostic {
	return slices.Clone(f.diags)
}

// WithDiagnostic returns f with diags attached.
func (f Fragment) WithDiagnostic(diags ...Diagnostic) Fragment {
	if len(diags) == 0 {
		return f
	}
	return Fragment{
		segs:  slices.Clone(f.segs),
		diags: slices.Concat(f.diags, diags),
	}
}
