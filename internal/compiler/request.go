package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/structq/internal/expr"
	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/schema"
)

// Statements lists the statement kinds a Request can name.
var Statements = []string{
	"select", "count", "insert", "upsert", "update", "delete", "find",
	"view", "trigger", "create", "drop",
}

// Request describes a statement on one table in plain strings, as it comes
// from command-line flags or a scenario file. Set and Where hold
// column=value pairs whose values are read by ParseValue.
type Request struct {
	Kind      string   `yaml:"statement" json:"statement"`
	Set       []string `yaml:"set,omitempty" json:"set,omitempty"`
	Where     []string `yaml:"where,omitempty" json:"where,omitempty"`
	Keys      []string `yaml:"keys,omitempty" json:"keys,omitempty"`
	Returning bool     `yaml:"returning,omitempty" json:"returning,omitempty"`
	View      string   `yaml:"view,omitempty" json:"view,omitempty"`
	Event     string   `yaml:"event,omitempty" json:"event,omitempty"`
}

// Reads reports whether the statement returns rows rather than changing
// them.
func (r Request) Reads() bool {
	switch r.Kind {
	case "select", "count", "find":
		return true
	}
	return r.Returning
}

// Statement builds the statement req describes on t. Keys narrow every
// filtered statement to those primary keys.
func (t *Table) Statement(req Request) (query.Statement, error) {
	preds, err := t.Filters(req.Where)
	if err != nil {
		return nil, err
	}
	where := query.All(t.Table).Where(preds...)
	if len(req.Keys) > 0 {
		if t.Keyed == nil {
			return nil, fmt.Errorf("keys need a primary key; table %s has none", t.Spec.Name)
		}
		keys := make([]ir.Binding, len(req.Keys))
		for i, k := range req.Keys {
			v, err := ParseValue(k)
			if err != nil {
				return nil, err
			}
			keys[i] = ir.Of(v)
		}
		where = query.FindIn(where, t.Keyed, keys...)
	}

	switch req.Kind {
	case "select":
		return where.Select(), nil

	case "count":
		return where.Count(), nil

	case "insert", "upsert":
		values, err := parsePairs(req.Set)
		if err != nil {
			return nil, err
		}
		rec, err := t.Record(values.toMap())
		if err != nil {
			return nil, err
		}
		var ins query.Insert[schema.Record]
		if req.Kind == "insert" {
			// Only the given columns, so the others take their defaults.
			if len(values) == 0 {
				ins = query.InsertInto(t.Table).DefaultValues()
			} else {
				cols := make(schema.ColumnSet, len(values))
				row := make([]ir.Binding, len(values))
				for i, p := range values {
					c, _ := t.Column(p.column)
					cols[i] = c.Info()
					row[i] = ir.Of(p.value)
				}
				ins = query.InsertInto(t.Table).Encoded(cols, row)
			}
		} else {
			if t.Keyed == nil {
				return nil, fmt.Errorf("upsert needs a primary key; table %s has none", t.Spec.Name)
			}
			ins = query.Upsert(t.Keyed, rec)
		}
		if req.Returning {
			ins = ins.ReturningAll()
		}
		return ins, nil

	case "update":
		sets, err := t.Assignments(req.Set)
		if err != nil {
			return nil, err
		}
		upd := where.Update(sets...)
		if req.Returning {
			upd = upd.ReturningAll()
		}
		return upd, nil

	case "delete":
		del := where.Delete()
		if req.Returning {
			del = del.ReturningAll()
		}
		return del, nil

	case "find":
		if len(req.Keys) == 0 {
			return nil, fmt.Errorf("find needs at least one key")
		}
		return where.Select(), nil

	case "view":
		name := req.View
		if name == "" {
			name = t.Spec.Name + "View"
		}
		return query.ViewOf(name, where.Select()).IfNotExists(), nil

	case "trigger":
		return t.touchTrigger(req)

	case "create":
		return query.CreateTable(t.Table).IfNotExists(), nil

	case "drop":
		return query.DropTable(t.Table).IfExists(), nil

	default:
		return nil, fmt.Errorf("unknown statement %q: must be one of %s", req.Kind, strings.Join(Statements, ", "))
	}
}

// touchTrigger assigns the Set values to every row the event changes.
// The trigger is named after the table's position in its schema file.
func (t *Table) touchTrigger(req Request) (query.Statement, error) {
	if t.Keyed == nil {
		return nil, fmt.Errorf("trigger needs a primary key; table %s has none", t.Spec.Name)
	}
	sets, err := t.Assignments(req.Set)
	if err != nil {
		return nil, err
	}

	var (
		event query.Event
		row   schema.Alias
	)
	switch req.Event {
	case "insert":
		event, row = query.OnInsert, schema.New(t.Table)
	case "", "update":
		event, row = query.OnUpdate, schema.New(t.Table)
	case "delete":
		event, row = query.OnDelete, schema.Old(t.Table)
	default:
		return nil, fmt.Errorf("unknown trigger event %q: must be insert, update or delete", req.Event)
	}

	key := t.Keyed.Key()
	body := query.NewUpdate(t.Table, sets...).Where(key.EqExpr(key.Of(row)))
	site := query.CallSite{File: "schema", Line: t.Spec.Pos.Line()}
	if t.Spec.Pos.IsValid() {
		site.File = filepath.Base(t.Spec.Pos.Filename())
	}
	return query.CreateTrigger(t.Table, query.After, event, body).At(site).IfNotExists(), nil
}

// Filters turns column=value pairs into equality predicates. A null value
// tests IS NULL.
func (t *Table) Filters(args []string) ([]expr.Expr[bool], error) {
	ps, err := parsePairs(args)
	if err != nil {
		return nil, err
	}
	preds := make([]expr.Expr[bool], 0, len(ps))
	for _, p := range ps {
		c, err := t.column(p.column)
		if err != nil {
			return nil, err
		}
		if p.value == nil {
			preds = append(preds, c.IsNull())
			continue
		}
		preds = append(preds, c.Eq(ir.Of(p.value)))
	}
	return preds, nil
}

// Assignments turns column=value pairs into SET assignments.
func (t *Table) Assignments(args []string) ([]expr.Assignment, error) {
	ps, err := parsePairs(args)
	if err != nil {
		return nil, err
	}
	sets := make([]expr.Assignment, 0, len(ps))
	for _, p := range ps {
		c, err := t.column(p.column)
		if err != nil {
			return nil, err
		}
		sets = append(sets, c.To(ir.Of(p.value)))
	}
	return sets, nil
}

func (t *Table) column(name string) (schema.Column[schema.Record, ir.Binding], error) {
	c, ok := t.Column(name)
	if !ok {
		return c, fmt.Errorf("table %s has no column %q", t.Spec.Name, name)
	}
	return c, nil
}

type pair struct {
	column string
	value  any
}

type pairs []pair

func (ps pairs) toMap() map[string]any {
	m := make(map[string]any, len(ps))
	for _, p := range ps {
		m[p.column] = p.value
	}
	return m
}

func parsePairs(args []string) (pairs, error) {
	out := make(pairs, 0, len(args))
	for _, arg := range args {
		column, raw, ok := strings.Cut(arg, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("expected column=value, got %q", arg)
		}
		v, err := ParseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", column, err)
		}
		out = append(out, pair{column: column, value: v})
	}
	return out, nil
}

// ParseValue reads a value as a YAML scalar: 5 is an integer, true a
// boolean, null is nil and '5' the text 5. An empty value is the empty
// string, and lists or maps are kept as their raw text.
func ParseValue(raw string) (any, error) {
	if raw == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	switch v.(type) {
	case map[string]any, []any:
		return raw, nil
	}
	return v, nil
}

// Plain is the Go value a binding encodes to in JSON and YAML.
func Plain(b ir.Binding) any {
	switch v := b.(type) {
	case ir.Null:
		return nil
	case ir.Int:
		return int64(v)
	case ir.Uint:
		return uint64(v)
	case ir.Double:
		return float64(v)
	case ir.Bool:
		return bool(v)
	case ir.Text:
		return string(v)
	case ir.Blob:
		return v.Bytes()
	case ir.Date:
		return v.Time()
	case ir.UUID:
		return v.UUID().String()
	default:
		return b.String()
	}
}

// PlainMap is Map with every value converted by Plain.
func (t *Table) PlainMap(rec schema.Record) map[string]any {
	out := make(map[string]any, len(t.columns))
	for name, b := range t.Map(rec) {
		out[name] = Plain(b)
	}
	return out
}
