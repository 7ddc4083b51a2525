package ir

// TableRef is a symbolic reference to a table inside a fragment.
//
// Fragments keep table references as segments instead of quoted text, so an
// alias can retarget every column of a table at render time without searching
// the SQL for a quoted name.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// Qualified renders the base table name, prefixed by its schema when set.
func (r TableRef) Qualified() string {
	if r.Schema != "" {
		return QuoteIdent(r.Schema) + "." + QuoteIdent(r.Name)
	}
	return QuoteIdent(r.Name)
}

// String renders the token columns are qualified with: the alias when set,
// otherwise the qualified base name.
func (r TableRef) String() string {
	if r.Alias != "" {
		return QuoteIdent(r.Alias)
	}
	return r.Qualified()
}

// Declaration renders the reference as it appears in a FROM or JOIN clause.
func (r TableRef) Declaration() string {
	if r.Alias != "" && r.Alias != r.Name {
		return r.Qualified() + " AS " + QuoteIdent(r.Alias)
	}
	return r.Qualified()
}

// Base returns the reference without its alias.
func (r TableRef) Base() TableRef {
	r.Alias = ""
	return r
}

// WithAlias returns a copy of r aliased as name.
func (r TableRef) WithAlias(name string) TableRef {
	r.Alias = name
	return r
}
