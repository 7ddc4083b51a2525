package ir

import "strconv"

// Template returns the placeholder text for the n-th binding of a statement.
// n starts at 1.
type Template func(n int) string

// QuestionMark renders every placeholder as "?" (SQLite, MySQL).
func QuestionMark(int) string { return "?" }

// DollarNumbered renders placeholders as "$1", "$2", ... (PostgreSQL).
func DollarNumbered(n int) string { return "$" + strconv.Itoa(n) }

// ColonNumbered renders placeholders as ":1", ":2", ...
func ColonNumbered(n int) string { return ":" + strconv.Itoa(n) }

// QuestionNumbered renders placeholders as "?1", "?2", ... (SQLite).
func QuestionNumbered(n int) string { return "?" + strconv.Itoa(n) }

// TemplateNamed resolves a placeholder style by name: "question", "dollar",
// "colon" or "numbered". ok is false for unknown names.
func TemplateNamed(name string) (t Template, ok bool) {
	switch name {
	case "", "question":
		return QuestionMark, true
	case "dollar":
		return DollarNumbered, true
	case "colon":
		return ColonNumbered, true
	case "numbered":
		return QuestionNumbered, true
	}
	return nil, false
}
