package ir

import "strings"

// QuoteIdent wraps an identifier in double quotes, doubling any embedded
// double quote.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteText wraps a string literal in single quotes, doubling any embedded
// single quote.
func QuoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
