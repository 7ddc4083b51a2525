// Package ir provides the statement intermediate representation: SQL
// fragments with out-of-band parameter bindings.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps the IR the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Fragments are immutable values; placeholders map 1:1 onto bindings
//   - Binding is a sealed, comparable union; unknown kinds cannot exist
//   - Rendering never fails; misuse becomes a Diagnostic on the fragment
//   - Table names are symbolic references, resolved when rendered
package ir
