// Package store executes rendered statements against SQLite through
// database/sql.
//
// The store is the boundary between the pure statement algebra and a live
// database. It renders each statement with its placeholder template, binds
// every ir.Binding as a driver argument, and feeds result rows back one at a
// time through a decode.Cursor.
//
// # Execution rules
//
//   - Empty statements (an INSERT without rows, a query built from None) are
//     skipped: no SQL reaches the database and Exec reports zero rows.
//   - Diagnostics attached to a statement are logged at warn level before it
//     runs; they never stop execution.
//   - A binding the driver cannot represent (an Invalid binding, a Uint above
//     the int64 range) fails with a *BindError before any SQL is sent.
//
// # Drivers
//
// Two SQLite drivers are registered: "sqlite3" (github.com/mattn/go-sqlite3,
// cgo) and "sqlite" (modernc.org/sqlite, pure Go). Both store dates as text in
// ir.DateLayout, UUIDs as text and booleans as integers.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Prepared statements are cached per SQL text, keyed by its xxh3 hash, and
// concurrent first uses of the same text share one prepare.
package store
