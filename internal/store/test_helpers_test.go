package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/roach88/structq/internal/query"
	"github.com/roach88/structq/internal/testutil"
)

var drivers = []string{DriverCGO, DriverPure}

// createTestStore opens a file-backed store with the reminders schema.
func createTestStore(t *testing.T, driver string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, Options{Driver: driver, Logger: testutil.NewTestLogger(t)})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	err = s.Migrate(context.Background(), Migration{
		query.CreateTable(testutil.Tags.Table),
		query.CreateTable(testutil.RemindersLists.Table),
		query.CreateTable(testutil.Reminders.Table),
	})
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return s
}

// createMockStore wraps a sqlmock database matching SQL text exactly.
func createMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, Options{Logger: testutil.NewTestLogger(t)}), mock
}
