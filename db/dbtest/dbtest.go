// Package dbtest opens throwaway in-memory SQLite databases with the schema applied.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/trainerbook/trainerbook/config"
	"github.com/trainerbook/trainerbook/db"
)

// New returns a migrated database that is closed when t finishes.
func New(t testing.TB) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	bdb, err := db.Open(config.DriverSQLite, dsn, false)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = bdb.Close() })

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return bdb
}
