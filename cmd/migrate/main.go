// cmd/migrate/main.go
// Creates the trainerbook tables and indexes in the configured database.
//
// Usage:
//
//	DB_DRIVER=postgres DATABASE_URL=postgres://... go run ./cmd/migrate
//	DB_DRIVER=sqlite SQLITE_PATH=file:trainerbook.db go run ./cmd/migrate -stats
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/uptrace/bun"

	"github.com/trainerbook/trainerbook/config"
	bundb "github.com/trainerbook/trainerbook/db"
	"github.com/trainerbook/trainerbook/models"
)

func main() {
	stats := flag.Bool("stats", false, "print row counts after migrating")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	start := time.Now()
	if err := bundb.CreateTables(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("schema ready on %s in %s", cfg.DBDriver, time.Since(start).Round(time.Millisecond))

	if *stats {
		if err := printStats(ctx, db); err != nil {
			log.Fatalf("stats: %v", err)
		}
	}
}

func printStats(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", (*models.User)(nil)},
		{"bookings", (*models.Booking)(nil)},
		{"programs", (*models.Program)(nil)},
	}
	for _, t := range tables {
		n, err := db.NewSelect().Model(t.model).Count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", t.name, err)
		}
		fmt.Printf("%-10s %d\n", t.name, n)
	}
	return nil
}
