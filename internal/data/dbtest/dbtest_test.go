package dbtest

import (
	"context"
	"testing"

	db "github.com/rschio/riskdash/internal/data/dbsql/pgx"
)

func TestNewUnit(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := NewUnit(t, WithMigrations(), WithSeed())
	t.Cleanup(teardown)
	log.Info("Hello")

	if err := db.StatusCheck(ctx, database); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := database.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&n); err != nil {
		t.Fatalf("counting customers: %v", err)
	}
	if n != 5 {
		t.Fatalf("got %d seeded customers want %d", n, 5)
	}
}
