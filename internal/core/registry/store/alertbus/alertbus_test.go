package alertbus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/data/rdb"
)

func TestPublish(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := rdb.Open(rdb.Config{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := New(log, client, Config{})

	a := registry.Alert{
		ID:          uuid.MustParse("5f0c4a3e-8f43-4c44-9d7c-3b6f3f1f9a10"),
		CustomerID:  "CUST1002",
		RiskScore:   99,
		DateCreated: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := bus.Publish(ctx, a); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs, err := client.XRange(ctx, DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages want 1", len(msgs))
	}

	want := map[string]any{
		"alertId":     "5f0c4a3e-8f43-4c44-9d7c-3b6f3f1f9a10",
		"customerId":  "CUST1002",
		"riskScore":   "99",
		"dateCreated": "2024-03-01T12:00:00Z",
	}
	if diff := cmp.Diff(want, msgs[0].Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.Open(rdb.Config{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := New(log, client, Config{Stream: "test"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	a := registry.Alert{ID: uuid.New(), CustomerID: "CUST1002", RiskScore: 80}
	if err := bus.Publish(ctx, a); err == nil {
		t.Fatal("expected an error with redis down")
	}
}
