package dashboard_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/dashboard"
)

func TestSchedule(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := dashboard.NewState()

	var calls atomic.Int32
	l := loaderFunc(func(ctx context.Context) ([]customer.Customer, error) {
		calls.Add(1)
		return fixtures(), nil
	})

	c, err := dashboard.Schedule(log, "@every 1s", time.Second, s, l)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	defer c.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for s.Phase() != dashboard.PhaseReady {
		if time.Now().After(deadline) {
			t.Fatalf("state never became ready, %d loads", calls.Load())
		}
		time.Sleep(50 * time.Millisecond)
	}

	if got := len(s.Snapshot().Customers); got != len(fixtures()) {
		t.Fatalf("got %d customers want %d", got, len(fixtures()))
	}
}

func TestScheduleInvalid(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := dashboard.Schedule(log, "every tuesday", time.Second, dashboard.NewState(), nil); err == nil {
		t.Fatal("expected a parse error")
	}
}
