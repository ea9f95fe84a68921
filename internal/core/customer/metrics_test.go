package customer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

type stubBackend struct {
	alertErr error
}

func (stubBackend) QueryAll(context.Context) ([]Customer, error) { return nil, nil }
func (stubBackend) UpdateStatus(context.Context, string, Status) error { return nil }
func (b stubBackend) SendAlert(context.Context, Alert) error { return b.alertErr }

type stubRoster map[string]Customer

func (r stubRoster) Customer(id string) (Customer, bool) {
	c, ok := r[id]
	return c, ok
}

func (r stubRoster) ApplyStatus(id string, status Status) (Customer, error) {
	c, ok := r[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	c.Status = status
	r[id] = c
	return c, nil
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	high := Customer{
		ID:               "C002",
		CreditScore:      500,
		MonthlyIncome:    decimal.NewFromInt(2000),
		OutstandingLoans: decimal.NewFromInt(10000),
	}
	high.RiskScore = Score(high)

	okBefore := testutil.ToFloat64(statusUpdates.WithLabelValues("ok"))
	sentBefore := testutil.ToFloat64(alertsSent.WithLabelValues("ok"))
	failedBefore := testutil.ToFloat64(alertsSent.WithLabelValues("failed"))

	core := NewCore(log, stubBackend{}, stubRoster{"C002": high})
	if _, err := core.UpdateStatus(ctx, "C002", StatusApproved); err != nil {
		t.Fatalf("update status: %v", err)
	}

	core = NewCore(log, stubBackend{alertErr: errors.New("boom")}, stubRoster{"C002": high})
	if _, err := core.UpdateStatus(ctx, "C002", StatusRejected); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if got := testutil.ToFloat64(statusUpdates.WithLabelValues("ok")) - okBefore; got != 2 {
		t.Errorf("ok updates delta %v want 2", got)
	}
	if got := testutil.ToFloat64(alertsSent.WithLabelValues("ok")) - sentBefore; got != 1 {
		t.Errorf("sent alerts delta %v want 1", got)
	}
	if got := testutil.ToFloat64(alertsSent.WithLabelValues("failed")) - failedBefore; got != 1 {
		t.Errorf("failed alerts delta %v want 1", got)
	}
}
