package registrydb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/data/dbtest"
	"github.com/shopspring/decimal"
)

func TestQueryByID(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	c, err := store.QueryByID(ctx, "CUST1001")
	if err != nil {
		t.Fatalf("failed to query customer by id[%s]: %v", "CUST1001", err)
	}

	want := customer.Customer{
		ID:               "CUST1001",
		Name:             "Alice Johnson",
		CreditScore:      650,
		MonthlyIncome:    decimal.RequireFromString("4000"),
		MonthlyExpenses:  decimal.RequireFromString("2500"),
		OutstandingLoans: decimal.RequireFromString("2000"),
		RepaymentHistory: []int{1, 0, 1, 1, 0},
		Status:           customer.StatusReview,
	}
	opt := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, c, opt); diff != "" {
		t.Fatalf("customer mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.QueryByID(ctx, "NOPE"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("got err %v want %v", err, registry.ErrNotFound)
	}
}

func TestQueryAll(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	cs, err := NewStore(log, database).QueryAll(ctx)
	if err != nil {
		t.Fatalf("failed to query customers: %v", err)
	}

	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	want := []string{"CUST1001", "CUST1002", "CUST1003", "CUST1004", "CUST1005"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	if len(cs[4].RepaymentHistory) != 0 {
		t.Errorf("got history %v want empty", cs[4].RepaymentHistory)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	if err := store.UpdateStatus(ctx, "CUST1002", customer.StatusRejected); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	c, err := store.QueryByID(ctx, "CUST1002")
	if err != nil {
		t.Fatalf("failed to query customer: %v", err)
	}
	if c.Status != customer.StatusRejected {
		t.Errorf("got status %q want %q", c.Status, customer.StatusRejected)
	}

	if err := store.UpdateStatus(ctx, "NOPE", customer.StatusApproved); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("got err %v want %v", err, registry.ErrNotFound)
	}

	if err := store.UpdateStatus(ctx, "CUST1002", customer.Status("Pending")); !errors.Is(err, registry.ErrInvalidArgument) {
		t.Errorf("got err %v want %v", err, registry.ErrInvalidArgument)
	}
}

func TestAlerts(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	now := time.Now().UTC().Round(time.Microsecond)
	older := genAlert("CUST1002", 99, now.Add(-time.Minute))
	newer := genAlert("CUST1002", 99, now)

	for _, a := range []registry.Alert{older, newer} {
		if err := store.AddAlert(ctx, a); err != nil {
			t.Fatalf("failed to add alert: %v", err)
		}
	}

	as, err := store.QueryAlerts(ctx, "CUST1002")
	if err != nil {
		t.Fatalf("failed to query alerts: %v", err)
	}
	if diff := cmp.Diff([]registry.Alert{newer, older}, as); diff != "" {
		t.Fatalf("alerts mismatch (-want +got):\n%s", diff)
	}

	as, err = store.QueryAlerts(ctx, "CUST1001")
	if err != nil {
		t.Fatalf("failed to query alerts: %v", err)
	}
	if len(as) != 0 {
		t.Errorf("got %d should return 0 alerts", len(as))
	}

	if err := store.AddAlert(ctx, genAlert("NOPE", 80, now)); !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("got err %v want %v", err, registry.ErrNotFound)
	}
}

func genAlert(customerID string, score int, date time.Time) registry.Alert {
	return registry.Alert{
		ID:          uuid.New(),
		CustomerID:  customerID,
		RiskScore:   score,
		DateCreated: date,
	}
}
