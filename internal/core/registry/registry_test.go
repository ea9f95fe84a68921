package registry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/rschio/riskdash/internal/web"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu        sync.Mutex
	customers map[string]customer.Customer
	alerts    []registry.Alert
}

func (s *memStore) ExecUnderTx(ctx context.Context, fn func(tx registry.Store) error) error {
	return fn(s)
}

func (s *memStore) QueryAll(ctx context.Context) ([]customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs := make([]customer.Customer, 0, len(s.customers))
	for _, id := range []string{"C001", "C002"} {
		if c, ok := s.customers[id]; ok {
			cs = append(cs, c)
		}
	}
	return cs, nil
}

func (s *memStore) QueryByID(ctx context.Context, id string) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, fmt.Errorf("%w: %s", registry.ErrNotFound, id)
	}
	return c, nil
}

func (s *memStore) UpdateStatus(ctx context.Context, id string, status customer.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.customers[id]
	c.Status = status
	s.customers[id] = c
	return nil
}

func (s *memStore) AddAlert(ctx context.Context, a registry.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, a)
	return nil
}

func (s *memStore) QueryAlerts(ctx context.Context, id string) ([]registry.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var as []registry.Alert
	for _, a := range s.alerts {
		if a.CustomerID == id {
			as = append(as, a)
		}
	}
	return as, nil
}

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	err   error
	taken int
}

func (l *fakeLocker) Lock(ctx context.Context, name string) (func() error, error) {
	if l.err != nil {
		return nil, l.err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, errors.New("already held")
	}
	l.held[name] = true
	l.taken++

	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, name)
		return nil
	}, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []registry.Alert
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, a registry.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

func setup() (*registry.Core, *memStore, *fakeLocker, *fakePublisher) {
	store := &memStore{
		customers: map[string]customer.Customer{
			"C001": {
				ID:               "C001",
				Name:             "Ana",
				CreditScore:      650,
				MonthlyIncome:    decimal.NewFromInt(4000),
				MonthlyExpenses:  decimal.NewFromInt(2500),
				OutstandingLoans: decimal.NewFromInt(2000),
				RepaymentHistory: []int{1, 0, 1, 1, 0},
				Status:           customer.StatusReview,
			},
			"C002": {
				ID:               "C002",
				Name:             "Bruno",
				CreditScore:      500,
				MonthlyIncome:    decimal.NewFromInt(2000),
				MonthlyExpenses:  decimal.NewFromInt(1800),
				OutstandingLoans: decimal.NewFromInt(10000),
				RepaymentHistory: []int{0, 0, 1},
				Status:           customer.StatusApproved,
			},
		},
	}
	locker := &fakeLocker{held: map[string]bool{}}
	pub := &fakePublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return registry.NewCore(log, store, locker, pub), store, locker, pub
}

func TestQueryAllScores(t *testing.T) {
	core, _, _, _ := setup()

	cs, err := core.QueryAll(context.Background())
	if err != nil {
		t.Fatalf("query all: %v", err)
	}

	want := map[string]int{"C001": 32, "C002": 99}
	for _, c := range cs {
		if c.RiskScore != want[c.ID] {
			t.Errorf("customer %s got score %d want %d", c.ID, c.RiskScore, want[c.ID])
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	core, store, locker, _ := setup()

	c, err := core.UpdateStatus(ctx, "C002", customer.StatusRejected)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if c.Status != customer.StatusRejected || c.RiskScore != 99 {
		t.Fatalf("got status %q score %d", c.Status, c.RiskScore)
	}
	if got := store.customers["C002"].Status; got != customer.StatusRejected {
		t.Fatalf("stored status %q", got)
	}
	if locker.taken != 1 || len(locker.held) != 0 {
		t.Fatalf("lock taken %d times, %d still held", locker.taken, len(locker.held))
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		status  customer.Status
		lockErr error
		wantErr error
	}{
		{"unknown customer", "C404", customer.StatusApproved, nil, registry.ErrNotFound},
		{"invalid status", "C001", customer.Status("Pending"), nil, registry.ErrInvalidArgument},
		{"lock failure", "C001", customer.StatusApproved, errors.New("redis down"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, store, locker, _ := setup()
			locker.err = tt.lockErr

			_, err := core.UpdateStatus(ctx, tt.id, tt.status)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err %v want %v", err, tt.wantErr)
			}
			if got := store.customers["C001"].Status; got != customer.StatusReview {
				t.Fatalf("status changed to %q", got)
			}
		})
	}
}

func TestRecordAlert(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	ctx := web.SetValues(context.Background(), &web.Values{Now: now})
	core, store, _, pub := setup()

	a, err := core.RecordAlert(ctx, registry.NewAlert{CustomerID: "C002", RiskScore: 99})
	if err != nil {
		t.Fatalf("record alert: %v", err)
	}
	if !a.DateCreated.Equal(now.Round(time.Microsecond)) {
		t.Errorf("got date %v", a.DateCreated)
	}
	if len(store.alerts) != 1 || store.alerts[0].ID != a.ID {
		t.Fatalf("stored alerts %+v", store.alerts)
	}
	if len(pub.published) != 1 || pub.published[0].ID != a.ID {
		t.Fatalf("published alerts %+v", pub.published)
	}

	as, err := core.QueryAlerts(ctx, "C002")
	if err != nil || len(as) != 1 {
		t.Fatalf("query alerts got %v %v", as, err)
	}
}

func TestRecordAlertPublishFailure(t *testing.T) {
	ctx := context.Background()
	core, store, _, pub := setup()
	pub.err = errors.New("stream down")

	if _, err := core.RecordAlert(ctx, registry.NewAlert{CustomerID: "C002", RiskScore: 99}); err != nil {
		t.Fatalf("publish failure should not fail the alert: %v", err)
	}
	if len(store.alerts) != 1 {
		t.Fatalf("got %d stored alerts want 1", len(store.alerts))
	}
}

func TestRecordAlertInvalid(t *testing.T) {
	ctx := context.Background()
	core, store, _, pub := setup()

	if _, err := core.RecordAlert(ctx, registry.NewAlert{CustomerID: "C404", RiskScore: 99}); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("got err %v want %v", err, registry.ErrNotFound)
	}
	if _, err := core.RecordAlert(ctx, registry.NewAlert{RiskScore: 99}); !errors.Is(err, registry.ErrInvalidArgument) {
		t.Fatalf("got err %v want %v", err, registry.ErrInvalidArgument)
	}
	if len(store.alerts) != 0 || len(pub.published) != 0 {
		t.Fatalf("invalid alerts were kept: %+v %+v", store.alerts, pub.published)
	}
}
