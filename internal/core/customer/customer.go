// Package customer scores loan customers and coordinates operator status
// changes with the backend that owns the records.
package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set of errors for customer API.
var (
	ErrNotFound        = errors.New("customer not found")
	ErrInvalidArgument = errors.New("customer invalid argument")
	ErrNetwork         = errors.New("customer backend unreachable")
)

var (
	statusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskdash_status_updates_total",
		Help: "Operator status updates by result.",
	}, []string{"result"})

	alertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riskdash_alerts_total",
		Help: "High risk alerts posted to the backend by result.",
	}, []string{"result"})
)

// Backend is the external service that owns the customer records.
type Backend interface {
	QueryAll(ctx context.Context) ([]Customer, error)
	UpdateStatus(ctx context.Context, customerID string, status Status) error
	SendAlert(ctx context.Context, a Alert) error
}

// Roster is the local copy of the customers the operator is working on.
type Roster interface {
	Customer(customerID string) (Customer, bool)

	// ApplyStatus sets the status of the local record and returns the
	// record as it is after the change.
	ApplyStatus(customerID string, status Status) (Customer, error)
}

// Core deals with customer's business logic.
type Core struct {
	log     *slog.Logger
	backend Backend
	roster  Roster
}

func NewCore(log *slog.Logger, backend Backend, roster Roster) *Core {
	return &Core{
		log:     log,
		backend: backend,
		roster:  roster,
	}
}

// QueryAll fetches every customer from the backend and scores them. The
// score computed here replaces any score the backend supplied.
func (c *Core) QueryAll(ctx context.Context) ([]Customer, error) {
	cs, err := c.backend.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}

	for i := range cs {
		cs[i].RiskScore = Score(cs[i])
	}

	return cs, nil
}

// UpdateStatus persists the new status in the backend, applies it to the
// local roster and alerts the backend when the confirmed record is high
// risk. Nothing local changes when the backend call fails. A failed alert
// is logged and does not undo the status change.
func (c *Core) UpdateStatus(ctx context.Context, customerID string, status Status) (Customer, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		statusUpdates.WithLabelValues("invalid").Inc()
		return Customer{}, err
	}

	before, ok := c.roster.Customer(customerID)
	if !ok {
		statusUpdates.WithLabelValues("not_found").Inc()
		return Customer{}, fmt.Errorf("%w: id[%s]", ErrNotFound, customerID)
	}

	if err := c.backend.UpdateStatus(ctx, customerID, status); err != nil {
		statusUpdates.WithLabelValues("failed").Inc()
		return Customer{}, fmt.Errorf("update status: %w", err)
	}
	statusUpdates.WithLabelValues("ok").Inc()

	updated, err := c.roster.ApplyStatus(customerID, status)
	if err != nil {
		// The record left the roster during the round trip, a refresh
		// replaced it. The backend already holds the new status.
		c.log.WarnContext(ctx, "status persisted but customer no longer tracked, alert check skipped",
			"customer_id", customerID, "ERROR", err)
		before.Status = status
		return before, nil
	}

	if IsHighRisk(updated.RiskScore) {
		c.alert(ctx, updated)
	}

	return updated, nil
}

func (c *Core) alert(ctx context.Context, cust Customer) {
	a := Alert{
		CustomerID: cust.ID,
		RiskScore:  cust.RiskScore,
	}

	if err := c.backend.SendAlert(ctx, a); err != nil {
		alertsSent.WithLabelValues("failed").Inc()
		c.log.ErrorContext(ctx, "sending alert", "customer_id", a.CustomerID, "risk_score", a.RiskScore, "ERROR", err)
		return
	}

	alertsSent.WithLabelValues("ok").Inc()
	c.log.InfoContext(ctx, "alert sent", "customer_id", a.CustomerID, "risk_score", a.RiskScore)
}
