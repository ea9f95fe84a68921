// Package registry owns the customer records served to the dashboard and
// the alerts it raises.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/web"
)

// Set of errors for registry API.
var (
	ErrNotFound        = errors.New("customer not found")
	ErrInvalidArgument = errors.New("registry invalid argument")
	ErrInternal        = errors.New("registry internal error")
)

// Store is used to persist customer records and alerts.
type Store interface {
	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	QueryAll(ctx context.Context) ([]customer.Customer, error)
	QueryByID(ctx context.Context, customerID string) (customer.Customer, error)
	UpdateStatus(ctx context.Context, customerID string, status customer.Status) error
	AddAlert(ctx context.Context, a Alert) error
	QueryAlerts(ctx context.Context, customerID string) ([]Alert, error)
}

// Locker serializes writers of the same customer across instances.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func() error, err error)
}

// Publisher delivers stored alerts to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a Alert) error
}

// Core deals with the registry business logic.
type Core struct {
	log       *slog.Logger
	store     Store
	locker    Locker
	publisher Publisher
}

func NewCore(log *slog.Logger, store Store, locker Locker, publisher Publisher) *Core {
	return &Core{
		log:       log,
		store:     store,
		locker:    locker,
		publisher: publisher,
	}
}

// QueryAll returns every customer with its risk score filled in.
func (c *Core) QueryAll(ctx context.Context) ([]customer.Customer, error) {
	cs, err := c.store.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}

	for i := range cs {
		cs[i].RiskScore = customer.Score(cs[i])
	}

	return cs, nil
}

// QueryByID returns the customer with its risk score filled in.
func (c *Core) QueryByID(ctx context.Context, customerID string) (customer.Customer, error) {
	cus, err := c.store.QueryByID(ctx, customerID)
	if err != nil {
		return customer.Customer{}, err
	}

	cus.RiskScore = customer.Score(cus)
	return cus, nil
}

// UpdateStatus sets the customer status and returns the updated record.
func (c *Core) UpdateStatus(ctx context.Context, customerID string, status customer.Status) (customer.Customer, error) {
	if _, err := customer.ParseStatus(status.String()); err != nil {
		return customer.Customer{}, ErrInvalidArgument
	}

	unlock, err := c.locker.Lock(ctx, "customer:"+customerID)
	if err != nil {
		return customer.Customer{}, fmt.Errorf("locking customer[%s]: %w", customerID, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			c.log.WarnContext(ctx, "unlock", "customerID", customerID, "ERROR", err)
		}
	}()

	var updated customer.Customer
	fn := func(tx Store) error {
		cus, err := tx.QueryByID(ctx, customerID)
		if err != nil {
			return err
		}

		if err := tx.UpdateStatus(ctx, customerID, status); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		cus.Status = status
		updated = cus
		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return customer.Customer{}, err
	}

	updated.RiskScore = customer.Score(updated)
	return updated, nil
}

// RecordAlert stores an alert for a known customer and publishes it. A
// publish failure is logged only.
func (c *Core) RecordAlert(ctx context.Context, na NewAlert) (Alert, error) {
	a := Alert{
		ID:          uuid.New(),
		CustomerID:  na.CustomerID,
		RiskScore:   na.RiskScore,
		DateCreated: web.GetTime(ctx).Round(time.Microsecond),
	}
	if err := a.validate(); err != nil {
		return Alert{}, err
	}

	fn := func(tx Store) error {
		if _, err := tx.QueryByID(ctx, a.CustomerID); err != nil {
			return err
		}

		if err := tx.AddAlert(ctx, a); err != nil {
			return fmt.Errorf("failed to add alert: %w", err)
		}

		return nil
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Alert{}, err
	}

	if err := c.publisher.Publish(ctx, a); err != nil {
		c.log.ErrorContext(ctx, "publish alert", "alertID", a.ID, "customerID", a.CustomerID, "ERROR", err)
	}

	return a, nil
}

// QueryAlerts returns the alerts of a customer, newest first.
func (c *Core) QueryAlerts(ctx context.Context, customerID string) ([]Alert, error) {
	if _, err := c.store.QueryByID(ctx, customerID); err != nil {
		return nil, err
	}

	return c.store.QueryAlerts(ctx, customerID)
}

func (a Alert) validate() error {
	switch {
	case a.ID.Variant() == uuid.Invalid:
		return ErrInternal
	case a.CustomerID == "":
		return ErrInvalidArgument
	}

	return nil
}
