// Package registrydb keeps the registry data in PostgreSQL.
package registrydb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
	db "github.com/rschio/riskdash/internal/data/dbsql/pgx"
)

type Store struct {
	log *slog.Logger
	db  db.DB
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log: log,
		db:  database,
	}
}

func (s *Store) ExecUnderTx(ctx context.Context, fn func(txStore registry.Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(NewStore(s.log, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) QueryAll(ctx context.Context) ([]customer.Customer, error) {
	const q = `
	SELECT
		customer_id,
		name,
		credit_score,
		monthly_income,
		monthly_expenses,
		outstanding_loans,
		repayment_history,
		status
	FROM
		customers
	ORDER BY
		customer_id`

	cs, err := db.NamedQuerySlice[dbCustomer](ctx, s.log, s.db, q, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toCustomers(cs), nil
}

func (s *Store) QueryByID(ctx context.Context, customerID string) (customer.Customer, error) {
	data := struct {
		ID string `db:"customer_id"`
	}{
		ID: customerID,
	}

	// Inside a transaction the row stays locked until it ends.
	const q = `
	SELECT
		customer_id,
		name,
		credit_score,
		monthly_income,
		monthly_expenses,
		outstanding_loans,
		repayment_history,
		status
	FROM
		customers
	WHERE
		customer_id = @customer_id
	FOR UPDATE`

	c, err := db.NamedQueryStruct[dbCustomer](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return customer.Customer{}, fmt.Errorf("%w: %s", registry.ErrNotFound, customerID)
		}
		return customer.Customer{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toCustomer(c), nil
}

func (s *Store) UpdateStatus(ctx context.Context, customerID string, status customer.Status) error {
	data := struct {
		ID     string `db:"customer_id"`
		Status string `db:"status"`
	}{
		ID:     customerID,
		Status: status.String(),
	}

	const q = `
	UPDATE
		customers
	SET
		status = @status,
		date_updated = now()
	WHERE
		customer_id = @customer_id`

	if err := db.NamedExecAffected(ctx, s.log, s.db, q, data); err != nil {
		switch {
		case errors.Is(err, db.ErrDBNotFound):
			return fmt.Errorf("%w: %s", registry.ErrNotFound, customerID)
		case errors.Is(err, db.ErrDBCheckViolation):
			return fmt.Errorf("%w: status %q", registry.ErrInvalidArgument, status)
		}
		return fmt.Errorf("namedexec: %w", err)
	}

	return nil
}

func (s *Store) AddAlert(ctx context.Context, a registry.Alert) error {
	const q = `
	INSERT INTO alerts
		(alert_id, customer_id, risk_score, date_created)
	VALUES
		(@alert_id, @customer_id, @risk_score, @date_created)`

	if err := db.NamedExec(ctx, s.log, s.db, q, toDBAlert(a)); err != nil {
		if errors.Is(err, db.ErrDBForeignKey) {
			return fmt.Errorf("%w: %s", registry.ErrNotFound, a.CustomerID)
		}
		return fmt.Errorf("namedexec: %w", err)
	}

	return nil
}

func (s *Store) QueryAlerts(ctx context.Context, customerID string) ([]registry.Alert, error) {
	data := struct {
		ID string `db:"customer_id"`
	}{
		ID: customerID,
	}

	const q = `
	SELECT
		alert_id,
		customer_id,
		risk_score,
		date_created
	FROM
		alerts
	WHERE
		customer_id = @customer_id
	ORDER BY
		date_created DESC`

	as, err := db.NamedQuerySlice[dbAlert](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toAlerts(as), nil
}
