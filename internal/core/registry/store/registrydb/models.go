package registrydb

import (
	"time"

	"github.com/google/uuid"
	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
	"github.com/shopspring/decimal"
)

type dbCustomer struct {
	ID               string          `db:"customer_id"`
	Name             string          `db:"name"`
	CreditScore      int             `db:"credit_score"`
	MonthlyIncome    decimal.Decimal `db:"monthly_income"`
	MonthlyExpenses  decimal.Decimal `db:"monthly_expenses"`
	OutstandingLoans decimal.Decimal `db:"outstanding_loans"`
	RepaymentHistory []int           `db:"repayment_history"`
	Status           string          `db:"status"`
}

func toCustomer(c dbCustomer) customer.Customer {
	return customer.Customer{
		ID:               c.ID,
		Name:             c.Name,
		CreditScore:      c.CreditScore,
		MonthlyIncome:    c.MonthlyIncome,
		MonthlyExpenses:  c.MonthlyExpenses,
		OutstandingLoans: c.OutstandingLoans,
		RepaymentHistory: c.RepaymentHistory,
		Status:           customer.Status(c.Status),
	}
}

func toCustomers(cs []dbCustomer) []customer.Customer {
	slice := make([]customer.Customer, len(cs))
	for i, c := range cs {
		slice[i] = toCustomer(c)
	}
	return slice
}

type dbAlert struct {
	ID          uuid.UUID `db:"alert_id"`
	CustomerID  string    `db:"customer_id"`
	RiskScore   int       `db:"risk_score"`
	DateCreated time.Time `db:"date_created"`
}

func toDBAlert(a registry.Alert) dbAlert {
	return dbAlert(a)
}

func toAlerts(as []dbAlert) []registry.Alert {
	slice := make([]registry.Alert, len(as))
	for i, a := range as {
		slice[i] = registry.Alert(a)
	}
	return slice
}
