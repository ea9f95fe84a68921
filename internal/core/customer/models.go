package customer

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the operator-assigned review state of a loan application.
// Any status can move to any other.
type Status string

// Set of known statuses.
const (
	StatusReview   Status = "Review"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Statuses lists the known statuses in display order.
var Statuses = []Status{StatusApproved, StatusReview, StatusRejected}

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReview, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
}

func (s Status) String() string {
	return string(s)
}

// Customer is a loan customer as seen by the dashboard.
type Customer struct {
	ID               string
	Name             string
	CreditScore      int
	MonthlyIncome    decimal.Decimal
	MonthlyExpenses  decimal.Decimal
	OutstandingLoans decimal.Decimal

	// RepaymentHistory holds one marker per installment: 1 paid, 0 missed.
	RepaymentHistory []int
	RiskScore        int
	Status           Status
}

// MissedPayments counts the missed installments.
func (c Customer) MissedPayments() int {
	var n int
	for _, p := range c.RepaymentHistory {
		if p == 0 {
			n++
		}
	}
	return n
}

// Alert is the notification sent when a high risk customer changes status.
type Alert struct {
	CustomerID string
	RiskScore  int
}
