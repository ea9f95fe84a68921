package customerapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/shopspring/decimal"
)

// apiID accepts both JSON strings and JSON numbers as customer ids.
type apiID string

func (id *apiID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = apiID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("customer id must be a string or a number: %w", err)
	}
	*id = apiID(n.String())
	return nil
}

type apiCustomer struct {
	ID               apiID           `json:"customerId"`
	Name             string          `json:"name"`
	CreditScore      int             `json:"creditScore"`
	MonthlyIncome    decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses  decimal.Decimal `json:"monthlyExpenses"`
	OutstandingLoans decimal.Decimal `json:"outstandingLoans"`
	RepaymentHistory []int           `json:"loanRepaymentHistory"`
	RiskScore        int             `json:"riskScore"`
	Status           string          `json:"status"`
}

func toCustomer(c apiCustomer) customer.Customer {
	return customer.Customer{
		ID:               string(c.ID),
		Name:             c.Name,
		CreditScore:      c.CreditScore,
		MonthlyIncome:    c.MonthlyIncome,
		MonthlyExpenses:  c.MonthlyExpenses,
		OutstandingLoans: c.OutstandingLoans,
		RepaymentHistory: c.RepaymentHistory,
		RiskScore:        c.RiskScore,
		Status:           customer.Status(c.Status),
	}
}

func toCustomers(cs []apiCustomer) []customer.Customer {
	slice := make([]customer.Customer, len(cs))
	for i, c := range cs {
		slice[i] = toCustomer(c)
	}
	return slice
}

type apiStatus struct {
	Status string `json:"status"`
}

type apiAlert struct {
	CustomerID string `json:"customerId"`
	RiskScore  int    `json:"riskScore"`
}
