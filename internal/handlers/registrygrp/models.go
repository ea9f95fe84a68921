package registrygrp

import (
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/registry"
)

type Customer struct {
	ID               string  `json:"customerId"`
	Name             string  `json:"name"`
	CreditScore      int     `json:"creditScore"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	MonthlyExpenses  float64 `json:"monthlyExpenses"`
	OutstandingLoans float64 `json:"outstandingLoans"`
	RepaymentHistory []int   `json:"loanRepaymentHistory"`
	RiskScore        int     `json:"riskScore"`
	Status           string  `json:"status"`
}

func toCustomer(c customer.Customer) Customer {
	history := c.RepaymentHistory
	if history == nil {
		history = []int{}
	}

	return Customer{
		ID:               c.ID,
		Name:             c.Name,
		CreditScore:      c.CreditScore,
		MonthlyIncome:    c.MonthlyIncome.InexactFloat64(),
		MonthlyExpenses:  c.MonthlyExpenses.InexactFloat64(),
		OutstandingLoans: c.OutstandingLoans.InexactFloat64(),
		RepaymentHistory: history,
		RiskScore:        c.RiskScore,
		Status:           c.Status.String(),
	}
}

func toCustomers(cs []customer.Customer) []Customer {
	slice := make([]Customer, len(cs))
	for i, c := range cs {
		slice[i] = toCustomer(c)
	}
	return slice
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type NewAlertReq struct {
	CustomerID string `json:"customerId"`
	RiskScore  int    `json:"riskScore"`
}

func toNewAlert(r NewAlertReq) registry.NewAlert {
	return registry.NewAlert(r)
}

type Alert struct {
	ID          string    `json:"alertId"`
	CustomerID  string    `json:"customerId"`
	RiskScore   int       `json:"riskScore"`
	DateCreated time.Time `json:"dateCreated"`
}

func toAlert(a registry.Alert) Alert {
	return Alert{
		ID:          a.ID.String(),
		CustomerID:  a.CustomerID,
		RiskScore:   a.RiskScore,
		DateCreated: a.DateCreated,
	}
}

func toAlerts(as []registry.Alert) []Alert {
	slice := make([]Alert, len(as))
	for i, a := range as {
		slice[i] = toAlert(a)
	}
	return slice
}
