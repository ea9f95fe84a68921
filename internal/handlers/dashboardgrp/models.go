package dashboardgrp

import (
	"time"

	"github.com/rschio/riskdash/internal/core/customer"
	"github.com/rschio/riskdash/internal/core/dashboard"
)

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type Gauge struct {
	Percent int    `json:"percent"`
	Band    string `json:"band"`
}

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
	Gauge            Gauge   `json:"gauge"`
}

type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type IncomePoint struct {
	Name     string  `json:"name"`
	Income   float64 `json:"monthlyIncome"`
	Expenses float64 `json:"monthlyExpenses"`
}

type Summary struct {
	TotalCustomers     int           `json:"totalCustomers"`
	AvgCreditScore     int           `json:"avgCreditScore"`
	HighRiskCount      int           `json:"highRiskCount"`
	ApprovalRate       int           `json:"approvalRate"`
	StatusDistribution []Slice       `json:"statusDistribution"`
	RiskDistribution   []Slice       `json:"riskDistribution"`
	IncomeExpenses     []IncomePoint `json:"incomeExpenses"`
}

type DashboardResp struct {
	Phase     string     `json:"phase"`
	Error     string     `json:"error,omitempty"`
	LoadedAt  *time.Time `json:"loadedAt,omitempty"`
	Summary   Summary    `json:"summary"`
	Customers []Customer `json:"customers"`
}

func toCustomer(c customer.Customer) Customer {
	history := c.RepaymentHistory
	if history == nil {
		history = []int{}
	}

	g := dashboard.NewGauge(c.RiskScore)

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
		Gauge:            Gauge{Percent: g.Percent, Band: string(g.Band)},
	}
}

func toCustomers(cs []customer.Customer) []Customer {
	slice := make([]Customer, len(cs))
	for i, c := range cs {
		slice[i] = toCustomer(c)
	}
	return slice
}

func toSlices(ss []dashboard.Slice) []Slice {
	slice := make([]Slice, len(ss))
	for i, s := range ss {
		slice[i] = Slice(s)
	}
	return slice
}

func toSummary(s dashboard.Summary) Summary {
	points := make([]IncomePoint, len(s.IncomeExpenses))
	for i, p := range s.IncomeExpenses {
		points[i] = IncomePoint(p)
	}

	return Summary{
		TotalCustomers:     s.TotalCustomers,
		AvgCreditScore:     s.AvgCreditScore,
		HighRiskCount:      s.HighRiskCount,
		ApprovalRate:       s.ApprovalRate,
		StatusDistribution: toSlices(s.StatusDistribution),
		RiskDistribution:   toSlices(s.RiskDistribution),
		IncomeExpenses:     points,
	}
}

func toDashboardResp(snap dashboard.Snapshot) DashboardResp {
	resp := DashboardResp{
		Phase:     snap.Phase.String(),
		Summary:   toSummary(dashboard.Summarize(snap.Customers)),
		Customers: toCustomers(snap.Customers),
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		resp.LoadedAt = &t
	}
	return resp
}
