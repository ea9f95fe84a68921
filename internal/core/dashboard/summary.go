package dashboard

import (
	"math"

	"github.com/rschio/riskdash/internal/core/customer"
)

// Summary holds the aggregate figures and chart series of the dashboard.
type Summary struct {
	TotalCustomers     int
	AvgCreditScore     int
	HighRiskCount      int
	ApprovalRate       int
	StatusDistribution []Slice
	RiskDistribution   []Slice
	IncomeExpenses     []IncomePoint
}

// Slice is one named value of a distribution.
type Slice struct {
	Name  string
	Value int
}

// IncomePoint is one customer on the income vs expenses chart.
type IncomePoint struct {
	Name     string
	Income   float64
	Expenses float64
}

// Summarize computes the dashboard figures for cs.
func Summarize(cs []customer.Customer) Summary {
	sum := Summary{
		TotalCustomers:     len(cs),
		StatusDistribution: []Slice{},
		RiskDistribution:   make([]Slice, 0, len(cs)),
		IncomeExpenses:     make([]IncomePoint, 0, len(cs)),
	}

	counts := make(map[customer.Status]int, len(customer.Statuses))
	var creditTotal int
	for _, c := range cs {
		creditTotal += c.CreditScore
		counts[c.Status]++

		if customer.IsHighRisk(c.RiskScore) {
			sum.HighRiskCount++
		}

		sum.RiskDistribution = append(sum.RiskDistribution, Slice{Name: c.Name, Value: c.RiskScore})
		sum.IncomeExpenses = append(sum.IncomeExpenses, IncomePoint{
			Name:     c.Name,
			Income:   c.MonthlyIncome.InexactFloat64(),
			Expenses: c.MonthlyExpenses.InexactFloat64(),
		})
	}

	for _, st := range customer.Statuses {
		if n := counts[st]; n > 0 {
			sum.StatusDistribution = append(sum.StatusDistribution, Slice{Name: st.String(), Value: n})
		}
	}

	if len(cs) > 0 {
		sum.AvgCreditScore = roundHalfUp(float64(creditTotal) / float64(len(cs)))
		sum.ApprovalRate = roundHalfUp(float64(counts[customer.StatusApproved]) / float64(len(cs)) * 100)
	}

	return sum
}

func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
