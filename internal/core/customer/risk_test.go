package customer

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		creditScore int
		loans       int64
		income      int64
		history     []int
		want        int
	}{
		// 50/7 + 5 + 20 = 32.14
		{"reference fixture", 650, 2000, 4000, []int{1, 0, 1, 1, 0}, 32},
		// 200/7 + 50 + 20 = 98.57
		{"high risk", 500, 10000, 2000, []int{0, 0, 1}, 99},
		// -150/7 = -21.43, not clamped
		{"negative", 850, 0, 5000, []int{1, 1}, -21},
		{"half rounds up", 700, 25, 100, nil, 3},
		// -14/7 + 1.5 = -0.5
		{"negative half rounds up", 714, 15, 100, nil, 0},
		// 1/7 + 10/28 = 0.5, each term repeating
		{"repeating terms sum to half", 699, 1, 28, nil, 1},
		// 1/7 + 1970/28 = 70.5, one above the alert threshold
		{"repeating terms at threshold", 699, 197, 28, nil, 71},
		{"empty history", 700, 0, 3000, []int{}, 0},
		{"zero income", 650, 2000, 0, []int{1}, MaxRiskScore},
		{"zero income and loans", 800, 0, 0, nil, MaxRiskScore},
		{"negative income", 800, 0, -10, nil, MaxRiskScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Customer{
				CreditScore:      tt.creditScore,
				OutstandingLoans: decimal.NewFromInt(tt.loans),
				MonthlyIncome:    decimal.NewFromInt(tt.income),
				RepaymentHistory: tt.history,
			}

			if got := Score(c); got != tt.want {
				t.Errorf("got score %d want %d", got, tt.want)
			}
		})
	}
}

func TestScoreFractionalAmounts(t *testing.T) {
	c := Customer{
		CreditScore:      693,
		OutstandingLoans: decimal.RequireFromString("1234.56"),
		MonthlyIncome:    decimal.RequireFromString("3086.40"),
		RepaymentHistory: []int{1, 1, 1},
	}

	// 7/7 + 4 = 5
	if got := Score(c); got != 5 {
		t.Fatalf("got score %d want %d", got, 5)
	}
}

func TestIsHighRisk(t *testing.T) {
	tests := map[int]bool{
		-5:           false,
		70:           false,
		71:           true,
		MaxRiskScore: true,
	}
	for score, want := range tests {
		if got := IsHighRisk(score); got != want {
			t.Errorf("IsHighRisk(%d) = %v want %v", score, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != s {
			t.Errorf("got %q want %q", got, s)
		}
	}

	for _, s := range []string{"", "approved", "Pending"} {
		if _, err := ParseStatus(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestMissedPayments(t *testing.T) {
	c := Customer{RepaymentHistory: []int{1, 0, 0, 1, 0}}
	if got := c.MissedPayments(); got != 3 {
		t.Fatalf("got %d missed payments want 3", got)
	}
}
