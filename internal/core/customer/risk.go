package customer

import "github.com/shopspring/decimal"

const (
	// HighRiskThreshold is the score above which a status change alerts.
	HighRiskThreshold = 70

	// MaxRiskScore is returned for customers without a positive income,
	// where the debt-to-income ratio is undefined.
	MaxRiskScore = 999

	baselineCreditScore = 700
)

var (
	two     = decimal.NewFromInt(2)
	seven   = decimal.NewFromInt(7)
	seventy = decimal.NewFromInt(70)
)

// Score computes the heuristic risk score of c:
//
//	round((700 - creditScore)/7 + outstandingLoans/monthlyIncome*10 + missed*10)
//
// where round is half up. The result is not clamped and may be negative.
//
// The three terms share the denominator 7*monthlyIncome, so the sum is kept
// as an exact fraction and the rounding never sees a truncated quotient.
func Score(c Customer) int {
	if !c.MonthlyIncome.IsPositive() {
		return MaxRiskScore
	}

	den := seven.Mul(c.MonthlyIncome)

	creditTerm := decimal.NewFromInt(int64(baselineCreditScore - c.CreditScore)).Mul(c.MonthlyIncome)
	loanTerm := c.OutstandingLoans.Mul(seventy)
	paymentTerm := decimal.NewFromInt(int64(c.MissedPayments())).Mul(seventy).Mul(c.MonthlyIncome)

	num := creditTerm.Add(loanTerm).Add(paymentTerm)

	return roundHalfUp(num, den)
}

// roundHalfUp returns floor(num/den + 1/2) for den > 0, computed as
// floor((2*num + den) / (2*den)).
func roundHalfUp(num, den decimal.Decimal) int {
	q, r := num.Mul(two).Add(den).QuoRem(den.Mul(two), 0)

	// QuoRem truncates toward zero.
	if r.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}

	return int(q.IntPart())
}

// IsHighRisk reports whether score requires an alert.
func IsHighRisk(score int) bool {
	return score > HighRiskThreshold
}
