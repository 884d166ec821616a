package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Terms is the flat-rate pricing of a loan at application time.
type Terms struct {
	TotalInterest  decimal.Decimal
	TotalRepayable decimal.Decimal
	MonthlyPayment decimal.Decimal
}

// Price computes flat-rate terms: interest = principal * rate% * months/12.
func Price(principal, annualRate decimal.Decimal, months int) Terms {
	duration := decimal.NewFromInt(int64(months))
	totalInterest := principal.Mul(annualRate).Div(hundred).Mul(duration).Div(monthsInYear).Round(4)
	totalRepayable := principal.Add(totalInterest)
	return Terms{
		TotalInterest:  totalInterest,
		TotalRepayable: totalRepayable,
		MonthlyPayment: totalRepayable.Div(duration).Round(4),
	}
}

// Allocate splits one repayment into principal and interest following the
// loan's flat amortization: the interest share of every shilling repaid is
// totalInterest / totalRepayable. A payment covering the whole outstanding
// balance is a settlement and is allocated entirely to principal so the loan
// lands exactly on zero. The portions always sum to amount.
func (l *Loan) Allocate(amount decimal.Decimal) (principal, interest decimal.Decimal) {
	if amount.GreaterThanOrEqual(l.OutstandingBalance) {
		principal = l.OutstandingBalance
		interest = amount.Sub(principal)
		return principal, interest
	}
	totalInterest := l.TotalRepayable.Sub(l.LoanAmount)
	if l.TotalRepayable.IsZero() {
		return amount, decimal.Zero
	}
	interest = amount.Mul(totalInterest).Div(l.TotalRepayable).Round(4)
	principal = amount.Sub(interest)
	return principal, interest
}

// NextPaymentAfter advances the payment schedule by one month.
func NextPaymentAfter(t time.Time) time.Time {
	return t.AddDate(0, 1, 0)
}

// MaturityDate is when the final installment falls due.
func (l *Loan) MaturityDate(disbursedAt time.Time) time.Time {
	return disbursedAt.AddDate(0, l.DurationMonths, 0)
}
