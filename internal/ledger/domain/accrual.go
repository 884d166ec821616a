package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AccrualPeriod describes the window a bulk run covers. For interest the
// amount is prorated by how much of the window has elapsed at Now; dividends
// are posted flat on the full rate.
type AccrualPeriod struct {
	Start time.Time
	End   time.Time
	Now   time.Time
}

// ElapsedFraction is the prorated share of the period, clamped to [0, 1].
func (p AccrualPeriod) ElapsedFraction() decimal.Decimal {
	total := p.End.Sub(p.Start)
	if total <= 0 {
		return decimal.NewFromInt(1)
	}
	elapsed := p.Now.Sub(p.Start)
	if elapsed <= 0 {
		return decimal.Zero
	}
	if elapsed >= total {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(elapsed.Seconds()).Div(decimal.NewFromFloat(total.Seconds()))
}

// AccrualAmount computes what a single account earns in a run. This is the
// one shared computation behind both the dry run and the real run, so their
// figures cannot diverge.
func AccrualAmount(accrualType AccrualType, balance, rate decimal.Decimal, period AccrualPeriod) decimal.Decimal {
	amount := balance.Mul(rate).Div(hundred)
	if accrualType == AccrualInterest {
		amount = amount.Mul(period.ElapsedFraction())
	}
	return amount.Round(4)
}

// EligibleAccountTypes returns which account types a run pays out to.
func (t AccrualType) EligibleAccountTypes() []AccountType {
	if t == AccrualDividend {
		return []AccountType{AccountShareCapital}
	}
	return []AccountType{AccountSavings, AccountSavingsPlan}
}
