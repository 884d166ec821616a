package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPriceFlatRate(t *testing.T) {
	// 10000 at 20% p.a. over 12 months: 2000 interest, 1000/month
	terms := Price(decimal.NewFromInt(10000), decimal.NewFromInt(20), 12)
	assert.True(t, terms.TotalInterest.Equal(decimal.NewFromInt(2000)), terms.TotalInterest.String())
	assert.True(t, terms.TotalRepayable.Equal(decimal.NewFromInt(12000)))
	assert.True(t, terms.MonthlyPayment.Equal(decimal.NewFromInt(1000)))
}

func TestPriceProratesShortDurations(t *testing.T) {
	// 6000 at 10% p.a. over 6 months: interest = 6000*0.10*6/12 = 300
	terms := Price(decimal.NewFromInt(6000), decimal.NewFromInt(10), 6)
	assert.True(t, terms.TotalInterest.Equal(decimal.NewFromInt(300)))
	assert.True(t, terms.TotalRepayable.Equal(decimal.NewFromInt(6300)))
	assert.True(t, terms.MonthlyPayment.Equal(decimal.NewFromInt(1050)))
}

func testLoan() *Loan {
	return &Loan{
		LoanAmount:         decimal.NewFromInt(10000),
		TotalRepayable:     decimal.NewFromInt(12000),
		OutstandingBalance: decimal.NewFromInt(12000),
		DurationMonths:     12,
	}
}

func TestAllocateSplitsProportionally(t *testing.T) {
	loan := testLoan()

	principal, interest := loan.Allocate(decimal.NewFromInt(960))
	assert.True(t, principal.Equal(decimal.NewFromInt(800)), principal.String())
	assert.True(t, interest.Equal(decimal.NewFromInt(160)), interest.String())
	assert.True(t, principal.Add(interest).Equal(decimal.NewFromInt(960)))

	// balance after the payment follows the principal portion only
	remaining := loan.OutstandingBalance.Sub(principal)
	assert.True(t, remaining.Equal(decimal.NewFromInt(11200)))
}

func TestAllocateSettlementGoesToPrincipal(t *testing.T) {
	loan := testLoan()
	loan.OutstandingBalance = decimal.NewFromInt(500)

	principal, interest := loan.Allocate(decimal.NewFromInt(500))
	assert.True(t, principal.Equal(decimal.NewFromInt(500)))
	assert.True(t, interest.IsZero())
}

func TestAllocateAlwaysSumsToAmount(t *testing.T) {
	loan := testLoan()
	for _, raw := range []string{"0.01", "1", "960", "999.99", "11999.9999"} {
		amount := decimal.RequireFromString(raw)
		principal, interest := loan.Allocate(amount)
		assert.True(t, principal.Add(interest).Equal(amount), "amount %s", raw)
	}
}

func TestCanTransition(t *testing.T) {
	legal := [][2]LoanStatus{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusDisbursed},
		{StatusDisbursed, StatusRepaying},
		{StatusDisbursed, StatusDefaulted},
		{StatusRepaying, StatusRepaying},
		{StatusRepaying, StatusCompleted},
		{StatusRepaying, StatusDefaulted},
	}
	for _, pair := range legal {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	illegal := [][2]LoanStatus{
		{StatusPending, StatusDisbursed},
		{StatusApproved, StatusPending},
		{StatusRejected, StatusApproved},
		{StatusCompleted, StatusRepaying},
		{StatusDefaulted, StatusRepaying},
	}
	for _, pair := range illegal {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []LoanStatus{StatusCompleted, StatusDefaulted, StatusRejected} {
		assert.True(t, s.IsTerminal(), string(s))
	}
	for _, s := range []LoanStatus{StatusPending, StatusApproved, StatusDisbursed, StatusRepaying} {
		assert.False(t, s.IsTerminal(), string(s))
	}
}

func TestMaturityDate(t *testing.T) {
	loan := testLoan()
	disbursed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), loan.MaturityDate(disbursed))
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), NextPaymentAfter(disbursed))
}
