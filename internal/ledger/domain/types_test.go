package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionTypeIsCredit(t *testing.T) {
	credits := []TransactionType{TxDeposit, TxLoanDisbursement, TxInterest, TxDividend, TxTransferIn}
	debits := []TransactionType{TxWithdrawal, TxLoanRepayment, TxTransferOut}

	for _, tt := range credits {
		assert.True(t, tt.IsCredit(), "%s should credit", tt)
	}
	for _, tt := range debits {
		assert.False(t, tt.IsCredit(), "%s should debit", tt)
	}
}

func TestReversalTypeFlipsBalanceEffect(t *testing.T) {
	all := []TransactionType{
		TxDeposit, TxWithdrawal, TxLoanDisbursement, TxLoanRepayment,
		TxInterest, TxDividend, TxTransferIn, TxTransferOut,
	}
	for _, tt := range all {
		assert.NotEqual(t, tt.IsCredit(), tt.ReversalType().IsCredit(),
			"reversal of %s must have the opposite balance effect", tt)
	}
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(250)
	deposit := &Transaction{Type: TxDeposit, Amount: amount}
	withdrawal := &Transaction{Type: TxWithdrawal, Amount: amount}

	assert.True(t, deposit.SignedAmount().Equal(amount))
	assert.True(t, withdrawal.SignedAmount().Equal(amount.Neg()))
}

func TestCanWithdraw(t *testing.T) {
	account := &Account{
		Status:  AccountActive,
		Balance: decimal.NewFromInt(100),
	}

	assert.NoError(t, account.CanWithdraw(decimal.NewFromInt(100)))
	assert.ErrorIs(t, account.CanWithdraw(decimal.NewFromInt(101)), ErrInsufficientFunds)

	account.Status = AccountFrozen
	assert.ErrorIs(t, account.CanWithdraw(decimal.NewFromInt(1)), ErrAccountNotActive)
}

func TestNewReferenceFormat(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	ref := NewReference(TxDeposit, at)
	parts := strings.Split(ref, "-")
	assert.Len(t, parts, 3)
	assert.Equal(t, "DEP", parts[0])
	assert.Equal(t, "20260315", parts[1])
	assert.Len(t, parts[2], 12)

	assert.NotEqual(t, ref, NewReference(TxDeposit, at))
}

func TestNewAccountNumber(t *testing.T) {
	at := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	number := NewAccountNumber(at)
	assert.True(t, strings.HasPrefix(number, "CFN2603"), number)
	assert.Len(t, number, 15)
}
