package domain

// AccountType classifies member accounts.
type AccountType string

const (
	AccountSavings      AccountType = "savings"
	AccountShareCapital AccountType = "share_capital"
	AccountSavingsPlan  AccountType = "savings_plan"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountSavings, AccountShareCapital, AccountSavingsPlan:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account. Accounts are never
// hard-deleted; they transition to closed instead.
type AccountStatus string

const (
	AccountActive AccountStatus = "active"
	AccountFrozen AccountStatus = "frozen"
	AccountClosed AccountStatus = "closed"
)

// TransactionType is the kind of money movement a transaction records.
type TransactionType string

const (
	TxDeposit          TransactionType = "deposit"
	TxWithdrawal       TransactionType = "withdrawal"
	TxLoanDisbursement TransactionType = "loan_disbursement"
	TxLoanRepayment    TransactionType = "loan_repayment"
	TxInterest         TransactionType = "interest"
	TxDividend         TransactionType = "dividend"
	TxTransferIn       TransactionType = "transfer_in"
	TxTransferOut      TransactionType = "transfer_out"
)

// IsCredit reports whether the type increases the account balance.
// Everything else debits the account.
func (t TransactionType) IsCredit() bool {
	switch t {
	case TxDeposit, TxLoanDisbursement, TxInterest, TxDividend, TxTransferIn:
		return true
	}
	return false
}

// ReferencePrefix returns the short code used when generating references.
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TxDeposit:
		return "DEP"
	case TxWithdrawal:
		return "WDR"
	case TxLoanDisbursement:
		return "LDB"
	case TxLoanRepayment:
		return "LRP"
	case TxInterest:
		return "INT"
	case TxDividend:
		return "DIV"
	case TxTransferIn:
		return "TRI"
	case TxTransferOut:
		return "TRO"
	}
	return "TXN"
}

// ReversalType maps a transaction type to the type of its compensating
// entry, so a reversal applies the opposite balance effect.
func (t TransactionType) ReversalType() TransactionType {
	switch t {
	case TxDeposit:
		return TxWithdrawal
	case TxTransferIn:
		return TxTransferOut
	case TxTransferOut:
		return TxTransferIn
	case TxLoanRepayment:
		return TxDeposit
	case TxWithdrawal:
		return TxDeposit
	default:
		// credits (disbursement, interest, dividend) reverse as a debit
		return TxWithdrawal
	}
}

// TransactionStatus is the lifecycle state of a transaction record.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxReversed  TransactionStatus = "reversed"
)

// AccrualType selects the bulk posting flavour.
type AccrualType string

const (
	AccrualInterest AccrualType = "interest"
	AccrualDividend AccrualType = "dividend"
)

func (t AccrualType) IsValid() bool {
	return t == AccrualInterest || t == AccrualDividend
}

// TransactionType returns the per-account transaction type a run writes.
func (t AccrualType) TransactionType() TransactionType {
	if t == AccrualDividend {
		return TxDividend
	}
	return TxInterest
}

// PostingLogStatus is the outcome of a bulk accrual run.
type PostingLogStatus string

const (
	PostingRunning   PostingLogStatus = "running"
	PostingCompleted PostingLogStatus = "completed"
	PostingFailed    PostingLogStatus = "failed"
)
