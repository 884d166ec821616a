package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds one member's balance for a single account type.
// Balance is mutated only through the ledger service primitives; the Version
// column backs the compare-and-set guard on every balance update.
type Account struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	UserID        int64           `gorm:"not null;index"`
	AccountNumber string          `gorm:"uniqueIndex;type:varchar(32);not null"`
	Type          AccountType     `gorm:"type:varchar(16);not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Version       int64           `gorm:"not null;default:1"`
	Status        AccountStatus   `gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Account) TableName() string {
	return "ledger.accounts"
}

// CanWithdraw reports whether a debit of amount is permitted right now.
func (a *Account) CanWithdraw(amount decimal.Decimal) error {
	if a.Status != AccountActive {
		return ErrAccountNotActive
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Transaction is one immutable ledger entry. BalanceAfter snapshots the
// account balance the instant the mutation committed; it is taken from the
// ledger primitive's return value, never recomputed.
type Transaction struct {
	ID           int64             `gorm:"primaryKey;autoIncrement"`
	AccountID    int64             `gorm:"not null;index"`
	Type         TransactionType   `gorm:"type:varchar(32);not null;column:tx_type"`
	Amount       decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	BalanceAfter decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	Reference    string            `gorm:"uniqueIndex;type:varchar(64);not null"`
	TransferRef  string            `gorm:"type:varchar(64);index"`
	ReversalOf   string            `gorm:"type:varchar(64)"`
	PerformedBy  string            `gorm:"type:varchar(64);not null"`
	Description  string            `gorm:"type:text"`
	Status       TransactionStatus `gorm:"type:varchar(16);not null;default:'completed'"`
	PostedAt     time.Time         `gorm:"not null"`
	CreatedAt    time.Time
}

func (Transaction) TableName() string {
	return "ledger.transactions"
}

// SignedAmount is the balance delta this entry represents.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// PostingLog summarizes one bulk interest or dividend run. The unique index
// on (accrual_type, period) is what makes a period idempotent.
type PostingLog struct {
	ID               int64            `gorm:"primaryKey;autoIncrement"`
	AccrualType      AccrualType      `gorm:"type:varchar(16);not null;uniqueIndex:ux_posting_period"`
	Period           string           `gorm:"type:varchar(32);not null;uniqueIndex:ux_posting_period"`
	Rate             decimal.Decimal  `gorm:"type:decimal(10,4);not null"`
	TotalAmount      decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0"`
	BeneficiaryCount int              `gorm:"not null;default:0"`
	FailureCount     int              `gorm:"not null;default:0"`
	Status           PostingLogStatus `gorm:"type:varchar(16);not null;default:'running'"`
	PerformedBy      string           `gorm:"type:varchar(64);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (PostingLog) TableName() string {
	return "ledger.posting_logs"
}
