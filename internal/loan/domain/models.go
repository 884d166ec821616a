package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is one borrower's facility. Money fields are priced once at
// application time; OutstandingBalance starts at TotalRepayable and only the
// repayment path decrements it.
type Loan struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement"`
	UserID             int64           `gorm:"not null;index"`
	AccountID          int64           `gorm:"not null"` // savings account funds move through
	LoanAmount         decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(10,4);not null"` // % per annum, flat
	DurationMonths     int             `gorm:"not null"`
	MonthlyPayment     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	TotalRepayable     decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Purpose            string          `gorm:"type:text"`
	Status             LoanStatus      `gorm:"type:varchar(16);not null;default:'pending'"`
	RepaymentMode      RepaymentMode   `gorm:"type:varchar(16);not null;default:'manual'"`
	ApprovedBy         string          `gorm:"type:varchar(64)"`
	RejectionReason    string          `gorm:"type:text"`
	DisbursedAt        *time.Time
	NextPaymentDate    *time.Time
	DueDate            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Guarantors []Guarantor `gorm:"foreignKey:LoanID"`
}

func (Loan) TableName() string {
	return "loans.loans"
}

// Repayment links exactly one ledger transaction to a loan and splits the
// amount into its principal and interest portions. Principal + Interest
// always equals Amount.
type Repayment struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement"`
	LoanID               int64           `gorm:"not null;index"`
	TransactionReference string          `gorm:"uniqueIndex;type:varchar(64);not null"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Principal            decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Interest             decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	PerformedBy          string          `gorm:"type:varchar(64);not null"`
	CreatedAt            time.Time
}

func (Repayment) TableName() string {
	return "loans.repayments"
}

// Guarantor is a member standing behind a loan application.
type Guarantor struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	LoanID    int64           `gorm:"not null;index;uniqueIndex:ux_loan_guarantor"`
	UserID    int64           `gorm:"not null;uniqueIndex:ux_loan_guarantor"`
	Status    GuarantorStatus `gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Guarantor) TableName() string {
	return "loans.guarantors"
}
