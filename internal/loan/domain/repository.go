package domain

import (
	"context"

	"gorm.io/gorm"
)

// LoanRepository is the port for loan rows.
type LoanRepository interface {
	Create(ctx context.Context, tx *gorm.DB, loan *Loan) error
	FindByID(ctx context.Context, id int64) (*Loan, error)
	FindByUser(ctx context.Context, userID int64) ([]*Loan, error)
	ListByStatus(ctx context.Context, status LoanStatus) ([]*Loan, error)

	// LockByID serializes concurrent repayments against one loan.
	LockByID(ctx context.Context, tx *gorm.DB, id int64) (*Loan, error)
	Update(ctx context.Context, tx *gorm.DB, loan *Loan) error
}

// RepaymentRepository is the append-only port for repayment allocations.
type RepaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, repayment *Repayment) error
	ListByLoan(ctx context.Context, loanID int64) ([]*Repayment, error)
}

// GuarantorRepository is the port for guarantor invitations.
type GuarantorRepository interface {
	Create(ctx context.Context, tx *gorm.DB, guarantor *Guarantor) error
	FindByID(ctx context.Context, id int64) (*Guarantor, error)
	ListByLoan(ctx context.Context, loanID int64) ([]*Guarantor, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status GuarantorStatus) error
}
