package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/loan/domain"
)

// Poster is the slice of the ledger service the loan module uses. Postings
// happen inside the loan's own unit of work so the ledger entry and the loan
// row change commit together.
type Poster interface {
	PostWithin(ctx context.Context, tx *gorm.DB, in ledgersvc.PostInput) (*ledgerdomain.Transaction, error)
}

// ApplyInput is a member's loan application.
type ApplyInput struct {
	UserID         int64
	AccountID      int64
	Amount         decimal.Decimal
	AnnualRate     decimal.Decimal
	DurationMonths int
	Purpose        string
	RepaymentMode  domain.RepaymentMode
	GuarantorIDs   []int64 // member user IDs invited to guarantee
}

// LoanService runs origination, appraisal, disbursement and repayment. It
// holds no ledger state; all money movement goes through the Poster.
type LoanService struct {
	uow        ledgerdomain.UnitOfWork
	loans      domain.LoanRepository
	repayments domain.RepaymentRepository
	guarantors domain.GuarantorRepository
	poster     Poster
	logger     *zap.Logger
	now        func() time.Time
}

func NewLoanService(
	uow ledgerdomain.UnitOfWork,
	loans domain.LoanRepository,
	repayments domain.RepaymentRepository,
	guarantors domain.GuarantorRepository,
	poster Poster,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		uow:        uow,
		loans:      loans,
		repayments: repayments,
		guarantors: guarantors,
		poster:     poster,
		logger:     logger,
		now:        time.Now,
	}
}

// Apply prices the loan flat-rate and files it as pending, along with any
// guarantor invitations.
func (s *LoanService) Apply(ctx context.Context, in ApplyInput) (*domain.Loan, error) {
	if !in.Amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	if in.DurationMonths <= 0 {
		return nil, fmt.Errorf("duration must be at least 1 month, got %d", in.DurationMonths)
	}
	if in.RepaymentMode == "" {
		in.RepaymentMode = domain.RepaymentManual
	}

	terms := domain.Price(in.Amount, in.AnnualRate, in.DurationMonths)
	loan := &domain.Loan{
		UserID:             in.UserID,
		AccountID:          in.AccountID,
		LoanAmount:         in.Amount,
		InterestRate:       in.AnnualRate,
		DurationMonths:     in.DurationMonths,
		MonthlyPayment:     terms.MonthlyPayment,
		TotalRepayable:     terms.TotalRepayable,
		OutstandingBalance: terms.TotalRepayable,
		Purpose:            in.Purpose,
		Status:             domain.StatusPending,
		RepaymentMode:      in.RepaymentMode,
	}

	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		if err := s.loans.Create(ctx, tx, loan); err != nil {
			return err
		}
		for _, userID := range in.GuarantorIDs {
			g := &domain.Guarantor{LoanID: loan.ID, UserID: userID, Status: domain.GuarantorPending}
			if err := s.guarantors.Create(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// RespondAsGuarantor records a guarantor's accept/reject decision.
func (s *LoanService) RespondAsGuarantor(ctx context.Context, guarantorID int64, accept bool) error {
	g, err := s.guarantors.FindByID(ctx, guarantorID)
	if err != nil {
		return err
	}
	if g.Status != domain.GuarantorPending {
		return fmt.Errorf("guarantor already responded with %s", g.Status)
	}
	status := domain.GuarantorRejected
	if accept {
		status = domain.GuarantorAccepted
	}
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		return s.guarantors.UpdateStatus(ctx, tx, guarantorID, status)
	})
}

// Approve moves a pending loan to approved. Every invited guarantor must
// have accepted first.
func (s *LoanService) Approve(ctx context.Context, loanID int64, approvedBy string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		loan, err = s.loans.LockByID(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(loan.Status, domain.StatusApproved) {
			return domain.NewTransitionError(loan.Status, domain.StatusApproved)
		}
		guarantors, err := s.guarantors.ListByLoan(ctx, loanID)
		if err != nil {
			return err
		}
		for _, g := range guarantors {
			if g.Status != domain.GuarantorAccepted {
				return domain.ErrGuarantorPending
			}
		}
		loan.Status = domain.StatusApproved
		loan.ApprovedBy = approvedBy
		return s.loans.Update(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Reject terminates a pending application; the reason is mandatory.
func (s *LoanService) Reject(ctx context.Context, loanID int64, rejectedBy, reason string) (*domain.Loan, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	var loan *domain.Loan
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		loan, err = s.loans.LockByID(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(loan.Status, domain.StatusRejected) {
			return domain.NewTransitionError(loan.Status, domain.StatusRejected)
		}
		loan.Status = domain.StatusRejected
		loan.RejectionReason = reason
		loan.ApprovedBy = rejectedBy
		return s.loans.Update(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// Disburse credits the borrower's account with the principal and schedules
// the first installment, all in one unit of work.
func (s *LoanService) Disburse(ctx context.Context, loanID int64, performedBy string) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		loan, err = s.loans.LockByID(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(loan.Status, domain.StatusDisbursed) {
			return domain.NewTransitionError(loan.Status, domain.StatusDisbursed)
		}

		_, err = s.poster.PostWithin(ctx, tx, ledgersvc.PostInput{
			AccountID:   loan.AccountID,
			Type:        ledgerdomain.TxLoanDisbursement,
			Amount:      loan.LoanAmount,
			PerformedBy: performedBy,
			Description: fmt.Sprintf("disbursement of loan #%d", loan.ID),
		})
		if err != nil {
			return err
		}

		now := s.now()
		next := domain.NextPaymentAfter(now)
		due := loan.MaturityDate(now)
		loan.Status = domain.StatusDisbursed
		loan.DisbursedAt = &now
		loan.NextPaymentDate = &next
		loan.DueDate = &due
		return s.loans.Update(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan disbursed",
		zap.Int64("loan_id", loan.ID),
		zap.String("amount", loan.LoanAmount.String()),
		zap.String("performed_by", performedBy),
	)
	return loan, nil
}

// Repay debits the borrower's account, writes the repayment allocation and
// decrements the outstanding balance; the loan completes exactly when the
// outstanding hits zero. One unit of work end to end.
func (s *LoanService) Repay(ctx context.Context, loanID int64, amount decimal.Decimal, performedBy string) (*domain.Repayment, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}

	var repayment *domain.Repayment
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		loan, err := s.loans.LockByID(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.StatusDisbursed && loan.Status != domain.StatusRepaying {
			return domain.NewTransitionError(loan.Status, domain.StatusRepaying)
		}
		if amount.GreaterThan(loan.OutstandingBalance) {
			return domain.ErrExcessRepayment
		}

		entry, err := s.poster.PostWithin(ctx, tx, ledgersvc.PostInput{
			AccountID:   loan.AccountID,
			Type:        ledgerdomain.TxLoanRepayment,
			Amount:      amount,
			PerformedBy: performedBy,
			Description: fmt.Sprintf("repayment of loan #%d", loan.ID),
		})
		if err != nil {
			return err
		}

		principal, interest := loan.Allocate(amount)
		repayment = &domain.Repayment{
			LoanID:               loan.ID,
			TransactionReference: entry.Reference,
			Amount:               amount,
			Principal:            principal,
			Interest:             interest,
			PerformedBy:          performedBy,
		}
		if err := s.repayments.Create(ctx, tx, repayment); err != nil {
			return err
		}

		loan.OutstandingBalance = loan.OutstandingBalance.Sub(principal)
		next := domain.StatusRepaying
		if loan.OutstandingBalance.IsZero() {
			next = domain.StatusCompleted
		}
		if !domain.CanTransition(loan.Status, next) {
			return domain.NewTransitionError(loan.Status, next)
		}
		loan.Status = next
		if loan.NextPaymentDate != nil && next == domain.StatusRepaying {
			advanced := domain.NextPaymentAfter(*loan.NextPaymentDate)
			loan.NextPaymentDate = &advanced
		}
		return s.loans.Update(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return repayment, nil
}

// MarkDefaulted flags a non-performing loan. Admin action; forward-only.
func (s *LoanService) MarkDefaulted(ctx context.Context, loanID int64) (*domain.Loan, error) {
	var loan *domain.Loan
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		loan, err = s.loans.LockByID(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(loan.Status, domain.StatusDefaulted) {
			return domain.NewTransitionError(loan.Status, domain.StatusDefaulted)
		}
		loan.Status = domain.StatusDefaulted
		return s.loans.Update(ctx, tx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) Get(ctx context.Context, loanID int64) (*domain.Loan, error) {
	return s.loans.FindByID(ctx, loanID)
}

func (s *LoanService) ListByUser(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	return s.loans.FindByUser(ctx, userID)
}

func (s *LoanService) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	return s.loans.ListByStatus(ctx, status)
}

func (s *LoanService) Repayments(ctx context.Context, loanID int64) ([]*domain.Repayment, error) {
	return s.repayments.ListByLoan(ctx, loanID)
}

// DueForAutoRepayment lists disbursed/repaying automated loans whose next
// payment date has passed. Consumed by the jobs runner.
func (s *LoanService) DueForAutoRepayment(ctx context.Context, asOf time.Time) ([]*domain.Loan, error) {
	repaying, err := s.loans.ListByStatus(ctx, domain.StatusRepaying)
	if err != nil {
		return nil, err
	}
	disbursed, err := s.loans.ListByStatus(ctx, domain.StatusDisbursed)
	if err != nil {
		return nil, err
	}
	var due []*domain.Loan
	for _, loan := range append(disbursed, repaying...) {
		if loan.RepaymentMode != domain.RepaymentAutomated {
			continue
		}
		if loan.NextPaymentDate != nil && !loan.NextPaymentDate.After(asOf) {
			due = append(due, loan)
		}
	}
	return due, nil
}

// CollectAutoRepayments sweeps one installment from every automated loan
// that is due. The last sweep is clamped to the outstanding balance so it
// settles the loan instead of bouncing as an excess repayment. Per-loan
// failures are logged and skipped.
func (s *LoanService) CollectAutoRepayments(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.DueForAutoRepayment(ctx, asOf)
	if err != nil {
		return 0, err
	}
	collected := 0
	for _, loan := range due {
		amount := loan.MonthlyPayment
		if amount.GreaterThan(loan.OutstandingBalance) {
			amount = loan.OutstandingBalance
		}
		if _, err := s.Repay(ctx, loan.ID, amount, "system:auto-repay"); err != nil {
			s.logger.Warn("auto repayment failed", zap.Int64("loan_id", loan.ID), zap.Error(err))
			continue
		}
		collected++
	}
	return collected, nil
}
