package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwachasoft/coopfin/internal/loan/domain"
)

type PostgresLoanRepo struct {
	db *gorm.DB
}

func NewLoanRepo(db *gorm.DB) *PostgresLoanRepo {
	return &PostgresLoanRepo{db: db}
}

func (r *PostgresLoanRepo) Create(ctx context.Context, tx *gorm.DB, loan *domain.Loan) error {
	return tx.WithContext(ctx).Create(loan).Error
}

func (r *PostgresLoanRepo) FindByID(ctx context.Context, id int64) (*domain.Loan, error) {
	var loan domain.Loan
	err := r.db.WithContext(ctx).Preload("Guarantors").First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *PostgresLoanRepo) FindByUser(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&loans).Error
	return loans, err
}

func (r *PostgresLoanRepo) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&loans).Error
	return loans, err
}

func (r *PostgresLoanRepo) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Loan, error) {
	var loan domain.Loan
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *PostgresLoanRepo) Update(ctx context.Context, tx *gorm.DB, loan *domain.Loan) error {
	return tx.WithContext(ctx).Omit("Guarantors").Save(loan).Error
}

// ---------------------------------------------------------

type PostgresRepaymentRepo struct {
	db *gorm.DB
}

func NewRepaymentRepo(db *gorm.DB) *PostgresRepaymentRepo {
	return &PostgresRepaymentRepo{db: db}
}

func (r *PostgresRepaymentRepo) Create(ctx context.Context, tx *gorm.DB, repayment *domain.Repayment) error {
	return tx.WithContext(ctx).Create(repayment).Error
}

func (r *PostgresRepaymentRepo) ListByLoan(ctx context.Context, loanID int64) ([]*domain.Repayment, error) {
	var repayments []*domain.Repayment
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id").Find(&repayments).Error
	return repayments, err
}

// ---------------------------------------------------------

type PostgresGuarantorRepo struct {
	db *gorm.DB
}

func NewGuarantorRepo(db *gorm.DB) *PostgresGuarantorRepo {
	return &PostgresGuarantorRepo{db: db}
}

func (r *PostgresGuarantorRepo) Create(ctx context.Context, tx *gorm.DB, guarantor *domain.Guarantor) error {
	return tx.WithContext(ctx).Create(guarantor).Error
}

func (r *PostgresGuarantorRepo) FindByID(ctx context.Context, id int64) (*domain.Guarantor, error) {
	var g domain.Guarantor
	err := r.db.WithContext(ctx).First(&g, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGuarantorNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *PostgresGuarantorRepo) ListByLoan(ctx context.Context, loanID int64) ([]*domain.Guarantor, error) {
	var guarantors []*domain.Guarantor
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id").Find(&guarantors).Error
	return guarantors, err
}

func (r *PostgresGuarantorRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.GuarantorStatus) error {
	return tx.WithContext(ctx).Model(&domain.Guarantor{}).
		Where("id = ?", id).
		Update("status", status).Error
}
