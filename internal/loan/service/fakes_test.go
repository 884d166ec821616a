package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/kwachasoft/coopfin/internal/loan/domain"
)

// In-memory loan storage for service tests. The ledger side comes from
// ledgertest; these fakes only hold the loan module's own rows.

type memLoans struct {
	rows   map[int64]*domain.Loan
	nextID int64
}

func newMemLoans() *memLoans {
	return &memLoans{rows: map[int64]*domain.Loan{}}
}

func (m *memLoans) Create(ctx context.Context, tx *gorm.DB, loan *domain.Loan) error {
	m.nextID++
	loan.ID = m.nextID
	cp := *loan
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memLoans) FindByID(ctx context.Context, id int64) (*domain.Loan, error) {
	if l, ok := m.rows[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *memLoans) FindByUser(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	var out []*domain.Loan
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.rows[id]; ok && l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLoans) ListByStatus(ctx context.Context, status domain.LoanStatus) ([]*domain.Loan, error) {
	var out []*domain.Loan
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.rows[id]; ok && l.Status == status {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLoans) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *memLoans) Update(ctx context.Context, tx *gorm.DB, loan *domain.Loan) error {
	if _, ok := m.rows[loan.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	cp := *loan
	m.rows[cp.ID] = &cp
	return nil
}

type memRepayments struct {
	rows []*domain.Repayment
}

func (m *memRepayments) Create(ctx context.Context, tx *gorm.DB, repayment *domain.Repayment) error {
	repayment.ID = int64(len(m.rows) + 1)
	cp := *repayment
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRepayments) ListByLoan(ctx context.Context, loanID int64) ([]*domain.Repayment, error) {
	var out []*domain.Repayment
	for _, r := range m.rows {
		if r.LoanID == loanID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memGuarantors struct {
	rows   map[int64]*domain.Guarantor
	nextID int64
}

func newMemGuarantors() *memGuarantors {
	return &memGuarantors{rows: map[int64]*domain.Guarantor{}}
}

func (m *memGuarantors) Create(ctx context.Context, tx *gorm.DB, guarantor *domain.Guarantor) error {
	m.nextID++
	guarantor.ID = m.nextID
	cp := *guarantor
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memGuarantors) FindByID(ctx context.Context, id int64) (*domain.Guarantor, error) {
	if g, ok := m.rows[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, domain.ErrGuarantorNotFound
}

func (m *memGuarantors) ListByLoan(ctx context.Context, loanID int64) ([]*domain.Guarantor, error) {
	var out []*domain.Guarantor
	for id := int64(1); id <= m.nextID; id++ {
		if g, ok := m.rows[id]; ok && g.LoanID == loanID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memGuarantors) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.GuarantorStatus) error {
	g, ok := m.rows[id]
	if !ok {
		return domain.ErrGuarantorNotFound
	}
	g.Status = status
	return nil
}
