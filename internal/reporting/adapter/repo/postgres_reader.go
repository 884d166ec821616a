package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	loandomain "github.com/kwachasoft/coopfin/internal/loan/domain"
)

// PostgresReader runs the read-only report aggregates. It deliberately has
// no write methods.
type PostgresReader struct {
	db *gorm.DB
}

func NewReader(db *gorm.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

type typeSum struct {
	Type  string
	Total decimal.Decimal
}

func (r *PostgresReader) SumBalancesByType(ctx context.Context) (map[ledgerdomain.AccountType]decimal.Decimal, error) {
	var rows []typeSum
	err := r.db.WithContext(ctx).Model(&ledgerdomain.Account{}).
		Select("type, COALESCE(SUM(balance), 0) AS total").
		Where("status <> ?", ledgerdomain.AccountClosed).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[ledgerdomain.AccountType]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[ledgerdomain.AccountType(row.Type)] = row.Total
	}
	return sums, nil
}

func (r *PostgresReader) SumOutstandingLoans(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&loandomain.Loan{}).
		Select("COALESCE(SUM(outstanding_balance), 0)").
		Where("status IN ?", []loandomain.LoanStatus{loandomain.StatusDisbursed, loandomain.StatusRepaying, loandomain.StatusDefaulted}).
		Scan(&total).Error
	return total, err
}

func (r *PostgresReader) SumTransactionAmounts(ctx context.Context, types []ledgerdomain.TransactionType, from, to time.Time) (map[ledgerdomain.TransactionType]decimal.Decimal, error) {
	var rows []typeSum
	q := r.db.WithContext(ctx).Model(&ledgerdomain.Transaction{}).
		Select("tx_type AS type, COALESCE(SUM(amount), 0) AS total").
		Where("tx_type IN ? AND status = ?", types, ledgerdomain.TxCompleted)
	if !from.IsZero() {
		q = q.Where("posted_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("posted_at < ?", to)
	}
	if err := q.Group("tx_type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[ledgerdomain.TransactionType]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[ledgerdomain.TransactionType(row.Type)] = row.Total
	}
	return sums, nil
}

func (r *PostgresReader) SumRepaymentInterest(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := r.db.WithContext(ctx).Model(&loandomain.Repayment{}).
		Select("COALESCE(SUM(interest), 0)")
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	err := q.Scan(&total).Error
	return total, err
}
