package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwachasoft/coopfin/internal/ledger/domain"
)

// GormUnitOfWork adapts gorm's transaction callback to the domain port.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return u.db.WithContext(ctx).Transaction(fn)
}

// ---------------------------------------------------------

type PostgresAccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (r *PostgresAccountRepo) Create(ctx context.Context, tx *gorm.DB, account *domain.Account) error {
	if err := tx.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepo) FindByNumber(ctx context.Context, number string) (*domain.Account, error) {
	var account domain.Account
	if err := r.db.WithContext(ctx).Where("account_number = ?", number).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresAccountRepo) FindByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&accounts).Error
	return accounts, err
}

// LockByID takes the row lock that serializes concurrent postings against
// the same account.
func (r *PostgresAccountRepo) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Account, error) {
	var account domain.Account
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// ApplyDelta moves the balance at the database (balance = balance + delta)
// guarded by the version compare-and-set. Zero rows affected means another
// writer got there first.
func (r *PostgresAccountRepo) ApplyDelta(ctx context.Context, tx *gorm.DB, id int64, delta decimal.Decimal, version int64) error {
	result := tx.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", delta),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *PostgresAccountRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.AccountStatus) error {
	return tx.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *PostgresAccountRepo) FindEligibleForAccrual(ctx context.Context, types []domain.AccountType) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.WithContext(ctx).
		Where("status = ? AND type IN ?", domain.AccountActive, types).
		Order("id").
		Find(&accounts).Error
	return accounts, err
}

// ---------------------------------------------------------

type PostgresTransactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) *PostgresTransactionRepo {
	return &PostgresTransactionRepo{db: db}
}

func (r *PostgresTransactionRepo) Create(ctx context.Context, tx *gorm.DB, t *domain.Transaction) error {
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateReference
		}
		return err
	}
	return nil
}

func (r *PostgresTransactionRepo) FindByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTransactionRepo) ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]*domain.Transaction, error) {
	q := r.db.WithContext(ctx).Where("account_id = ?", accountID)
	if !from.IsZero() {
		q = q.Where("posted_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("posted_at < ?", to)
	}
	var txs []*domain.Transaction
	err := q.Order("id").Find(&txs).Error
	return txs, err
}

func (r *PostgresTransactionRepo) ListByTransferRef(ctx context.Context, transferRef string) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	err := r.db.WithContext(ctx).
		Where("transfer_ref = ?", transferRef).
		Order("account_id").
		Find(&txs).Error
	return txs, err
}

func (r *PostgresTransactionRepo) MarkReversed(ctx context.Context, tx *gorm.DB, ref string) error {
	result := tx.WithContext(ctx).Model(&domain.Transaction{}).
		Where("reference = ? AND status = ?", ref, domain.TxCompleted).
		Update("status", domain.TxReversed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyReversed
	}
	return nil
}

// ---------------------------------------------------------

type PostgresPostingLogRepo struct {
	db *gorm.DB
}

func NewPostingLogRepo(db *gorm.DB) *PostgresPostingLogRepo {
	return &PostgresPostingLogRepo{db: db}
}

func (r *PostgresPostingLogRepo) Create(ctx context.Context, log *domain.PostingLog) error {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicatePosting
		}
		return err
	}
	return nil
}

func (r *PostgresPostingLogRepo) Finalize(ctx context.Context, log *domain.PostingLog) error {
	return r.db.WithContext(ctx).Model(&domain.PostingLog{}).
		Where("id = ?", log.ID).
		Updates(map[string]interface{}{
			"total_amount":      log.TotalAmount,
			"beneficiary_count": log.BeneficiaryCount,
			"failure_count":     log.FailureCount,
			"status":            log.Status,
		}).Error
}

func (r *PostgresPostingLogRepo) FindByPeriod(ctx context.Context, accrualType domain.AccrualType, period string) (*domain.PostingLog, error) {
	var log domain.PostingLog
	err := r.db.WithContext(ctx).
		Where("accrual_type = ? AND period = ?", accrualType, period).
		First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *PostgresPostingLogRepo) List(ctx context.Context, limit int) ([]*domain.PostingLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []*domain.PostingLog
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
