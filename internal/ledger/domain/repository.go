package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitOfWork runs fn inside one all-or-nothing storage transaction. The
// *gorm.DB handed to fn must be passed down to every repository call made
// within it so all writes share the same transaction.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AccountRepository is the port for account rows. The adapter implements it
// on PostgreSQL; tests implement it in memory.
type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *Account) error
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByNumber(ctx context.Context, number string) (*Account, error)
	FindByUser(ctx context.Context, userID int64) ([]*Account, error)

	// LockByID loads the account row under a per-account serialization
	// boundary (SELECT ... FOR UPDATE). Must be called inside a unit of work.
	LockByID(ctx context.Context, tx *gorm.DB, id int64) (*Account, error)

	// ApplyDelta adds delta to the balance with a version compare-and-set.
	// Returns ErrVersionConflict when no row matched.
	ApplyDelta(ctx context.Context, tx *gorm.DB, id int64, delta decimal.Decimal, version int64) error

	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status AccountStatus) error

	// FindEligibleForAccrual lists active accounts of the given types,
	// ordered by ID so bulk runs are deterministic and resumable.
	FindEligibleForAccrual(ctx context.Context, types []AccountType) ([]*Account, error)
}

// TransactionRepository is the append-only port for ledger entries. There is
// deliberately no update or delete method; reversals write a new row and flip
// the original's status through MarkReversed only.
type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, t *Transaction) error
	FindByReference(ctx context.Context, ref string) (*Transaction, error)
	ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]*Transaction, error)

	// ListByTransferRef returns every leg sharing a transfer reference,
	// ordered by account ID.
	ListByTransferRef(ctx context.Context, transferRef string) ([]*Transaction, error)

	MarkReversed(ctx context.Context, tx *gorm.DB, ref string) error
}

// PostingLogRepository is the port for bulk accrual run summaries.
type PostingLogRepository interface {
	// Create inserts the running row; a (type, period) collision returns
	// ErrDuplicatePosting.
	Create(ctx context.Context, log *PostingLog) error
	Finalize(ctx context.Context, log *PostingLog) error
	FindByPeriod(ctx context.Context, accrualType AccrualType, period string) (*PostingLog, error)
	List(ctx context.Context, limit int) ([]*PostingLog, error)
}
