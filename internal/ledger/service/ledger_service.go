package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kwachasoft/coopfin/internal/ledger/domain"
)

// maxPostingAttempts bounds retries on version conflicts and reference
// collisions before the operation is surfaced as failed.
const maxPostingAttempts = 3

// PostInput describes one single-account ledger posting.
type PostInput struct {
	AccountID   int64
	Type        domain.TransactionType
	Amount      decimal.Decimal
	PerformedBy string
	Description string
	TransferRef string
	ReversalOf  string
}

// TransferInput describes an atomic two-leg transfer.
type TransferInput struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
	PerformedBy          string
	Description          string
}

// LedgerService owns every balance mutation. credit and debit inside
// postWithin are the only code paths that change Account.Balance.
type LedgerService struct {
	uow      domain.UnitOfWork
	accounts domain.AccountRepository
	txs      domain.TransactionRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewLedgerService(uow domain.UnitOfWork, accounts domain.AccountRepository, txs domain.TransactionRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		uow:      uow,
		accounts: accounts,
		txs:      txs,
		logger:   logger,
		now:      time.Now,
	}
}

// OpenAccount creates a new account for a user with a generated number.
func (s *LedgerService) OpenAccount(ctx context.Context, userID int64, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("invalid account type %q", accountType)
	}

	var account *domain.Account
	err := s.retryable(func() error {
		return s.uow.Within(ctx, func(tx *gorm.DB) error {
			var err error
			account, err = s.OpenAccountWithin(ctx, tx, userID, accountType)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// OpenAccountWithin creates the account inside the caller's unit of work,
// so onboarding flows can open accounts atomically with their own records.
func (s *LedgerService) OpenAccountWithin(ctx context.Context, tx *gorm.DB, userID int64, accountType domain.AccountType) (*domain.Account, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("invalid account type %q", accountType)
	}
	account := &domain.Account{
		UserID:        userID,
		AccountNumber: domain.NewAccountNumber(s.now()),
		Type:          accountType,
		Balance:       decimal.Zero,
		Version:       1,
		Status:        domain.AccountActive,
	}
	if err := s.accounts.Create(ctx, tx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.accounts.FindByID(ctx, id)
}

func (s *LedgerService) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return s.accounts.FindByNumber(ctx, number)
}

func (s *LedgerService) ListUserAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	return s.accounts.FindByUser(ctx, userID)
}

// SetAccountStatus freezes, reactivates or closes an account. Closing
// requires a zero balance so no funds are stranded.
func (s *LedgerService) SetAccountStatus(ctx context.Context, id int64, status domain.AccountStatus) error {
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		account, err := s.accounts.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == domain.AccountClosed && !account.Balance.IsZero() {
			return fmt.Errorf("cannot close account %s with balance %s", account.AccountNumber, account.Balance)
		}
		return s.accounts.UpdateStatus(ctx, tx, id, status)
	})
}

// Deposit credits an account and records the entry as one atomic unit.
func (s *LedgerService) Deposit(ctx context.Context, in PostInput) (*domain.Transaction, error) {
	in.Type = domain.TxDeposit
	return s.post(ctx, in)
}

// Withdraw debits an account after the canWithdraw check.
func (s *LedgerService) Withdraw(ctx context.Context, in PostInput) (*domain.Transaction, error) {
	in.Type = domain.TxWithdrawal
	return s.post(ctx, in)
}

// Post runs a single-account posting of any type in its own unit of work.
func (s *LedgerService) Post(ctx context.Context, in PostInput) (*domain.Transaction, error) {
	return s.post(ctx, in)
}

func (s *LedgerService) post(ctx context.Context, in PostInput) (*domain.Transaction, error) {
	var recorded *domain.Transaction
	err := s.retryable(func() error {
		return s.uow.Within(ctx, func(tx *gorm.DB) error {
			var err error
			recorded, err = s.PostWithin(ctx, tx, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// PostWithin executes one ledger mutation plus its transaction record inside
// the caller's unit of work. Composite operations (loan disbursement and
// repayment, withdrawal approval) call this so their secondary records commit
// or roll back together with the ledger entry.
func (s *LedgerService) PostWithin(ctx context.Context, tx *gorm.DB, in PostInput) (*domain.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	account, err := s.accounts.LockByID(ctx, tx, in.AccountID)
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	if in.Type.IsCredit() {
		newBalance, err = s.credit(ctx, tx, account, in.Amount)
	} else {
		newBalance, err = s.debit(ctx, tx, account, in.Amount)
	}
	if err != nil {
		return nil, err
	}

	return s.record(ctx, tx, account, in, newBalance)
}

// credit is one of the two primitives allowed to change a balance. The row
// is already locked; the version CAS is kept as a second guard.
func (s *LedgerService) credit(ctx context.Context, tx *gorm.DB, account *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if account.Status != domain.AccountActive {
		return decimal.Zero, domain.ErrAccountNotActive
	}
	if err := s.accounts.ApplyDelta(ctx, tx, account.ID, amount, account.Version); err != nil {
		return decimal.Zero, err
	}
	return account.Balance.Add(amount), nil
}

// debit rejects anything that would take the balance below zero.
func (s *LedgerService) debit(ctx context.Context, tx *gorm.DB, account *domain.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := account.CanWithdraw(amount); err != nil {
		return decimal.Zero, err
	}
	if err := s.accounts.ApplyDelta(ctx, tx, account.ID, amount.Neg(), account.Version); err != nil {
		return decimal.Zero, err
	}
	return account.Balance.Sub(amount), nil
}

// record appends the immutable transaction row, snapshotting the balance
// returned by the primitive. The reference is regenerated on collision and
// the error surfaces after maxPostingAttempts.
func (s *LedgerService) record(ctx context.Context, tx *gorm.DB, account *domain.Account, in PostInput, balanceAfter decimal.Decimal) (*domain.Transaction, error) {
	now := s.now()
	entry := &domain.Transaction{
		AccountID:    account.ID,
		Type:         in.Type,
		Amount:       in.Amount,
		BalanceAfter: balanceAfter,
		Reference:    domain.NewReference(in.Type, now),
		TransferRef:  in.TransferRef,
		ReversalOf:   in.ReversalOf,
		PerformedBy:  in.PerformedBy,
		Description:  in.Description,
		Status:       domain.TxCompleted,
		PostedAt:     now,
	}
	if err := s.txs.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Transfer moves funds between two accounts as one atomic unit: both legs
// and both records commit together or not at all. Rows are locked in ID
// order to avoid deadlocks between crossing transfers.
func (s *LedgerService) Transfer(ctx context.Context, in TransferInput) (out *domain.Transaction, inTx *domain.Transaction, err error) {
	if in.SourceAccountID == in.DestinationAccountID {
		return nil, nil, domain.ErrSameAccountTransfer
	}
	if !in.Amount.IsPositive() {
		return nil, nil, domain.ErrInvalidAmount
	}

	err = s.retryable(func() error {
		return s.uow.Within(ctx, func(tx *gorm.DB) error {
			out, inTx, err = s.TransferWithin(ctx, tx, in)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return out, inTx, nil
}

// TransferWithin executes both transfer legs inside the caller's unit of
// work. Rows are locked in ID order to avoid deadlocks between crossing
// transfers.
func (s *LedgerService) TransferWithin(ctx context.Context, tx *gorm.DB, in TransferInput) (out *domain.Transaction, inTx *domain.Transaction, err error) {
	if in.SourceAccountID == in.DestinationAccountID {
		return nil, nil, domain.ErrSameAccountTransfer
	}
	if !in.Amount.IsPositive() {
		return nil, nil, domain.ErrInvalidAmount
	}

	first, second := in.SourceAccountID, in.DestinationAccountID
	if second < first {
		first, second = second, first
	}
	if _, err := s.accounts.LockByID(ctx, tx, first); err != nil {
		return nil, nil, err
	}
	if _, err := s.accounts.LockByID(ctx, tx, second); err != nil {
		return nil, nil, err
	}

	source, err := s.accounts.LockByID(ctx, tx, in.SourceAccountID)
	if err != nil {
		return nil, nil, err
	}
	dest, err := s.accounts.LockByID(ctx, tx, in.DestinationAccountID)
	if err != nil {
		return nil, nil, err
	}
	if dest.Status != domain.AccountActive {
		return nil, nil, domain.ErrAccountNotActive
	}

	transferRef := domain.NewTransferRef(s.now())

	sourceBalance, err := s.debit(ctx, tx, source, in.Amount)
	if err != nil {
		return nil, nil, err
	}
	out, err = s.record(ctx, tx, source, PostInput{
		Type:        domain.TxTransferOut,
		Amount:      in.Amount,
		PerformedBy: in.PerformedBy,
		Description: in.Description,
		TransferRef: transferRef,
	}, sourceBalance)
	if err != nil {
		return nil, nil, err
	}

	destBalance, err := s.credit(ctx, tx, dest, in.Amount)
	if err != nil {
		return nil, nil, err
	}
	inTx, err = s.record(ctx, tx, dest, PostInput{
		Type:        domain.TxTransferIn,
		Amount:      in.Amount,
		PerformedBy: in.PerformedBy,
		Description: in.Description,
		TransferRef: transferRef,
	}, destBalance)
	if err != nil {
		return nil, nil, err
	}
	return out, inTx, nil
}

// CloseAccountWithin closes an account in the caller's unit of work. The
// balance must already be zero.
func (s *LedgerService) CloseAccountWithin(ctx context.Context, tx *gorm.DB, id int64) error {
	account, err := s.accounts.LockByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if !account.Balance.IsZero() {
		return fmt.Errorf("cannot close account %s with balance %s", account.AccountNumber, account.Balance)
	}
	return s.accounts.UpdateStatus(ctx, tx, id, domain.AccountClosed)
}

// Reverse undoes a completed transaction by appending a compensating entry
// linked to the original and flipping the original's status to reversed.
// A transfer leg pulls its sibling in: both legs are reversed together so
// the pair never ends up asymmetric. Past records are never edited in place.
func (s *LedgerService) Reverse(ctx context.Context, reference, performedBy, reason string) (*domain.Transaction, error) {
	original, err := s.txs.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	legs := []*domain.Transaction{original}
	if original.TransferRef != "" {
		legs, err = s.txs.ListByTransferRef(ctx, original.TransferRef)
		if err != nil {
			return nil, err
		}
	}
	for _, leg := range legs {
		if leg.Status == domain.TxReversed {
			return nil, domain.ErrAlreadyReversed
		}
		if leg.Status != domain.TxCompleted {
			return nil, fmt.Errorf("cannot reverse transaction in status %s", leg.Status)
		}
	}

	var reversalRef string
	if len(legs) > 1 {
		reversalRef = domain.NewTransferRef(s.now())
	}

	var compensating *domain.Transaction
	err = s.retryable(func() error {
		return s.uow.Within(ctx, func(tx *gorm.DB) error {
			for _, leg := range legs {
				entry, err := s.PostWithin(ctx, tx, PostInput{
					AccountID:   leg.AccountID,
					Type:        leg.Type.ReversalType(),
					Amount:      leg.Amount,
					PerformedBy: performedBy,
					Description: fmt.Sprintf("reversal of %s: %s", leg.Reference, reason),
					TransferRef: reversalRef,
					ReversalOf:  leg.Reference,
				})
				if err != nil {
					return err
				}
				if leg.Reference == reference {
					compensating = entry
				}
				if err := s.txs.MarkReversed(ctx, tx, leg.Reference); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transaction reversed",
		zap.String("original", original.Reference),
		zap.String("compensating", compensating.Reference),
		zap.Int("legs", len(legs)),
		zap.String("performed_by", performedBy),
	)
	return compensating, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, reference string) (*domain.Transaction, error) {
	return s.txs.FindByReference(ctx, reference)
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]*domain.Transaction, error) {
	return s.txs.ListByAccount(ctx, accountID, from, to)
}

// retryable reruns fn on version conflicts and reference collisions; both
// mean another writer won the race, and a clean rerun sees fresh state.
func (s *LedgerService) retryable(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxPostingAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) && !errors.Is(err, domain.ErrDuplicateReference) {
			return err
		}
		s.logger.Warn("posting conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}
