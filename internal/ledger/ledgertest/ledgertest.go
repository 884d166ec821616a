// Package ledgertest provides in-memory implementations of the ledger
// storage ports for service-level tests. The unit of work snapshots the
// whole store before fn runs and restores it on error, so tests can assert
// real all-or-nothing behavior without a database.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kwachasoft/coopfin/internal/ledger/domain"
)

// Store is the shared backing state. Build one per test and hand out its
// port views via Accounts, Transactions, PostingLogs and UnitOfWork.
type Store struct {
	mu sync.Mutex

	accounts      map[int64]*domain.Account
	nextAccountID int64

	txs      map[string]*domain.Transaction
	txOrder  []string
	nextTxID int64

	logs      map[string]*domain.PostingLog
	nextLogID int64

	// FailApplyDelta, when set, is consulted before every balance delta;
	// a non-nil return aborts the delta with that error.
	FailApplyDelta func(accountID int64) error
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*domain.Account),
		txs:      make(map[string]*domain.Transaction),
		logs:     make(map[string]*domain.PostingLog),
	}
}

// SeedAccount inserts an account directly, bypassing the service layer.
func (s *Store) SeedAccount(a *domain.Account) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccountID++
	cp := *a
	cp.ID = s.nextAccountID
	if cp.Version == 0 {
		cp.Version = 1
	}
	if cp.Status == "" {
		cp.Status = domain.AccountActive
	}
	s.accounts[cp.ID] = &cp
	return &cp
}

// Account returns a copy of the current account row.
func (s *Store) Account(id int64) *domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

// AllTransactions returns every recorded entry in insertion order.
func (s *Store) AllTransactions() []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(s.txOrder))
	for _, ref := range s.txOrder {
		cp := *s.txs[ref]
		out = append(out, &cp)
	}
	return out
}

type snapshot struct {
	accounts      map[int64]*domain.Account
	nextAccountID int64
	txs           map[string]*domain.Transaction
	txOrder       []string
	nextTxID      int64
	logs          map[string]*domain.PostingLog
	nextLogID     int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		accounts:      make(map[int64]*domain.Account, len(s.accounts)),
		nextAccountID: s.nextAccountID,
		txs:           make(map[string]*domain.Transaction, len(s.txs)),
		txOrder:       append([]string(nil), s.txOrder...),
		nextTxID:      s.nextTxID,
		logs:          make(map[string]*domain.PostingLog, len(s.logs)),
		nextLogID:     s.nextLogID,
	}
	for id, a := range s.accounts {
		cp := *a
		snap.accounts[id] = &cp
	}
	for ref, t := range s.txs {
		cp := *t
		snap.txs[ref] = &cp
	}
	for key, l := range s.logs {
		cp := *l
		snap.logs[key] = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.nextAccountID = snap.nextAccountID
	s.txs = snap.txs
	s.txOrder = snap.txOrder
	s.nextTxID = snap.nextTxID
	s.logs = snap.logs
	s.nextLogID = snap.nextLogID
}

// UnitOfWork returns a domain.UnitOfWork whose rollback restores the whole
// store to its pre-fn state.
func (s *Store) UnitOfWork() domain.UnitOfWork {
	return &memUnitOfWork{store: s}
}

type memUnitOfWork struct {
	store *Store
}

func (u *memUnitOfWork) Within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	snap := u.store.snapshot()
	if err := fn(nil); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

// Accounts returns the account port view.
func (s *Store) Accounts() *AccountRepo {
	return &AccountRepo{store: s}
}

type AccountRepo struct {
	store *Store
}

func (r *AccountRepo) Create(ctx context.Context, tx *gorm.DB, account *domain.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.AccountNumber == account.AccountNumber {
			return domain.ErrDuplicateReference
		}
	}
	s.nextAccountID++
	account.ID = s.nextAccountID
	cp := *account
	s.accounts[cp.ID] = &cp
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepo) FindByNumber(ctx context.Context, number string) (*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.AccountNumber == number {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepo) FindByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Account
	for id := int64(1); id <= s.nextAccountID; id++ {
		if a, ok := s.accounts[id]; ok && a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *AccountRepo) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Account, error) {
	return r.FindByID(ctx, id)
}

func (r *AccountRepo) ApplyDelta(ctx context.Context, tx *gorm.DB, id int64, delta decimal.Decimal, version int64) error {
	s := r.store
	if s.FailApplyDelta != nil {
		if err := s.FailApplyDelta(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if a.Version != version {
		return domain.ErrVersionConflict
	}
	a.Balance = a.Balance.Add(delta)
	a.Version++
	return nil
}

func (r *AccountRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status domain.AccountStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (r *AccountRepo) FindEligibleForAccrual(ctx context.Context, types []domain.AccountType) ([]*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[domain.AccountType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var out []*domain.Account
	for id := int64(1); id <= s.nextAccountID; id++ {
		if a, ok := s.accounts[id]; ok && a.Status == domain.AccountActive && wanted[a.Type] {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Transactions returns the ledger entry port view.
func (s *Store) Transactions() *TransactionRepo {
	return &TransactionRepo{store: s}
}

type TransactionRepo struct {
	store *Store
}

func (r *TransactionRepo) Create(ctx context.Context, tx *gorm.DB, t *domain.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.txs[t.Reference]; exists {
		return domain.ErrDuplicateReference
	}
	s.nextTxID++
	t.ID = s.nextTxID
	cp := *t
	s.txs[cp.Reference] = &cp
	s.txOrder = append(s.txOrder, cp.Reference)
	return nil
}

func (r *TransactionRepo) FindByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.txs[ref]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]*domain.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, ref := range s.txOrder {
		t := s.txs[ref]
		if t.AccountID != accountID {
			continue
		}
		if !from.IsZero() && t.PostedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !t.PostedAt.Before(to) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *TransactionRepo) ListByTransferRef(ctx context.Context, transferRef string) ([]*domain.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, ref := range s.txOrder {
		t := s.txs[ref]
		if t.TransferRef != transferRef {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (r *TransactionRepo) MarkReversed(ctx context.Context, tx *gorm.DB, ref string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[ref]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if t.Status != domain.TxCompleted {
		return domain.ErrAlreadyReversed
	}
	t.Status = domain.TxReversed
	return nil
}

// PostingLogs returns the bulk run port view.
func (s *Store) PostingLogs() *PostingLogRepo {
	return &PostingLogRepo{store: s}
}

type PostingLogRepo struct {
	store *Store
}

func logKey(t domain.AccrualType, period string) string {
	return string(t) + "|" + period
}

func (r *PostingLogRepo) Create(ctx context.Context, log *domain.PostingLog) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey(log.AccrualType, log.Period)
	if _, exists := s.logs[key]; exists {
		return domain.ErrDuplicatePosting
	}
	s.nextLogID++
	log.ID = s.nextLogID
	cp := *log
	s.logs[key] = &cp
	return nil
}

func (r *PostingLogRepo) Finalize(ctx context.Context, log *domain.PostingLog) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *log
	s.logs[logKey(log.AccrualType, log.Period)] = &cp
	return nil
}

func (r *PostingLogRepo) FindByPeriod(ctx context.Context, accrualType domain.AccrualType, period string) (*domain.PostingLog, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[logKey(accrualType, period)]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *PostingLogRepo) List(ctx context.Context, limit int) ([]*domain.PostingLog, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PostingLog
	for _, l := range s.logs {
		cp := *l
		out = append(out, &cp)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
