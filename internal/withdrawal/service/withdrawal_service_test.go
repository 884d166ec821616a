package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/ledger/ledgertest"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/withdrawal/domain"
)

type memRequests struct {
	rows   map[int64]*domain.Request
	nextID int64
}

func newMemRequests() *memRequests {
	return &memRequests{rows: map[int64]*domain.Request{}}
}

func (m *memRequests) Create(ctx context.Context, tx *gorm.DB, request *domain.Request) error {
	m.nextID++
	request.ID = m.nextID
	cp := *request
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memRequests) FindByID(ctx context.Context, id int64) (*domain.Request, error) {
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrRequestNotFound
}

func (m *memRequests) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.Request, error) {
	var out []*domain.Request
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.rows[id]; ok && r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequests) ListByUser(ctx context.Context, userID int64) ([]*domain.Request, error) {
	var out []*domain.Request
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.rows[id]; ok && r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRequests) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Request, error) {
	return m.FindByID(ctx, id)
}

func (m *memRequests) Update(ctx context.Context, tx *gorm.DB, request *domain.Request) error {
	if _, ok := m.rows[request.ID]; !ok {
		return domain.ErrRequestNotFound
	}
	cp := *request
	m.rows[cp.ID] = &cp
	return nil
}

type withdrawalFixture struct {
	svc     *WithdrawalService
	store   *ledgertest.Store
	account *ledgerdomain.Account
}

func newWithdrawalFixture(t *testing.T) *withdrawalFixture {
	t.Helper()
	store := ledgertest.NewStore()
	ledger := ledgersvc.NewLedgerService(store.UnitOfWork(), store.Accounts(), store.Transactions(), zap.NewNop())
	svc := NewWithdrawalService(store.UnitOfWork(), newMemRequests(), store.Accounts(), ledger, zap.NewNop())

	account := store.SeedAccount(&ledgerdomain.Account{
		UserID:  3,
		Type:    ledgerdomain.AccountSavings,
		Balance: decimal.NewFromInt(1000),
	})
	return &withdrawalFixture{svc: svc, store: store, account: account}
}

func TestSubmitValidates(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidAmount)

	_, err = f.svc.Submit(ctx, 99, f.account.ID, decimal.NewFromInt(10), "")
	assert.Error(t, err)

	_, err = f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(1001), "")
	assert.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(400), "school fees")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, request.Status)

	// submission holds no funds
	assert.True(t, f.store.Account(f.account.ID).Balance.Equal(decimal.NewFromInt(1000)))
}

func TestApproveDebitsAccount(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(400), "school fees")
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, request.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.ResolvedBy)
	assert.NotEmpty(t, approved.TransactionReference)
	require.NotNil(t, approved.ResolvedAt)

	assert.True(t, f.store.Account(f.account.ID).Balance.Equal(decimal.NewFromInt(600)))
	entries := f.store.AllTransactions()
	require.Len(t, entries, 1)
	assert.Equal(t, ledgerdomain.TxWithdrawal, entries[0].Type)
	assert.Equal(t, entries[0].Reference, approved.TransactionReference)
}

func TestApproveLeavesRequestPendingWhenDebitFails(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(900), "")
	require.NoError(t, err)

	// balance drops between submission and approval
	version := f.store.Account(f.account.ID).Version
	require.NoError(t, f.store.Accounts().ApplyDelta(ctx, nil, f.account.ID, decimal.NewFromInt(-500), version))

	_, err = f.svc.Approve(ctx, request.ID, "admin-1")
	assert.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	after, err := f.svc.Get(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, after.Status)
	assert.True(t, f.store.Account(f.account.ID).Balance.Equal(decimal.NewFromInt(500)))
}

func TestRejectRequiresReason(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, request.ID, "admin-1", "")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	rejected, err := f.svc.Reject(ctx, request.ID, "admin-1", "exceeds weekly limit")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, rejected.Status)
	assert.Equal(t, "exceeds weekly limit", rejected.ResolutionNote)
	assert.True(t, f.store.Account(f.account.ID).Balance.Equal(decimal.NewFromInt(1000)))
}

func TestCancelOnlyByRequester(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(100), "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, request.ID, 99)
	assert.ErrorIs(t, err, domain.ErrNotRequester)

	cancelled, err := f.svc.Cancel(ctx, request.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, cancelled.Status)
}

func TestResolutionIsTerminal(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	request, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, request.ID, "admin-1")
	require.NoError(t, err)

	var resolved *domain.ResolvedError

	_, err = f.svc.Approve(ctx, request.ID, "admin-2")
	assert.ErrorAs(t, err, &resolved)

	_, err = f.svc.Reject(ctx, request.ID, "admin-2", "too late")
	assert.ErrorAs(t, err, &resolved)

	_, err = f.svc.Cancel(ctx, request.ID, 3)
	assert.ErrorAs(t, err, &resolved)

	// only the first approval debited
	assert.True(t, f.store.Account(f.account.ID).Balance.Equal(decimal.NewFromInt(900)))
}

func TestQueueListsPendingOnly(t *testing.T) {
	f := newWithdrawalFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, 3, f.account.ID, decimal.NewFromInt(200), "")
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, first.ID, "admin-1", "duplicate")
	require.NoError(t, err)

	queue, err := f.svc.Queue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, second.ID, queue[0].ID)

	mine, err := f.svc.ListByUser(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
