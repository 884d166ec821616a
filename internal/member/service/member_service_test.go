package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/ledger/ledgertest"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/member/domain"
)

type memMembers struct {
	rows   map[int64]*domain.Member
	nextID int64
}

func newMemMembers() *memMembers {
	return &memMembers{rows: map[int64]*domain.Member{}}
}

func (m *memMembers) Create(ctx context.Context, tx *gorm.DB, member *domain.Member) error {
	for _, existing := range m.rows {
		if existing.Email == member.Email {
			return domain.ErrEmailTaken
		}
	}
	m.nextID++
	member.ID = m.nextID
	cp := *member
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memMembers) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	if member, ok := m.rows[id]; ok {
		cp := *member
		return &cp, nil
	}
	return nil, domain.ErrMemberNotFound
}

func (m *memMembers) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	for _, member := range m.rows {
		if member.Email == email {
			cp := *member
			return &cp, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (m *memMembers) ListByStatus(ctx context.Context, status domain.MemberStatus) ([]*domain.Member, error) {
	var out []*domain.Member
	for id := int64(1); id <= m.nextID; id++ {
		if member, ok := m.rows[id]; ok && member.Status == status {
			cp := *member
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMembers) Update(ctx context.Context, tx *gorm.DB, member *domain.Member) error {
	if _, ok := m.rows[member.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	cp := *member
	m.rows[cp.ID] = &cp
	return nil
}

func newMemberFixture(t *testing.T) (*MemberService, *ledgertest.Store) {
	t.Helper()
	store := ledgertest.NewStore()
	ledger := ledgersvc.NewLedgerService(store.UnitOfWork(), store.Accounts(), store.Transactions(), zap.NewNop())
	svc := NewMemberService(store.UnitOfWork(), newMemMembers(), ledger, zap.NewNop())
	return svc, store
}

func register(t *testing.T, svc *MemberService, email string) *domain.Member {
	t.Helper()
	member, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Chileshe",
		LastName:  "Mwila",
		Email:     email,
		Phone:     "+260971234567",
	})
	require.NoError(t, err)
	return member
}

func TestRegisterValidates(t *testing.T) {
	svc, _ := newMemberFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FirstName: "Chileshe"})
	assert.Error(t, err)

	member := register(t, svc, "Chileshe@Example.com")
	assert.Equal(t, domain.MemberPending, member.Status)
	assert.Equal(t, "chileshe@example.com", member.Email)
	assert.Empty(t, member.MemberNumber)

	_, err = svc.Register(ctx, RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "chileshe@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestApproveOpensBothAccounts(t *testing.T) {
	svc, store := newMemberFixture(t)
	member := register(t, svc, "m@example.com")

	approved, err := svc.Approve(context.Background(), member.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, domain.MemberApproved, approved.Status)
	assert.True(t, strings.HasPrefix(approved.MemberNumber, "MBR"), approved.MemberNumber)
	require.NotNil(t, approved.ApprovedAt)

	accounts, err := store.Accounts().FindByUser(context.Background(), member.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	types := []ledgerdomain.AccountType{accounts[0].Type, accounts[1].Type}
	assert.ElementsMatch(t, []ledgerdomain.AccountType{ledgerdomain.AccountSavings, ledgerdomain.AccountShareCapital}, types)
	for _, a := range accounts {
		assert.True(t, a.Balance.IsZero())
		assert.Equal(t, ledgerdomain.AccountActive, a.Status)
	}
}

func TestApproveIsPendingOnly(t *testing.T) {
	svc, _ := newMemberFixture(t)
	member := register(t, svc, "m@example.com")
	ctx := context.Background()

	_, err := svc.Approve(ctx, member.ID, "admin-1")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, member.ID, "admin-2")
	var transition *domain.TransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, store := newMemberFixture(t)
	member := register(t, svc, "m@example.com")
	ctx := context.Background()

	_, err := svc.Reject(ctx, member.ID, "admin-1", "")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	rejected, err := svc.Reject(ctx, member.ID, "admin-1", "incomplete documents")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRejected, rejected.Status)

	// rejection opens no accounts
	accounts, err := store.Accounts().FindByUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSuspendAndReinstate(t *testing.T) {
	svc, _ := newMemberFixture(t)
	member := register(t, svc, "m@example.com")
	ctx := context.Background()

	var transition *domain.TransitionError

	// pending members cannot be suspended
	_, err := svc.Suspend(ctx, member.ID)
	assert.ErrorAs(t, err, &transition)

	_, err = svc.Approve(ctx, member.ID, "admin-1")
	require.NoError(t, err)

	suspended, err := svc.Suspend(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberSuspended, suspended.Status)

	reinstated, err := svc.Reinstate(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberApproved, reinstated.Status)
}

func TestRegistrationQueue(t *testing.T) {
	svc, _ := newMemberFixture(t)
	ctx := context.Background()

	first := register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	_, err := svc.Approve(ctx, first.ID, "admin-1")
	require.NoError(t, err)

	queue, err := svc.RegistrationQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "b@example.com", queue[0].Email)
}
