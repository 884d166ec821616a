package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/ledger/ledgertest"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/savings/domain"
)

type memProducts struct {
	rows   map[int64]*domain.Product
	nextID int64
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[int64]*domain.Product{}}
}

func (m *memProducts) Create(ctx context.Context, tx *gorm.DB, product *domain.Product) error {
	m.nextID++
	product.ID = m.nextID
	cp := *product
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrProductNotFound
}

func (m *memProducts) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	var out []*domain.Product
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.rows[id]; ok {
			if activeOnly && !p.Active {
				continue
			}
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProducts) Update(ctx context.Context, tx *gorm.DB, product *domain.Product) error {
	if _, ok := m.rows[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	cp := *product
	m.rows[cp.ID] = &cp
	return nil
}

type memPlans struct {
	rows   map[int64]*domain.Plan
	nextID int64
}

func newMemPlans() *memPlans {
	return &memPlans{rows: map[int64]*domain.Plan{}}
}

func (m *memPlans) Create(ctx context.Context, tx *gorm.DB, plan *domain.Plan) error {
	m.nextID++
	plan.ID = m.nextID
	cp := *plan
	m.rows[cp.ID] = &cp
	return nil
}

func (m *memPlans) FindByID(ctx context.Context, id int64) (*domain.Plan, error) {
	if p, ok := m.rows[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPlanNotFound
}

func (m *memPlans) ListByUser(ctx context.Context, userID int64) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.rows[id]; ok && p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlans) ListByStatus(ctx context.Context, status domain.PlanStatus) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.rows[id]; ok && p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlans) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Plan, error) {
	return m.FindByID(ctx, id)
}

func (m *memPlans) Update(ctx context.Context, tx *gorm.DB, plan *domain.Plan) error {
	if _, ok := m.rows[plan.ID]; !ok {
		return domain.ErrPlanNotFound
	}
	cp := *plan
	m.rows[cp.ID] = &cp
	return nil
}

type savingsFixture struct {
	svc     *SavingsService
	store   *ledgertest.Store
	product *domain.Product
	funding *ledgerdomain.Account
}

func newSavingsFixture(t *testing.T) *savingsFixture {
	t.Helper()
	store := ledgertest.NewStore()
	ledger := ledgersvc.NewLedgerService(store.UnitOfWork(), store.Accounts(), store.Transactions(), zap.NewNop())
	svc := NewSavingsService(store.UnitOfWork(), newMemProducts(), newMemPlans(), ledger, zap.NewNop())

	product := &domain.Product{
		Name:             "Target Saver",
		InterestRate:     decimal.NewFromInt(9),
		MinDeposit:       decimal.NewFromInt(50),
		LockPeriodMonths: 6,
	}
	require.NoError(t, svc.CreateProduct(context.Background(), product))

	funding := store.SeedAccount(&ledgerdomain.Account{
		UserID:  5,
		Type:    ledgerdomain.AccountSavings,
		Balance: decimal.NewFromInt(2000),
	})
	return &savingsFixture{svc: svc, store: store, product: product, funding: funding}
}

func (f *savingsFixture) openPlan(t *testing.T, initial int64) *domain.Plan {
	t.Helper()
	plan, err := f.svc.OpenPlan(context.Background(), OpenPlanInput{
		UserID:           5,
		ProductID:        f.product.ID,
		TargetAmount:     decimal.NewFromInt(5000),
		AutoSaveAmount:   decimal.NewFromInt(100),
		Frequency:        domain.FrequencyWeekly,
		FundingAccountID: f.funding.ID,
		InitialDeposit:   decimal.NewFromInt(initial),
	})
	require.NoError(t, err)
	return plan
}

func TestCreateProductValidates(t *testing.T) {
	f := newSavingsFixture(t)
	ctx := context.Background()

	err := f.svc.CreateProduct(ctx, &domain.Product{InterestRate: decimal.NewFromInt(5)})
	assert.Error(t, err)

	err = f.svc.CreateProduct(ctx, &domain.Product{Name: "Bad", InterestRate: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}

func TestRetireProductBlocksNewPlans(t *testing.T) {
	f := newSavingsFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.RetireProduct(ctx, f.product.ID))

	active, err := f.svc.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = f.svc.OpenPlan(ctx, OpenPlanInput{
		UserID:    5,
		ProductID: f.product.ID,
		Frequency: domain.FrequencyManual,
	})
	assert.Error(t, err)
}

func TestOpenPlanCreatesDedicatedAccount(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 500)

	assert.Equal(t, domain.PlanActive, plan.Status)
	assert.Equal(t, 6, plan.DurationMonths) // defaulted from the product lock period
	assert.NotZero(t, plan.AccountID)

	planAccount := f.store.Account(plan.AccountID)
	require.NotNil(t, planAccount)
	assert.Equal(t, ledgerdomain.AccountSavingsPlan, planAccount.Type)
	assert.True(t, planAccount.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, f.store.Account(f.funding.ID).Balance.Equal(decimal.NewFromInt(1500)))

	// the opening contribution is a linked transfer pair
	entries := f.store.AllTransactions()
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].TransferRef, entries[1].TransferRef)
}

func TestOpenPlanEnforcesMinimumDeposit(t *testing.T) {
	f := newSavingsFixture(t)

	_, err := f.svc.OpenPlan(context.Background(), OpenPlanInput{
		UserID:           5,
		ProductID:        f.product.ID,
		Frequency:        domain.FrequencyManual,
		FundingAccountID: f.funding.ID,
		InitialDeposit:   decimal.NewFromInt(10),
	})
	assert.Error(t, err)
}

func TestOpenPlanRollsBackOnFailedDeposit(t *testing.T) {
	f := newSavingsFixture(t)

	_, err := f.svc.OpenPlan(context.Background(), OpenPlanInput{
		UserID:           5,
		ProductID:        f.product.ID,
		Frequency:        domain.FrequencyManual,
		FundingAccountID: f.funding.ID,
		InitialDeposit:   decimal.NewFromInt(5000), // more than the funding balance
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientFunds)

	// the plan account opened inside the failed unit of work is gone
	assert.True(t, f.store.Account(f.funding.ID).Balance.Equal(decimal.NewFromInt(2000)))
	assert.Empty(t, f.store.AllTransactions())
	accounts, err := f.store.Accounts().FindByUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestContribute(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 0)
	ctx := context.Background()

	require.NoError(t, f.svc.Contribute(ctx, plan.ID, f.funding.ID, decimal.NewFromInt(300), "user:5"))
	assert.True(t, f.store.Account(plan.AccountID).Balance.Equal(decimal.NewFromInt(300)))

	_, err := f.svc.Liquidate(ctx, plan.ID, f.funding.ID, "user:5")
	require.NoError(t, err)

	err = f.svc.Contribute(ctx, plan.ID, f.funding.ID, decimal.NewFromInt(100), "user:5")
	assert.ErrorIs(t, err, domain.ErrPlanNotActive)
}

func TestLiquidateReturnsBalanceAndClosesAccount(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 800)
	ctx := context.Background()

	liquidated, err := f.svc.Liquidate(ctx, plan.ID, f.funding.ID, "user:5")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanLiquidated, liquidated.Status)

	planAccount := f.store.Account(plan.AccountID)
	assert.True(t, planAccount.Balance.IsZero())
	assert.Equal(t, ledgerdomain.AccountClosed, planAccount.Status)
	assert.True(t, f.store.Account(f.funding.ID).Balance.Equal(decimal.NewFromInt(2000)))

	// liquidation is terminal
	_, err = f.svc.Liquidate(ctx, plan.ID, f.funding.ID, "user:5")
	var transition *domain.TransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestMarkMatured(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 0)
	ctx := context.Background()

	n, err := f.svc.MarkMatured(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.MarkMatured(ctx, time.Now().AddDate(0, 7, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	matured, err := f.svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanCompleted, matured.Status)
}

func TestCollectAutoSaves(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 0)
	ctx := context.Background()
	asOf := time.Now().UTC()

	fundingFor := func(ctx context.Context, userID int64) (int64, error) {
		return f.funding.ID, nil
	}

	n, err := f.svc.CollectAutoSaves(ctx, asOf, fundingFor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.store.Account(plan.AccountID).Balance.Equal(decimal.NewFromInt(100)))

	// a second run inside the same week collects nothing
	n, err = f.svc.CollectAutoSaves(ctx, asOf.Add(time.Hour), fundingFor)
	require.NoError(t, err)
	assert.Zero(t, n)

	// next week it is due again
	n, err = f.svc.CollectAutoSaves(ctx, asOf.Add(8*24*time.Hour), fundingFor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.store.Account(plan.AccountID).Balance.Equal(decimal.NewFromInt(200)))
}

func TestCollectAutoSavesSkipsFailingPlans(t *testing.T) {
	f := newSavingsFixture(t)
	plan := f.openPlan(t, 0)
	ctx := context.Background()

	broke := f.store.SeedAccount(&ledgerdomain.Account{
		UserID: 6,
		Type:   ledgerdomain.AccountSavings,
	})
	_, err := f.svc.OpenPlan(ctx, OpenPlanInput{
		UserID:           6,
		ProductID:        f.product.ID,
		AutoSaveAmount:   decimal.NewFromInt(100),
		Frequency:        domain.FrequencyWeekly,
		FundingAccountID: broke.ID,
	})
	require.NoError(t, err)

	fundingFor := func(ctx context.Context, userID int64) (int64, error) {
		if userID == 6 {
			return broke.ID, nil
		}
		return f.funding.ID, nil
	}

	n, err := f.svc.CollectAutoSaves(ctx, time.Now().UTC(), fundingFor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.store.Account(plan.AccountID).Balance.Equal(decimal.NewFromInt(100)))
}
