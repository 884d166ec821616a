package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/ledger/ledgertest"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
)

type memReader struct {
	balances map[ledgerdomain.AccountType]decimal.Decimal
	loanBook decimal.Decimal
	paid     map[ledgerdomain.TransactionType]decimal.Decimal
	interest decimal.Decimal
	calls    int
}

func (r *memReader) SumBalancesByType(ctx context.Context) (map[ledgerdomain.AccountType]decimal.Decimal, error) {
	r.calls++
	return r.balances, nil
}

func (r *memReader) SumOutstandingLoans(ctx context.Context) (decimal.Decimal, error) {
	return r.loanBook, nil
}

func (r *memReader) SumTransactionAmounts(ctx context.Context, types []ledgerdomain.TransactionType, from, to time.Time) (map[ledgerdomain.TransactionType]decimal.Decimal, error) {
	return r.paid, nil
}

func (r *memReader) SumRepaymentInterest(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.interest, nil
}

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.entries[key] = raw
}

func TestBalanceSheetBalances(t *testing.T) {
	reader := &memReader{
		balances: map[ledgerdomain.AccountType]decimal.Decimal{
			ledgerdomain.AccountSavings:      decimal.NewFromInt(100000),
			ledgerdomain.AccountSavingsPlan:  decimal.NewFromInt(25000),
			ledgerdomain.AccountShareCapital: decimal.NewFromInt(40000),
		},
		loanBook: decimal.NewFromInt(60000),
	}
	svc := NewReportingService(reader, nil, newMemCache(), zap.NewNop())

	sheet, err := svc.BalanceSheet(context.Background())
	require.NoError(t, err)

	assert.True(t, sheet.TotalLiabilities.Equal(decimal.NewFromInt(125000)))
	assert.True(t, sheet.TotalEquity.Equal(decimal.NewFromInt(40000)))
	assert.True(t, sheet.CashPosition.Equal(decimal.NewFromInt(105000)))
	assert.True(t, sheet.TotalAssets.Equal(decimal.NewFromInt(165000)))

	// assets always equal liabilities plus equity
	assert.True(t, sheet.TotalAssets.Equal(sheet.TotalLiabilities.Add(sheet.TotalEquity)))
}

func TestBalanceSheetServedFromCache(t *testing.T) {
	reader := &memReader{
		balances: map[ledgerdomain.AccountType]decimal.Decimal{},
		loanBook: decimal.Zero,
	}
	svc := NewReportingService(reader, nil, newMemCache(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.BalanceSheet(ctx)
	require.NoError(t, err)
	_, err = svc.BalanceSheet(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
}

func TestIncomeStatement(t *testing.T) {
	reader := &memReader{
		interest: decimal.NewFromInt(5000),
		paid: map[ledgerdomain.TransactionType]decimal.Decimal{
			ledgerdomain.TxInterest: decimal.NewFromInt(1800),
			ledgerdomain.TxDividend: decimal.NewFromInt(1200),
		},
	}
	svc := NewReportingService(reader, nil, newMemCache(), zap.NewNop())

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	statement, err := svc.IncomeStatement(context.Background(), from, to)
	require.NoError(t, err)

	assert.True(t, statement.InterestIncome.Equal(decimal.NewFromInt(5000)))
	assert.True(t, statement.InterestExpense.Equal(decimal.NewFromInt(1800)))
	assert.True(t, statement.DividendExpense.Equal(decimal.NewFromInt(1200)))
	assert.True(t, statement.NetIncome.Equal(decimal.NewFromInt(2000)))
}

func TestMemberStatementReplaysLedger(t *testing.T) {
	store := ledgertest.NewStore()
	ledger := ledgersvc.NewLedgerService(store.UnitOfWork(), store.Accounts(), store.Transactions(), zap.NewNop())
	svc := NewReportingService(&memReader{}, store.Transactions(), newMemCache(), zap.NewNop())
	ctx := context.Background()

	account := store.SeedAccount(&ledgerdomain.Account{
		UserID:  1,
		Type:    ledgerdomain.AccountSavings,
		Balance: decimal.NewFromInt(500),
	})

	_, err := ledger.Deposit(ctx, ledgersvc.PostInput{AccountID: account.ID, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	_, err = ledger.Withdraw(ctx, ledgersvc.PostInput{AccountID: account.ID, Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	statement, err := svc.MemberStatement(ctx, account.ID, from, to)
	require.NoError(t, err)

	require.Len(t, statement.Lines, 2)
	assert.True(t, statement.OpeningBalance.Equal(decimal.NewFromInt(500)), statement.OpeningBalance.String())
	assert.True(t, statement.ClosingBalance.Equal(decimal.NewFromInt(650)))
	assert.True(t, statement.Lines[0].BalanceAfter.Equal(decimal.NewFromInt(700)))
	assert.True(t, statement.Lines[1].BalanceAfter.Equal(decimal.NewFromInt(650)))
}

func TestMemberStatementEmptyPeriod(t *testing.T) {
	store := ledgertest.NewStore()
	svc := NewReportingService(&memReader{}, store.Transactions(), newMemCache(), zap.NewNop())

	statement, err := svc.MemberStatement(context.Background(), 1, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, statement.Lines)
	assert.True(t, statement.OpeningBalance.IsZero())
	assert.True(t, statement.ClosingBalance.IsZero())
}
