package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
)

const reportCacheTTL = 5 * time.Minute

// Reader is the read-only aggregation port. Nothing behind it may write.
type Reader interface {
	SumBalancesByType(ctx context.Context) (map[ledgerdomain.AccountType]decimal.Decimal, error)
	SumOutstandingLoans(ctx context.Context) (decimal.Decimal, error)
	SumTransactionAmounts(ctx context.Context, types []ledgerdomain.TransactionType, from, to time.Time) (map[ledgerdomain.TransactionType]decimal.Decimal, error)
	SumRepaymentInterest(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// Cache is a best-effort JSON cache; misses are always acceptable.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
}

// Transactions is the slice of the ledger used for member statements.
type Transactions interface {
	ListByAccount(ctx context.Context, accountID int64, from, to time.Time) ([]*ledgerdomain.Transaction, error)
}

// BalanceSheet is a point-in-time snapshot. CashPosition is the balancing
// figure: funds held on behalf of members not currently out on loan.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	MemberSavings    decimal.Decimal `json:"member_savings"`
	PlanSavings      decimal.Decimal `json:"plan_savings"`
	ShareCapital     decimal.Decimal `json:"share_capital"`
	LoanBook         decimal.Decimal `json:"loan_book"`
	CashPosition     decimal.Decimal `json:"cash_position"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
}

// IncomeStatement covers a period.
type IncomeStatement struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	InterestIncome  decimal.Decimal `json:"interest_income"`
	InterestExpense decimal.Decimal `json:"interest_expense"`
	DividendExpense decimal.Decimal `json:"dividend_expense"`
	NetIncome       decimal.Decimal `json:"net_income"`
}

// StatementLine is one entry on a member statement.
type StatementLine struct {
	Reference    string                       `json:"reference"`
	Type         ledgerdomain.TransactionType `json:"type"`
	Amount       decimal.Decimal              `json:"amount"`
	BalanceAfter decimal.Decimal              `json:"balance_after"`
	Description  string                       `json:"description"`
	PostedAt     time.Time                    `json:"posted_at"`
}

// Statement is a member account statement for a period.
type Statement struct {
	AccountID      int64           `json:"account_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []StatementLine `json:"lines"`
}

// ReportingService aggregates over ledger and loan history. Strictly
// read-only by construction: it holds no repository with a write method.
type ReportingService struct {
	reader Reader
	txs    Transactions
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewReportingService(reader Reader, txs Transactions, cache Cache, logger *zap.Logger) *ReportingService {
	return &ReportingService{
		reader: reader,
		txs:    txs,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// BalanceSheet builds the current position, cached briefly since every
// dashboard load asks for it.
func (s *ReportingService) BalanceSheet(ctx context.Context) (*BalanceSheet, error) {
	var cached BalanceSheet
	if s.cache != nil && s.cache.GetJSON(ctx, "report:balance-sheet", &cached) {
		return &cached, nil
	}

	balances, err := s.reader.SumBalancesByType(ctx)
	if err != nil {
		return nil, err
	}
	loanBook, err := s.reader.SumOutstandingLoans(ctx)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{
		AsOf:          s.now(),
		MemberSavings: balances[ledgerdomain.AccountSavings],
		PlanSavings:   balances[ledgerdomain.AccountSavingsPlan],
		ShareCapital:  balances[ledgerdomain.AccountShareCapital],
		LoanBook:      loanBook,
	}
	sheet.TotalLiabilities = sheet.MemberSavings.Add(sheet.PlanSavings)
	sheet.TotalEquity = sheet.ShareCapital
	sheet.CashPosition = sheet.TotalLiabilities.Add(sheet.TotalEquity).Sub(sheet.LoanBook)
	sheet.TotalAssets = sheet.LoanBook.Add(sheet.CashPosition)

	if s.cache != nil {
		s.cache.SetJSON(ctx, "report:balance-sheet", sheet, reportCacheTTL)
	}
	return sheet, nil
}

// IncomeStatement sums loan interest collected against interest and
// dividends paid out over the period.
func (s *ReportingService) IncomeStatement(ctx context.Context, from, to time.Time) (*IncomeStatement, error) {
	key := fmt.Sprintf("report:income:%d:%d", from.Unix(), to.Unix())
	var cached IncomeStatement
	if s.cache != nil && s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	income, err := s.reader.SumRepaymentInterest(ctx, from, to)
	if err != nil {
		return nil, err
	}
	paid, err := s.reader.SumTransactionAmounts(ctx,
		[]ledgerdomain.TransactionType{ledgerdomain.TxInterest, ledgerdomain.TxDividend}, from, to)
	if err != nil {
		return nil, err
	}

	statement := &IncomeStatement{
		From:            from,
		To:              to,
		InterestIncome:  income,
		InterestExpense: paid[ledgerdomain.TxInterest],
		DividendExpense: paid[ledgerdomain.TxDividend],
	}
	statement.NetIncome = statement.InterestIncome.
		Sub(statement.InterestExpense).
		Sub(statement.DividendExpense)

	if s.cache != nil {
		s.cache.SetJSON(ctx, key, statement, reportCacheTTL)
	}
	return statement, nil
}

// MemberStatement replays an account's entries for the period. The opening
// balance is derived from the first entry's snapshot, so the statement is
// internally consistent with the append-only ledger.
func (s *ReportingService) MemberStatement(ctx context.Context, accountID int64, from, to time.Time) (*Statement, error) {
	entries, err := s.txs.ListByAccount(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	statement := &Statement{AccountID: accountID, From: from, To: to}
	for _, entry := range entries {
		statement.Lines = append(statement.Lines, StatementLine{
			Reference:    entry.Reference,
			Type:         entry.Type,
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			Description:  entry.Description,
			PostedAt:     entry.PostedAt,
		})
	}
	if len(entries) > 0 {
		first := entries[0]
		statement.OpeningBalance = first.BalanceAfter.Sub(first.SignedAmount())
		statement.ClosingBalance = entries[len(entries)-1].BalanceAfter
	}
	return statement, nil
}
