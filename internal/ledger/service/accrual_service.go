package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kwachasoft/coopfin/internal/ledger/domain"
)

// AccrualInput describes one bulk interest or dividend run.
type AccrualInput struct {
	Type        domain.AccrualType
	Period      string // e.g. "Monthly-2026-08"
	Rate        decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
	PerformedBy string
	DryRun      bool
}

// AccrualProjection is one account's share of a run.
type AccrualProjection struct {
	AccountID     int64           `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	Amount        decimal.Decimal `json:"amount"`
}

// AccrualResult summarizes a run, dry or real.
type AccrualResult struct {
	Type             domain.AccrualType  `json:"type"`
	Period           string              `json:"period"`
	DryRun           bool                `json:"dry_run"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	BeneficiaryCount int                 `json:"beneficiary_count"`
	FailureCount     int                 `json:"failure_count"`
	Failed           []int64             `json:"failed_account_ids,omitempty"`
	Projections      []AccrualProjection `json:"projections,omitempty"`
}

// AccrualService runs bulk interest and dividend postings. Each account's
// credit+record is its own atomic unit so a failure partway leaves earlier
// accounts posted and later ones untouched; the PostingLog summarizes the
// outcome either way.
type AccrualService struct {
	ledger   *LedgerService
	accounts domain.AccountRepository
	logs     domain.PostingLogRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewAccrualService(ledger *LedgerService, accounts domain.AccountRepository, logs domain.PostingLogRepository, logger *zap.Logger) *AccrualService {
	return &AccrualService{
		ledger:   ledger,
		accounts: accounts,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes a bulk posting. A dry run shares project() with the real run
// and touches no ledger state at all.
func (s *AccrualService) Run(ctx context.Context, in AccrualInput) (*AccrualResult, error) {
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("invalid accrual type %q", in.Type)
	}
	if !in.Rate.IsPositive() {
		return nil, fmt.Errorf("rate must be positive, got %s", in.Rate)
	}

	projections, err := s.project(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.DryRun {
		result := &AccrualResult{Type: in.Type, Period: in.Period, DryRun: true, Projections: projections}
		for _, p := range projections {
			result.TotalAmount = result.TotalAmount.Add(p.Amount)
			result.BeneficiaryCount++
		}
		return result, nil
	}

	// The running log row claims the (type, period) slot up front; a second
	// run for the same period fails here before any account is touched.
	log := &domain.PostingLog{
		AccrualType: in.Type,
		Period:      in.Period,
		Rate:        in.Rate,
		Status:      domain.PostingRunning,
		PerformedBy: in.PerformedBy,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return nil, err
	}

	result := &AccrualResult{Type: in.Type, Period: in.Period}
	txType := in.Type.TransactionType()
	for _, p := range projections {
		_, err := s.ledger.Post(ctx, PostInput{
			AccountID:   p.AccountID,
			Type:        txType,
			Amount:      p.Amount,
			PerformedBy: in.PerformedBy,
			Description: fmt.Sprintf("%s posting for %s", in.Type, in.Period),
		})
		if err != nil {
			result.FailureCount++
			result.Failed = append(result.Failed, p.AccountID)
			s.logger.Error("accrual posting failed for account",
				zap.Int64("account_id", p.AccountID),
				zap.String("period", in.Period),
				zap.Error(err),
			)
			continue
		}
		result.TotalAmount = result.TotalAmount.Add(p.Amount)
		result.BeneficiaryCount++
	}

	log.TotalAmount = result.TotalAmount
	log.BeneficiaryCount = result.BeneficiaryCount
	log.FailureCount = result.FailureCount
	if result.FailureCount > 0 {
		log.Status = domain.PostingFailed
	} else {
		log.Status = domain.PostingCompleted
	}
	if err := s.logs.Finalize(ctx, log); err != nil {
		return nil, fmt.Errorf("finalize posting log: %w", err)
	}

	s.logger.Info("accrual run finished",
		zap.String("type", string(in.Type)),
		zap.String("period", in.Period),
		zap.String("total", result.TotalAmount.String()),
		zap.Int("beneficiaries", result.BeneficiaryCount),
		zap.Int("failures", result.FailureCount),
	)
	return result, nil
}

// project computes every eligible account's amount. Pure read path; both the
// dry run and the real run consume its output.
func (s *AccrualService) project(ctx context.Context, in AccrualInput) ([]AccrualProjection, error) {
	accounts, err := s.accounts.FindEligibleForAccrual(ctx, in.Type.EligibleAccountTypes())
	if err != nil {
		return nil, err
	}

	period := domain.AccrualPeriod{Start: in.PeriodStart, End: in.PeriodEnd, Now: s.now()}
	var projections []AccrualProjection
	for _, account := range accounts {
		amount := domain.AccrualAmount(in.Type, account.Balance, in.Rate, period)
		if !amount.IsPositive() {
			continue
		}
		projections = append(projections, AccrualProjection{
			AccountID:     account.ID,
			AccountNumber: account.AccountNumber,
			Balance:       account.Balance,
			Amount:        amount,
		})
	}
	return projections, nil
}

// History lists past posting runs, newest first.
func (s *AccrualService) History(ctx context.Context, limit int) ([]*domain.PostingLog, error) {
	return s.logs.List(ctx, limit)
}
