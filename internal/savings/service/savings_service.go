package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	ledgersvc "github.com/kwachasoft/coopfin/internal/ledger/service"
	"github.com/kwachasoft/coopfin/internal/savings/domain"
)

// Ledger is the slice of the ledger service plans need: opening and closing
// the plan's account and moving money in and out of it, all inside the
// plan's own unit of work.
type Ledger interface {
	OpenAccountWithin(ctx context.Context, tx *gorm.DB, userID int64, accountType ledgerdomain.AccountType) (*ledgerdomain.Account, error)
	TransferWithin(ctx context.Context, tx *gorm.DB, in ledgersvc.TransferInput) (*ledgerdomain.Transaction, *ledgerdomain.Transaction, error)
	CloseAccountWithin(ctx context.Context, tx *gorm.DB, id int64) error
	GetAccount(ctx context.Context, id int64) (*ledgerdomain.Account, error)
}

// OpenPlanInput creates a member savings plan on a product.
type OpenPlanInput struct {
	UserID           int64
	ProductID        int64
	TargetAmount     decimal.Decimal
	DurationMonths   int
	AutoSaveAmount   decimal.Decimal
	Frequency        domain.Frequency
	FundingAccountID int64           // member savings account contributions come from
	InitialDeposit   decimal.Decimal // optional opening contribution
}

// SavingsService manages products and member savings plans.
type SavingsService struct {
	uow      ledgerdomain.UnitOfWork
	products domain.ProductRepository
	plans    domain.PlanRepository
	ledger   Ledger
	logger   *zap.Logger
	now      func() time.Time
}

func NewSavingsService(uow ledgerdomain.UnitOfWork, products domain.ProductRepository, plans domain.PlanRepository, ledger Ledger, logger *zap.Logger) *SavingsService {
	return &SavingsService{
		uow:      uow,
		products: products,
		plans:    plans,
		ledger:   ledger,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateProduct defines a new savings offering.
func (s *SavingsService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if product.InterestRate.IsNegative() {
		return fmt.Errorf("interest rate cannot be negative")
	}
	product.Active = true
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		return s.products.Create(ctx, tx, product)
	})
}

func (s *SavingsService) ListProducts(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	return s.products.List(ctx, activeOnly)
}

func (s *SavingsService) RetireProduct(ctx context.Context, productID int64) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	product.Active = false
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		return s.products.Update(ctx, tx, product)
	})
}

// OpenPlan creates the plan and its dedicated account in one unit of work,
// funding the initial deposit from the member's savings account when given.
func (s *SavingsService) OpenPlan(ctx context.Context, in OpenPlanInput) (*domain.Plan, error) {
	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("savings product %q is retired", product.Name)
	}
	if !in.Frequency.IsValid() {
		return nil, fmt.Errorf("invalid frequency %q", in.Frequency)
	}
	if in.DurationMonths <= 0 {
		in.DurationMonths = product.LockPeriodMonths
	}
	if in.DurationMonths <= 0 {
		return nil, fmt.Errorf("plan duration must be at least 1 month")
	}
	if in.InitialDeposit.IsPositive() && in.InitialDeposit.LessThan(product.MinDeposit) {
		return nil, fmt.Errorf("initial deposit below product minimum %s", product.MinDeposit)
	}

	var plan *domain.Plan
	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		account, err := s.ledger.OpenAccountWithin(ctx, tx, in.UserID, ledgerdomain.AccountSavingsPlan)
		if err != nil {
			return err
		}
		plan = &domain.Plan{
			UserID:         in.UserID,
			ProductID:      in.ProductID,
			AccountID:      account.ID,
			TargetAmount:   in.TargetAmount,
			DurationMonths: in.DurationMonths,
			MaturityDate:   s.now().AddDate(0, in.DurationMonths, 0),
			AutoSaveAmount: in.AutoSaveAmount,
			Frequency:      in.Frequency,
			Status:         domain.PlanActive,
		}
		if err := s.plans.Create(ctx, tx, plan); err != nil {
			return err
		}
		if in.InitialDeposit.IsPositive() {
			_, _, err = s.ledger.TransferWithin(ctx, tx, ledgersvc.TransferInput{
				SourceAccountID:      in.FundingAccountID,
				DestinationAccountID: account.ID,
				Amount:               in.InitialDeposit,
				PerformedBy:          fmt.Sprintf("user:%d", in.UserID),
				Description:          fmt.Sprintf("opening contribution to savings plan on %s", product.Name),
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Contribute moves money from the funding account into the plan account.
func (s *SavingsService) Contribute(ctx context.Context, planID, fundingAccountID int64, amount decimal.Decimal, performedBy string) error {
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		plan, err := s.plans.LockByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan.Status != domain.PlanActive {
			return domain.ErrPlanNotActive
		}
		_, _, err = s.ledger.TransferWithin(ctx, tx, ledgersvc.TransferInput{
			SourceAccountID:      fundingAccountID,
			DestinationAccountID: plan.AccountID,
			Amount:               amount,
			PerformedBy:          performedBy,
			Description:          fmt.Sprintf("contribution to savings plan #%d", plan.ID),
		})
		return err
	})
}

// Liquidate pays the plan balance back to the destination account, closes
// the plan account and ends the plan, as one atomic unit.
func (s *SavingsService) Liquidate(ctx context.Context, planID, destinationAccountID int64, performedBy string) (*domain.Plan, error) {
	var plan *domain.Plan
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		plan, err = s.plans.LockByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(plan.Status, domain.PlanLiquidated) {
			return &domain.TransitionError{From: plan.Status, To: domain.PlanLiquidated}
		}

		account, err := s.ledger.GetAccount(ctx, plan.AccountID)
		if err != nil {
			return err
		}
		if account.Balance.IsPositive() {
			_, _, err = s.ledger.TransferWithin(ctx, tx, ledgersvc.TransferInput{
				SourceAccountID:      plan.AccountID,
				DestinationAccountID: destinationAccountID,
				Amount:               account.Balance,
				PerformedBy:          performedBy,
				Description:          fmt.Sprintf("liquidation of savings plan #%d", plan.ID),
			})
			if err != nil {
				return err
			}
		}
		if err := s.ledger.CloseAccountWithin(ctx, tx, plan.AccountID); err != nil {
			return err
		}
		plan.Status = domain.PlanLiquidated
		return s.plans.Update(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("savings plan liquidated",
		zap.Int64("plan_id", plan.ID),
		zap.String("performed_by", performedBy),
	)
	return plan, nil
}

// MarkMatured flips active plans past their maturity date to completed.
// Called by the jobs runner; returns how many plans changed.
func (s *SavingsService) MarkMatured(ctx context.Context, asOf time.Time) (int, error) {
	plans, err := s.plans.ListByStatus(ctx, domain.PlanActive)
	if err != nil {
		return 0, err
	}
	matured := 0
	for _, p := range plans {
		if p.MaturityDate.After(asOf) {
			continue
		}
		err := s.uow.Within(ctx, func(tx *gorm.DB) error {
			plan, err := s.plans.LockByID(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if !domain.CanTransition(plan.Status, domain.PlanCompleted) {
				return nil // resolved concurrently
			}
			plan.Status = domain.PlanCompleted
			return s.plans.Update(ctx, tx, plan)
		})
		if err != nil {
			s.logger.Error("failed to mature savings plan", zap.Int64("plan_id", p.ID), zap.Error(err))
			continue
		}
		matured++
	}
	return matured, nil
}

// CollectAutoSaves runs due scheduled contributions. Each plan is its own
// atomic unit; one member's empty account does not stop the run.
func (s *SavingsService) CollectAutoSaves(ctx context.Context, asOf time.Time, fundingAccountFor func(ctx context.Context, userID int64) (int64, error)) (int, error) {
	plans, err := s.plans.ListByStatus(ctx, domain.PlanActive)
	if err != nil {
		return 0, err
	}
	collected := 0
	for _, p := range plans {
		if !p.AutoSaveDue(asOf) {
			continue
		}
		fundingID, err := fundingAccountFor(ctx, p.UserID)
		if err != nil {
			s.logger.Warn("no funding account for auto-save", zap.Int64("plan_id", p.ID), zap.Error(err))
			continue
		}
		err = s.uow.Within(ctx, func(tx *gorm.DB) error {
			plan, err := s.plans.LockByID(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			if !plan.AutoSaveDue(asOf) {
				return nil
			}
			_, _, err = s.ledger.TransferWithin(ctx, tx, ledgersvc.TransferInput{
				SourceAccountID:      fundingID,
				DestinationAccountID: plan.AccountID,
				Amount:               plan.AutoSaveAmount,
				PerformedBy:          "system:auto-save",
				Description:          fmt.Sprintf("scheduled contribution to savings plan #%d", plan.ID),
			})
			if err != nil {
				return err
			}
			plan.LastAutoSaveAt = &asOf
			return s.plans.Update(ctx, tx, plan)
		})
		if err != nil {
			s.logger.Warn("auto-save collection failed", zap.Int64("plan_id", p.ID), zap.Error(err))
			continue
		}
		collected++
	}
	return collected, nil
}

func (s *SavingsService) GetPlan(ctx context.Context, planID int64) (*domain.Plan, error) {
	return s.plans.FindByID(ctx, planID)
}

func (s *SavingsService) ListPlansByUser(ctx context.Context, userID int64) ([]*domain.Plan, error) {
	return s.plans.ListByUser(ctx, userID)
}
