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
	"github.com/kwachasoft/coopfin/internal/withdrawal/domain"
)

// Poster is the slice of the ledger service the queue needs: the approval
// debit commits in the same unit of work as the request resolution.
type Poster interface {
	PostWithin(ctx context.Context, tx *gorm.DB, in ledgersvc.PostInput) (*ledgerdomain.Transaction, error)
}

// Accounts is used to validate a request up front so members find out about
// obviously bad requests before an admin does.
type Accounts interface {
	FindByID(ctx context.Context, id int64) (*ledgerdomain.Account, error)
}

// WithdrawalService runs the withdrawal request queue. It holds no ledger
// state; approval is the only path that moves money.
type WithdrawalService struct {
	uow      ledgerdomain.UnitOfWork
	requests domain.RequestRepository
	accounts Accounts
	poster   Poster
	logger   *zap.Logger
	now      func() time.Time
}

func NewWithdrawalService(
	uow ledgerdomain.UnitOfWork,
	requests domain.RequestRepository,
	accounts Accounts,
	poster Poster,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		uow:      uow,
		requests: requests,
		accounts: accounts,
		poster:   poster,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit files a new request after a non-binding balance check. Funds are
// not held; the balance is re-checked at approval time.
func (s *WithdrawalService) Submit(ctx context.Context, userID, accountID int64, amount decimal.Decimal, reason string) (*domain.Request, error) {
	if !amount.IsPositive() {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, fmt.Errorf("account %d does not belong to user %d", accountID, userID)
	}
	if err := account.CanWithdraw(amount); err != nil {
		return nil, err
	}

	request := &domain.Request{
		UserID:    userID,
		AccountID: accountID,
		Amount:    amount,
		Reason:    reason,
		Status:    domain.RequestPending,
	}
	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		return s.requests.Create(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Approve resolves the request and performs the debit in one unit of work.
// If the debit fails (say the balance dropped since submission) the request
// stays pending and the error surfaces to the admin.
func (s *WithdrawalService) Approve(ctx context.Context, requestID int64, approvedBy string) (*domain.Request, error) {
	var request *domain.Request
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		request, err = s.requests.LockByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := request.Resolve(domain.RequestApproved); err != nil {
			return err
		}

		entry, err := s.poster.PostWithin(ctx, tx, ledgersvc.PostInput{
			AccountID:   request.AccountID,
			Type:        ledgerdomain.TxWithdrawal,
			Amount:      request.Amount,
			PerformedBy: approvedBy,
			Description: fmt.Sprintf("approved withdrawal request #%d", request.ID),
		})
		if err != nil {
			return err
		}

		now := s.now()
		request.Status = domain.RequestApproved
		request.ResolvedBy = approvedBy
		request.TransactionReference = entry.Reference
		request.ResolvedAt = &now
		return s.requests.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("withdrawal request approved",
		zap.Int64("request_id", request.ID),
		zap.String("reference", request.TransactionReference),
		zap.String("approved_by", approvedBy),
	)
	return request, nil
}

// Reject resolves the request without touching the ledger. Reason mandatory.
func (s *WithdrawalService) Reject(ctx context.Context, requestID int64, rejectedBy, reason string) (*domain.Request, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	return s.resolve(ctx, requestID, domain.RequestRejected, rejectedBy, reason)
}

// Cancel lets the requester withdraw their own pending request.
func (s *WithdrawalService) Cancel(ctx context.Context, requestID, userID int64) (*domain.Request, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, domain.ErrNotRequester
	}
	return s.resolve(ctx, requestID, domain.RequestCancelled, fmt.Sprintf("user:%d", userID), "cancelled by requester")
}

func (s *WithdrawalService) resolve(ctx context.Context, requestID int64, to domain.RequestStatus, by, note string) (*domain.Request, error) {
	var request *domain.Request
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		var err error
		request, err = s.requests.LockByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if err := request.Resolve(to); err != nil {
			return err
		}
		now := s.now()
		request.Status = to
		request.ResolvedBy = by
		request.ResolutionNote = note
		request.ResolvedAt = &now
		return s.requests.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *WithdrawalService) Get(ctx context.Context, requestID int64) (*domain.Request, error) {
	return s.requests.FindByID(ctx, requestID)
}

func (s *WithdrawalService) Queue(ctx context.Context) ([]*domain.Request, error) {
	return s.requests.ListByStatus(ctx, domain.RequestPending)
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID int64) ([]*domain.Request, error) {
	return s.requests.ListByUser(ctx, userID)
}
