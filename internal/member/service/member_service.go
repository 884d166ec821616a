package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/kwachasoft/coopfin/internal/ledger/domain"
	"github.com/kwachasoft/coopfin/internal/member/domain"
)

// AccountOpener is the slice of the ledger service onboarding needs: the
// member's savings and share-capital accounts open atomically with approval.
type AccountOpener interface {
	OpenAccountWithin(ctx context.Context, tx *gorm.DB, userID int64, accountType ledgerdomain.AccountType) (*ledgerdomain.Account, error)
}

// RegisterInput is a membership application.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// MemberService runs onboarding and the registration approval queue.
type MemberService struct {
	uow      ledgerdomain.UnitOfWork
	members  domain.MemberRepository
	accounts AccountOpener
	logger   *zap.Logger
	now      func() time.Time
}

func NewMemberService(uow ledgerdomain.UnitOfWork, members domain.MemberRepository, accounts AccountOpener, logger *zap.Logger) *MemberService {
	return &MemberService{
		uow:      uow,
		members:  members,
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

// Register files a pending membership application.
func (s *MemberService) Register(ctx context.Context, in RegisterInput) (*domain.Member, error) {
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("first name, last name and email are required")
	}
	member := &domain.Member{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     strings.ToLower(in.Email),
		Phone:     in.Phone,
		Status:    domain.MemberPending,
	}
	err := s.uow.Within(ctx, func(tx *gorm.DB) error {
		return s.members.Create(ctx, tx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Approve admits a pending member: assigns a member number and opens their
// savings and share-capital accounts, all in one unit of work.
func (s *MemberService) Approve(ctx context.Context, memberID int64, approvedBy string) (*domain.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(member.Status, domain.MemberApproved) {
		return nil, &domain.TransitionError{From: member.Status, To: domain.MemberApproved}
	}

	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		now := s.now()
		member.Status = domain.MemberApproved
		member.ApprovedBy = approvedBy
		member.ApprovedAt = &now
		member.MemberNumber = newMemberNumber(now)
		if err := s.members.Update(ctx, tx, member); err != nil {
			return err
		}
		if _, err := s.accounts.OpenAccountWithin(ctx, tx, member.ID, ledgerdomain.AccountSavings); err != nil {
			return err
		}
		_, err := s.accounts.OpenAccountWithin(ctx, tx, member.ID, ledgerdomain.AccountShareCapital)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member approved",
		zap.Int64("member_id", member.ID),
		zap.String("member_number", member.MemberNumber),
		zap.String("approved_by", approvedBy),
	)
	return member, nil
}

// Reject turns a pending application away; the reason is mandatory.
func (s *MemberService) Reject(ctx context.Context, memberID int64, rejectedBy, reason string) (*domain.Member, error) {
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(member.Status, domain.MemberRejected) {
		return nil, &domain.TransitionError{From: member.Status, To: domain.MemberRejected}
	}
	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		member.Status = domain.MemberRejected
		member.RejectionReason = reason
		member.ApprovedBy = rejectedBy
		return s.members.Update(ctx, tx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Suspend and Reinstate toggle an existing member's standing.
func (s *MemberService) Suspend(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.setStatus(ctx, memberID, domain.MemberSuspended)
}

func (s *MemberService) Reinstate(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.setStatus(ctx, memberID, domain.MemberApproved)
}

func (s *MemberService) setStatus(ctx context.Context, memberID int64, to domain.MemberStatus) (*domain.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(member.Status, to) {
		return nil, &domain.TransitionError{From: member.Status, To: to}
	}
	err = s.uow.Within(ctx, func(tx *gorm.DB) error {
		member.Status = to
		return s.members.Update(ctx, tx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, memberID int64) (*domain.Member, error) {
	return s.members.FindByID(ctx, memberID)
}

func (s *MemberService) RegistrationQueue(ctx context.Context) ([]*domain.Member, error) {
	return s.members.ListByStatus(ctx, domain.MemberPending)
}

func newMemberNumber(at time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("MBR%s%s", at.Format("2006"), token)
}
