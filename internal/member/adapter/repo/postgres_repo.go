package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kwachasoft/coopfin/internal/member/domain"
)

type PostgresMemberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

func (r *PostgresMemberRepo) Create(ctx context.Context, tx *gorm.DB, member *domain.Member) error {
	if err := tx.WithContext(ctx).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *PostgresMemberRepo) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	var member domain.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresMemberRepo) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	var member domain.Member
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresMemberRepo) ListByStatus(ctx context.Context, status domain.MemberStatus) ([]*domain.Member, error) {
	var members []*domain.Member
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&members).Error
	return members, err
}

func (r *PostgresMemberRepo) Update(ctx context.Context, tx *gorm.DB, member *domain.Member) error {
	return tx.WithContext(ctx).Save(member).Error
}
