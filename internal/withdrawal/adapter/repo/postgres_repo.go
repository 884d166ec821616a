package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwachasoft/coopfin/internal/withdrawal/domain"
)

type PostgresRequestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) *PostgresRequestRepo {
	return &PostgresRequestRepo{db: db}
}

func (r *PostgresRequestRepo) Create(ctx context.Context, tx *gorm.DB, request *domain.Request) error {
	return tx.WithContext(ctx).Create(request).Error
}

func (r *PostgresRequestRepo) FindByID(ctx context.Context, id int64) (*domain.Request, error) {
	var request domain.Request
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRequestRepo) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]*domain.Request, error) {
	var requests []*domain.Request
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&requests).Error
	return requests, err
}

func (r *PostgresRequestRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Request, error) {
	var requests []*domain.Request
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&requests).Error
	return requests, err
}

func (r *PostgresRequestRepo) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Request, error) {
	var request domain.Request
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *PostgresRequestRepo) Update(ctx context.Context, tx *gorm.DB, request *domain.Request) error {
	return tx.WithContext(ctx).Save(request).Error
}
