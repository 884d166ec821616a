package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwachasoft/coopfin/internal/savings/domain"
)

type PostgresProductRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

func (r *PostgresProductRepo) Create(ctx context.Context, tx *gorm.DB, product *domain.Product) error {
	return tx.WithContext(ctx).Create(product).Error
}

func (r *PostgresProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *PostgresProductRepo) List(ctx context.Context, activeOnly bool) ([]*domain.Product, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = true")
	}
	var products []*domain.Product
	err := q.Order("id").Find(&products).Error
	return products, err
}

func (r *PostgresProductRepo) Update(ctx context.Context, tx *gorm.DB, product *domain.Product) error {
	return tx.WithContext(ctx).Save(product).Error
}

// ---------------------------------------------------------

type PostgresPlanRepo struct {
	db *gorm.DB
}

func NewPlanRepo(db *gorm.DB) *PostgresPlanRepo {
	return &PostgresPlanRepo{db: db}
}

func (r *PostgresPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *domain.Plan) error {
	return tx.WithContext(ctx).Create(plan).Error
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, id int64) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PostgresPlanRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Plan, error) {
	var plans []*domain.Plan
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&plans).Error
	return plans, err
}

func (r *PostgresPlanRepo) ListByStatus(ctx context.Context, status domain.PlanStatus) ([]*domain.Plan, error) {
	var plans []*domain.Plan
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&plans).Error
	return plans, err
}

func (r *PostgresPlanRepo) LockByID(ctx context.Context, tx *gorm.DB, id int64) (*domain.Plan, error) {
	var plan domain.Plan
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PostgresPlanRepo) Update(ctx context.Context, tx *gorm.DB, plan *domain.Plan) error {
	return tx.WithContext(ctx).Save(plan).Error
}
