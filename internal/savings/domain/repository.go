package domain

import (
	"context"

	"gorm.io/gorm"
)

// ProductRepository is the port for savings product rows.
type ProductRepository interface {
	Create(ctx context.Context, tx *gorm.DB, product *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, activeOnly bool) ([]*Product, error)
	Update(ctx context.Context, tx *gorm.DB, product *Product) error
}

// PlanRepository is the port for savings plan rows.
type PlanRepository interface {
	Create(ctx context.Context, tx *gorm.DB, plan *Plan) error
	FindByID(ctx context.Context, id int64) (*Plan, error)
	ListByUser(ctx context.Context, userID int64) ([]*Plan, error)
	ListByStatus(ctx context.Context, status PlanStatus) ([]*Plan, error)
	LockByID(ctx context.Context, tx *gorm.DB, id int64) (*Plan, error)
	Update(ctx context.Context, tx *gorm.DB, plan *Plan) error
}
