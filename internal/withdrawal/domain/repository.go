package domain

import (
	"context"

	"gorm.io/gorm"
)

// RequestRepository is the port for withdrawal queue rows.
type RequestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, request *Request) error
	FindByID(ctx context.Context, id int64) (*Request, error)
	ListByStatus(ctx context.Context, status RequestStatus) ([]*Request, error)
	ListByUser(ctx context.Context, userID int64) ([]*Request, error)

	// LockByID prevents two admins from resolving the same request at once.
	LockByID(ctx context.Context, tx *gorm.DB, id int64) (*Request, error)
	Update(ctx context.Context, tx *gorm.DB, request *Request) error
}
