package domain

import (
	"context"

	"gorm.io/gorm"
)

// MemberRepository is the port for member rows.
type MemberRepository interface {
	Create(ctx context.Context, tx *gorm.DB, member *Member) error
	FindByID(ctx context.Context, id int64) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	ListByStatus(ctx context.Context, status MemberStatus) ([]*Member, error)
	Update(ctx context.Context, tx *gorm.DB, member *Member) error
}
