package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus is the withdrawal queue state. Requests are terminal once
// resolved; nothing moves out of approved, rejected or cancelled.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

var (
	ErrRequestNotFound = errors.New("withdrawal request not found")
	ErrReasonRequired  = errors.New("a reason is required to reject")
	ErrNotRequester    = errors.New("only the requester may cancel")
)

// ResolvedError reports an action against an already-resolved request.
type ResolvedError struct {
	Status RequestStatus
}

func (e *ResolvedError) Error() string {
	return fmt.Sprintf("withdrawal request already resolved as %s", e.Status)
}

// Request is one member's queued withdrawal. The debit only happens at
// approval, through the posting engine.
type Request struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement"`
	UserID               int64           `gorm:"not null;index"`
	AccountID            int64           `gorm:"not null;index"`
	Amount               decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	Reason               string          `gorm:"type:text"`
	Status               RequestStatus   `gorm:"type:varchar(16);not null;default:'pending'"`
	ResolvedBy           string          `gorm:"type:varchar(64)"`
	ResolutionNote       string          `gorm:"type:text"`
	TransactionReference string          `gorm:"type:varchar(64)"` // set on approval
	ResolvedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (Request) TableName() string {
	return "coop.withdrawal_requests"
}

// Resolve validates the terminal transition. The zero error path is the only
// way a request leaves pending.
func (r *Request) Resolve(to RequestStatus) error {
	if r.Status != RequestPending {
		return &ResolvedError{Status: r.Status}
	}
	switch to {
	case RequestApproved, RequestRejected, RequestCancelled:
		return nil
	}
	return fmt.Errorf("invalid withdrawal resolution %q", to)
}
