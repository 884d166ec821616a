package domain

import (
	"errors"
	"fmt"
	"time"
)

// MemberStatus is the registration queue state plus the suspended flag for
// existing members.
type MemberStatus string

const (
	MemberPending   MemberStatus = "pending"
	MemberApproved  MemberStatus = "approved"
	MemberRejected  MemberStatus = "rejected"
	MemberSuspended MemberStatus = "suspended"
)

var memberTransitions = map[MemberStatus][]MemberStatus{
	MemberPending:   {MemberApproved, MemberRejected},
	MemberApproved:  {MemberSuspended},
	MemberSuspended: {MemberApproved},
}

// CanTransition reports whether from -> to is a legal membership change.
func CanTransition(from, to MemberStatus) bool {
	for _, next := range memberTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrReasonRequired = errors.New("a reason is required to reject")
)

// TransitionError reports an illegal membership state change.
type TransitionError struct {
	From MemberStatus
	To   MemberStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal member transition %s -> %s", e.From, e.To)
}

// Member is one registered (or registering) cooperative member.
type Member struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"`
	FirstName       string       `gorm:"type:varchar(64);not null"`
	LastName        string       `gorm:"type:varchar(64);not null"`
	Email           string       `gorm:"uniqueIndex;type:varchar(128);not null"`
	Phone           string       `gorm:"type:varchar(32)"`
	MemberNumber    string       `gorm:"uniqueIndex;type:varchar(32)"` // assigned at approval
	Status          MemberStatus `gorm:"type:varchar(16);not null;default:'pending'"`
	ApprovedBy      string       `gorm:"type:varchar(64)"`
	RejectionReason string       `gorm:"type:text"`
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Member) TableName() string {
	return "coop.members"
}
