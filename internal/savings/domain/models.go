package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a plan auto-saves.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyManual  Frequency = "manual"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyManual:
		return true
	}
	return false
}

// Interval is the gap between auto-save runs; zero for manual plans.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

// PlanStatus is the savings plan lifecycle state.
type PlanStatus string

const (
	PlanActive     PlanStatus = "active"
	PlanCompleted  PlanStatus = "completed"
	PlanDefaulted  PlanStatus = "defaulted"
	PlanLiquidated PlanStatus = "liquidated"
)

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanActive:    {PlanCompleted, PlanDefaulted, PlanLiquidated},
	PlanCompleted: {PlanLiquidated},
	PlanDefaulted: {PlanLiquidated},
}

// CanTransition reports whether from -> to is a legal plan state change.
func CanTransition(from, to PlanStatus) bool {
	for _, next := range planTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrProductNotFound = errors.New("savings product not found")
	ErrPlanNotFound    = errors.New("savings plan not found")
	ErrPlanNotActive   = errors.New("savings plan is not active")
)

// TransitionError reports an illegal plan state change.
type TransitionError struct {
	From PlanStatus
	To   PlanStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal savings plan transition %s -> %s", e.From, e.To)
}

// Product is an admin-defined savings offering that plans are built on.
type Product struct {
	ID               int64           `gorm:"primaryKey;autoIncrement"`
	Name             string          `gorm:"uniqueIndex;type:varchar(64);not null"`
	Description      string          `gorm:"type:text"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(10,4);not null"` // % per annum
	MinDeposit       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	LockPeriodMonths int             `gorm:"not null;default:0"`
	Active           bool            `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Product) TableName() string {
	return "coop.savings_products"
}

// Plan is one member's instance of a product. It owns exactly one
// savings_plan account; that account holds the plan's money.
type Plan struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	UserID         int64           `gorm:"not null;index"`
	ProductID      int64           `gorm:"not null;index"`
	AccountID      int64           `gorm:"uniqueIndex;not null"`
	TargetAmount   decimal.Decimal `gorm:"type:decimal(20,4)"` // zero means open-ended
	DurationMonths int             `gorm:"not null"`
	MaturityDate   time.Time       `gorm:"not null"`
	AutoSaveAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Frequency      Frequency       `gorm:"type:varchar(16);not null;default:'manual'"`
	LastAutoSaveAt *time.Time
	Status         PlanStatus `gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Plan) TableName() string {
	return "coop.savings_plans"
}

// AutoSaveDue reports whether the plan's next scheduled contribution has
// fallen due at asOf.
func (p *Plan) AutoSaveDue(asOf time.Time) bool {
	if p.Status != PlanActive || p.Frequency == FrequencyManual || !p.AutoSaveAmount.IsPositive() {
		return false
	}
	if p.LastAutoSaveAt == nil {
		return true
	}
	return asOf.Sub(*p.LastAutoSaveAt) >= p.Frequency.Interval()
}
