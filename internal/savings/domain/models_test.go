package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAutoSaveDue(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	plan := &Plan{
		Status:         PlanActive,
		Frequency:      FrequencyWeekly,
		AutoSaveAmount: decimal.NewFromInt(100),
	}

	// never collected yet
	assert.True(t, plan.AutoSaveDue(now))

	recent := now.Add(-3 * 24 * time.Hour)
	plan.LastAutoSaveAt = &recent
	assert.False(t, plan.AutoSaveDue(now))

	old := now.Add(-8 * 24 * time.Hour)
	plan.LastAutoSaveAt = &old
	assert.True(t, plan.AutoSaveDue(now))

	plan.Frequency = FrequencyManual
	assert.False(t, plan.AutoSaveDue(now))

	plan.Frequency = FrequencyWeekly
	plan.AutoSaveAmount = decimal.Zero
	assert.False(t, plan.AutoSaveDue(now))

	plan.AutoSaveAmount = decimal.NewFromInt(100)
	plan.Status = PlanCompleted
	assert.False(t, plan.AutoSaveDue(now))
}

func TestPlanTransitions(t *testing.T) {
	assert.True(t, CanTransition(PlanActive, PlanCompleted))
	assert.True(t, CanTransition(PlanActive, PlanLiquidated))
	assert.True(t, CanTransition(PlanCompleted, PlanLiquidated))
	assert.True(t, CanTransition(PlanDefaulted, PlanLiquidated))

	assert.False(t, CanTransition(PlanLiquidated, PlanActive))
	assert.False(t, CanTransition(PlanCompleted, PlanActive))
	assert.False(t, CanTransition(PlanLiquidated, PlanLiquidated))
}

func TestFrequencyInterval(t *testing.T) {
	assert.Equal(t, 24*time.Hour, FrequencyDaily.Interval())
	assert.Equal(t, 7*24*time.Hour, FrequencyWeekly.Interval())
	assert.Equal(t, time.Duration(0), FrequencyManual.Interval())
	assert.False(t, Frequency("fortnightly").IsValid())
}
