package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// GoalType classifies what a goal is saving towards.
type GoalType string

const (
	GoalTypeSaving     GoalType = "saving"
	GoalTypeDebt       GoalType = "debt"
	GoalTypeInvestment GoalType = "investment"
	GoalTypeOther      GoalType = "other"
)

// Goal is a monetary target with a deadline. CurrentAmount only grows
// through contributions.
type Goal struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"size:500" json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_amount"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	TargetDate    time.Time       `gorm:"not null" json:"target_date"`
	Status        GoalStatus      `gorm:"not null;index" json:"status"`
	Type          GoalType        `gorm:"not null" json:"type"`
}

// Valid reports whether t is one of the supported goal types.
func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeSaving, GoalTypeDebt, GoalTypeInvestment, GoalTypeOther:
		return true
	}
	return false
}
