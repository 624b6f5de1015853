package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodWeekly  BudgetPeriod = "weekly"
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget is a spending ceiling for one category over a date window.
type Budget struct {
	Base
	UserID          uint             `gorm:"not null;index" json:"user_id"`
	CategoryID      uint             `gorm:"not null;index" json:"category_id"`
	Name            string           `gorm:"size:100;not null" json:"name"`
	Amount          decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	StartDate       time.Time        `gorm:"not null" json:"start_date"`
	EndDate         time.Time        `gorm:"not null" json:"end_date"`
	Period          BudgetPeriod     `gorm:"not null" json:"period"`
	CurrentSpending *decimal.Decimal `gorm:"type:decimal(18,2)" json:"current_spending,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Valid reports whether p is one of the supported periods.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodWeekly, BudgetPeriodMonthly, BudgetPeriodYearly:
		return true
	}
	return false
}

// End returns the last day of a period that begins on start: the day before
// the next period starts. Monthly and yearly periods clamp at month end, so
// a period from Jan 31 runs to the day before the last of February.
func (p BudgetPeriod) End(start time.Time) time.Time {
	switch p {
	case BudgetPeriodWeekly:
		return start.AddDate(0, 0, 6)
	case BudgetPeriodYearly:
		return addMonths(start, 12, start.Day()).AddDate(0, 0, -1)
	default:
		return addMonths(start, 1, start.Day()).AddDate(0, 0, -1)
	}
}
