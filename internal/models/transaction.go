package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeExpense || t == TransactionTypeIncome
}

// RecurrencePattern is the schedule a recurring transaction repeats on.
type RecurrencePattern string

const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
)

// Valid reports whether p is one of the supported patterns.
func (p RecurrencePattern) Valid() bool {
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Next returns the occurrence that follows from, anchored on from's day.
func (p RecurrencePattern) Next(from time.Time) time.Time {
	return p.NextAnchored(from, from.Day())
}

// NextAnchored returns the occurrence that follows from in a series anchored
// on anchorDay. Monthly and yearly steps land on the anchor day, or on the
// last day of the month when the month is shorter.
func (p RecurrencePattern) NextAnchored(from time.Time, anchorDay int) time.Time {
	switch p {
	case RecurrenceDaily:
		return from.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		return from.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		return addMonths(from, 1, anchorDay)
	case RecurrenceYearly:
		return addMonths(from, 12, anchorDay)
	}
	return from
}

// addMonths moves t forward by months and sets the day to day, clamped to
// the length of the resulting month. Time of day is kept.
func addMonths(t time.Time, months, day int) time.Time {
	y, m, _ := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// Transaction represents a financial transaction in the system.
// Amount is always positive; Type decides whether it counts as income or expense.
type Transaction struct {
	Base
	UserID             uint               `gorm:"not null;index" json:"user_id"`
	CategoryID         uint               `gorm:"not null;index" json:"category_id"`
	GoalID             *uint              `gorm:"index" json:"goal_id,omitempty"`
	Amount             decimal.Decimal    `gorm:"type:decimal(18,2);not null" json:"amount"`
	Date               time.Time          `gorm:"not null;index" json:"date"`
	Description        string             `gorm:"size:200" json:"description"`
	Type               TransactionType    `gorm:"not null" json:"type"`
	IsRecurring        bool               `gorm:"default:false" json:"is_recurring"`
	RecurrencePattern  *RecurrencePattern `json:"recurrence_pattern,omitempty"`
	NextRecurrenceDate *time.Time         `gorm:"index" json:"next_recurrence_date,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
