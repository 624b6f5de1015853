package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeExpense    CategoryType = "expense"
	CategoryTypeIncome     CategoryType = "income"
	CategoryTypeInvestment CategoryType = "investment"
)

// GoalContributionCategory is the system category that goal contributions
// are booked against.
const GoalContributionCategory = "Goal Contributions"

// Category represents a transaction category. A nil UserID marks a
// system-wide category.
type Category struct {
	Base
	UserID      *uint        `gorm:"index" json:"user_id,omitempty"`
	Name        string       `gorm:"size:50;not null" json:"name"`
	Description string       `gorm:"size:200" json:"description"`
	ColorCode   string       `gorm:"size:7" json:"color_code"`
	Type        CategoryType `gorm:"not null" json:"type"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`
}

// VisibleTo reports whether the category can be used by the given user.
func (c *Category) VisibleTo(userID uint) bool {
	return c.IsSystem || (c.UserID != nil && *c.UserID == userID)
}

// Valid reports whether t is one of the supported category types.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTypeExpense, CategoryTypeIncome, CategoryTypeInvestment:
		return true
	}
	return false
}
