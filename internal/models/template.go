package models

import "github.com/shopspring/decimal"

// TemplateType groups budget templates by audience.
type TemplateType string

const (
	TemplateTypeStudent  TemplateType = "student"
	TemplateTypeFamily   TemplateType = "family"
	TemplateTypeInvestor TemplateType = "investor"
	TemplateTypePersonal TemplateType = "personal"
	TemplateTypeCustom   TemplateType = "custom"
)

// Template is a reusable budget plan. Configuration holds a JSON document
// decoded into TemplateConfig.
type Template struct {
	Base
	UserID        *uint        `gorm:"index" json:"user_id,omitempty"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	Description   string       `gorm:"size:500" json:"description"`
	Type          TemplateType `gorm:"not null" json:"type"`
	Configuration string       `gorm:"type:text;not null" json:"configuration"`
	IsSystem      bool         `gorm:"default:false" json:"is_system"`
}

// TemplateConfig is the decoded form of Template.Configuration.
type TemplateConfig struct {
	Categories []TemplateCategory   `json:"categories,omitempty"`
	Budgets    []TemplateBudgetLine `json:"budgets"`
}

// TemplateCategory is a category a template creates when the user has no
// category of that name yet.
type TemplateCategory struct {
	Name  string       `json:"name"`
	Type  CategoryType `json:"type"`
	Color string       `json:"color,omitempty"`
}

// TemplateBudgetLine describes one budget a template creates. A zero
// amount leaves the ceiling for the user to fill in.
type TemplateBudgetLine struct {
	Category string          `json:"category"`
	Name     string          `json:"name,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Period   BudgetPeriod    `json:"period"`
}
