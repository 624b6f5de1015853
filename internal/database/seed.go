package database

import (
	"encoding/json"
	"fmt"

	"financemanager/internal/models"

	"gorm.io/gorm"
)

// systemCategories are visible to every user and cannot be edited.
var systemCategories = []models.Category{
	{Name: "Housing", Description: "Rent, mortgage and utilities", ColorCode: "#FF5733", Type: models.CategoryTypeExpense},
	{Name: "Food", Description: "Groceries and dining", ColorCode: "#33FF57", Type: models.CategoryTypeExpense},
	{Name: "Transportation", Description: "Fuel, transit and vehicle costs", ColorCode: "#3357FF", Type: models.CategoryTypeExpense},
	{Name: "Income", Description: "Salary and other earnings", ColorCode: "#57FF33", Type: models.CategoryTypeIncome},
	{Name: models.GoalContributionCategory, Description: "Money set aside towards goals", ColorCode: "#8E44AD", Type: models.CategoryTypeExpense},
}

// SeedSystemCategories inserts any missing system category. Existing rows
// are left untouched.
func SeedSystemCategories(db *gorm.DB) error {
	for _, c := range systemCategories {
		c.IsSystem = true
		var existing models.Category
		err := db.Where("name = ? AND is_system = ?", c.Name, true).
			Attrs(c).
			FirstOrCreate(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// systemTemplates are the starter plans every user can apply.
var systemTemplates = []struct {
	template models.Template
	config   models.TemplateConfig
}{
	{
		template: models.Template{Name: "Student Budget", Description: "Template for students with common expense categories", Type: models.TemplateTypeStudent},
		config: models.TemplateConfig{
			Categories: []models.TemplateCategory{
				{Name: "Tuition", Type: models.CategoryTypeExpense, Color: "#FF5733"},
				{Name: "Books", Type: models.CategoryTypeExpense, Color: "#33FF57"},
			},
			Budgets: []models.TemplateBudgetLine{
				{Category: "Housing", Period: models.BudgetPeriodMonthly},
				{Category: "Food", Period: models.BudgetPeriodMonthly},
			},
		},
	},
	{
		template: models.Template{Name: "Family Budget", Description: "Template for families with household expenses", Type: models.TemplateTypeFamily},
		config: models.TemplateConfig{
			Categories: []models.TemplateCategory{
				{Name: "Mortgage", Type: models.CategoryTypeExpense, Color: "#FF5733"},
				{Name: "Groceries", Type: models.CategoryTypeExpense, Color: "#33FF57"},
				{Name: "Utilities", Type: models.CategoryTypeExpense, Color: "#3357FF"},
				{Name: "Education", Type: models.CategoryTypeExpense, Color: "#FF33F5"},
			},
			Budgets: []models.TemplateBudgetLine{
				{Category: "Groceries", Period: models.BudgetPeriodMonthly},
				{Category: "Utilities", Period: models.BudgetPeriodMonthly},
			},
		},
	},
	{
		template: models.Template{Name: "Investor Portfolio", Description: "Template for investment tracking", Type: models.TemplateTypeInvestor},
		config: models.TemplateConfig{
			Categories: []models.TemplateCategory{
				{Name: "Stocks", Type: models.CategoryTypeInvestment, Color: "#FF5733"},
				{Name: "Bonds", Type: models.CategoryTypeInvestment, Color: "#33FF57"},
				{Name: "Real Estate", Type: models.CategoryTypeInvestment, Color: "#3357FF"},
				{Name: "Dividends", Type: models.CategoryTypeIncome, Color: "#FF33F5"},
			},
		},
	},
}

// SeedSystemTemplates inserts any missing system template.
func SeedSystemTemplates(db *gorm.DB) error {
	for _, seed := range systemTemplates {
		data, err := json.Marshal(seed.config)
		if err != nil {
			return fmt.Errorf("failed to encode template %q: %w", seed.template.Name, err)
		}

		t := seed.template
		t.IsSystem = true
		t.Configuration = string(data)

		var existing models.Template
		err = db.Where("name = ? AND is_system = ?", t.Name, true).
			Attrs(t).
			FirstOrCreate(&existing).Error
		if err != nil {
			return fmt.Errorf("failed to seed template %q: %w", t.Name, err)
		}
	}
	return nil
}

// Seed inserts the system categories and templates.
func Seed(db *gorm.DB) error {
	if err := SeedSystemCategories(db); err != nil {
		return err
	}
	return SeedSystemTemplates(db)
}
