package finance

import (
	"testing"
	"time"

	"financemanager/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func txn(id uint, date time.Time, typ models.TransactionType, amount string, category *models.Category) models.Transaction {
	tx := models.Transaction{
		UserID:   1,
		Date:     date,
		Type:     typ,
		Amount:   dec(amount),
		Category: category,
	}
	tx.ID = id
	if category != nil {
		tx.CategoryID = category.ID
	}
	return tx
}

func category(id uint, name string) *models.Category {
	c := &models.Category{Name: name, Type: models.CategoryTypeExpense}
	c.ID = id
	return c
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
