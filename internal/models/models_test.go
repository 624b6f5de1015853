package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBudgetPeriodEnd(t *testing.T) {
	tests := []struct {
		period BudgetPeriod
		start  time.Time
		want   time.Time
	}{
		{BudgetPeriodWeekly, date(2026, 1, 5), date(2026, 1, 11)},
		{BudgetPeriodMonthly, date(2026, 1, 1), date(2026, 1, 31)},
		{BudgetPeriodMonthly, date(2026, 2, 1), date(2026, 2, 28)},
		{BudgetPeriodMonthly, date(2026, 3, 15), date(2026, 4, 14)},
		{BudgetPeriodYearly, date(2026, 1, 1), date(2026, 12, 31)},
		{BudgetPeriodMonthly, date(2024, 1, 31), date(2024, 2, 28)},
		{BudgetPeriodMonthly, date(2026, 1, 31), date(2026, 2, 27)},
		{BudgetPeriodMonthly, date(2026, 3, 31), date(2026, 4, 29)},
		{BudgetPeriodYearly, date(2024, 2, 29), date(2025, 2, 27)},
	}
	for _, tt := range tests {
		if got := tt.period.End(tt.start); !got.Equal(tt.want) {
			t.Errorf("%s from %s: expected %s, got %s", tt.period, tt.start.Format(time.DateOnly),
				tt.want.Format(time.DateOnly), got.Format(time.DateOnly))
		}
	}
}

func TestRecurrencePatternNext(t *testing.T) {
	from := date(2026, 1, 15)
	tests := map[RecurrencePattern]time.Time{
		RecurrenceDaily:   date(2026, 1, 16),
		RecurrenceWeekly:  date(2026, 1, 22),
		RecurrenceMonthly: date(2026, 2, 15),
		RecurrenceYearly:  date(2027, 1, 15),
	}
	for pattern, want := range tests {
		if got := pattern.Next(from); !got.Equal(want) {
			t.Errorf("%s: expected %s, got %s", pattern, want, got)
		}
	}
	if RecurrencePattern("hourly").Valid() {
		t.Error("expected unknown pattern to be invalid")
	}
}

func TestRecurrencePatternMonthEnd(t *testing.T) {
	tests := []struct {
		name    string
		pattern RecurrencePattern
		from    time.Time
		anchor  int
		want    time.Time
	}{
		{"jan_31_clamps_to_leap_feb", RecurrenceMonthly, date(2024, 1, 31), 31, date(2024, 2, 29)},
		{"jan_31_clamps_to_feb", RecurrenceMonthly, date(2026, 1, 31), 31, date(2026, 2, 28)},
		{"anchor_restores_31st", RecurrenceMonthly, date(2024, 2, 29), 31, date(2024, 3, 31)},
		{"anchor_clamps_to_30th", RecurrenceMonthly, date(2024, 3, 31), 31, date(2024, 4, 30)},
		{"december_rolls_year", RecurrenceMonthly, date(2024, 12, 31), 31, date(2025, 1, 31)},
		{"leap_day_yearly", RecurrenceYearly, date(2024, 2, 29), 29, date(2025, 2, 28)},
		{"leap_day_anchor_returns", RecurrenceYearly, date(2027, 2, 28), 29, date(2028, 2, 29)},
		{"daily_ignores_anchor", RecurrenceDaily, date(2024, 2, 28), 31, date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pattern.NextAnchored(tt.from, tt.anchor); !got.Equal(tt.want) {
				t.Errorf("expected %s, got %s", tt.want.Format(time.DateOnly), got.Format(time.DateOnly))
			}
		})
	}

	// a series walked from the 31st never drifts onto the 2nd
	got := date(2024, 1, 31)
	for _, want := range []time.Time{date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30), date(2024, 5, 31)} {
		got = RecurrenceMonthly.NextAnchored(got, 31)
		if !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want.Format(time.DateOnly), got.Format(time.DateOnly))
		}
	}

	withTime := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	if got := RecurrenceMonthly.Next(withTime); !got.Equal(time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("expected time of day kept, got %s", got)
	}
}

func TestCategoryVisibleTo(t *testing.T) {
	owner := uint(1)
	private := Category{UserID: &owner}
	system := Category{IsSystem: true}

	if !private.VisibleTo(1) || private.VisibleTo(2) {
		t.Error("private category must be visible only to its owner")
	}
	if !system.VisibleTo(2) {
		t.Error("system category must be visible to everyone")
	}
}

func TestEnumValidity(t *testing.T) {
	if !GoalTypeDebt.Valid() || GoalType("holiday").Valid() {
		t.Error("unexpected goal type validity")
	}
	if !CategoryTypeInvestment.Valid() || CategoryType("transfer").Valid() {
		t.Error("unexpected category type validity")
	}
	if !TransactionTypeIncome.Valid() || TransactionType("transfer").Valid() {
		t.Error("unexpected transaction type validity")
	}
	if !BudgetPeriodYearly.Valid() || BudgetPeriod("daily").Valid() {
		t.Error("unexpected budget period validity")
	}
}
