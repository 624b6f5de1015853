package finance

import (
	"testing"
	"time"

	"financemanager/internal/models"
)

func goalFixture(target, current string, targetDate time.Time) models.Goal {
	return models.Goal{
		Name:          "Emergency fund",
		TargetAmount:  dec(target),
		CurrentAmount: dec(current),
		StartDate:     day(2024, 1, 1),
		TargetDate:    targetDate,
		Status:        models.GoalStatusActive,
		Type:          models.GoalTypeSaving,
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		current string
		want    string
	}{
		{"quarter", "1200.00", "300.00", "25"},
		{"overfunded", "1000", "1030", "103"},
		{"rounds", "3", "1", "33.33"},
		{"zero_target", "0", "50", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goalFixture(tt.target, tt.current, day(2025, 1, 1))
			assertDecimal(t, "progress", ProgressPercentage(g), tt.want)
		})
	}
}

func TestRemainingGoalAmount(t *testing.T) {
	assertDecimal(t, "remaining", RemainingGoalAmount(goalFixture("1200.00", "300.00", day(2025, 1, 1))), "900.00")
	assertDecimal(t, "overfunded", RemainingGoalAmount(goalFixture("1000", "1030", day(2025, 1, 1))), "-30")
}

func TestRemainingDays(t *testing.T) {
	today := time.Date(2024, 6, 15, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"due_today", day(2024, 6, 15), 0},
		{"past_due", day(2024, 6, 1), 0},
		{"tomorrow", day(2024, 6, 16), 1},
		{"ninety_days", today.AddDate(0, 0, 90), 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingDays(goalFixture("100", "0", tt.target), today)
			if got != tt.want {
				t.Errorf("RemainingDays = %d, want %d", got, tt.want)
			}
			if got < 0 {
				t.Error("remaining days must never be negative")
			}
		})
	}
}

func TestRequiredMonthlyContribution(t *testing.T) {
	today := day(2024, 6, 15)

	tests := []struct {
		name    string
		target  string
		current string
		due     time.Time
		want    string
	}{
		{"three_months_left", "1200.00", "300.00", today.AddDate(0, 0, 90), "300"},
		{"rounds_up", "1000", "0", today.AddDate(0, 0, 91), "330"},
		{"due_today_needs_everything", "1000", "250.50", today, "750"},
		{"past_due_needs_everything", "1000", "250.10", today.AddDate(0, 0, -40), "750"},
		{"under_a_month_uses_one_month", "500", "0", today.AddDate(0, 0, 20), "500"},
		{"already_reached", "1000", "1000", today.AddDate(0, 0, 90), "0"},
		{"overfunded", "1000", "1030", today.AddDate(0, 0, 90), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goalFixture(tt.target, tt.current, tt.due)
			assertDecimal(t, "required", RequiredMonthlyContribution(g, today), tt.want)
		})
	}
}

func TestContributionNote(t *testing.T) {
	if got := ContributionNote("Vacation"); got != "Contribution to goal: Vacation" {
		t.Errorf("ContributionNote = %q", got)
	}
}

func TestNewGoalProgress(t *testing.T) {
	today := day(2024, 6, 15)
	g := goalFixture("1200.00", "300.00", today.AddDate(0, 0, 90))
	g.ID = 4

	p := NewGoalProgress(g, today, nil)
	if p.GoalID != 4 || p.RemainingDays != 90 {
		t.Errorf("unexpected progress: %+v", p)
	}
	assertDecimal(t, "progress", p.ProgressPercentage, "25")
	assertDecimal(t, "remaining", p.RemainingAmount, "900.00")
	assertDecimal(t, "required", p.RequiredMonthlyContribution, "300")
	if p.ContributionHistory == nil {
		t.Error("expected non-nil history")
	}
}
