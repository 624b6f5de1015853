package finance

import (
	"time"

	"financemanager/internal/models"

	"github.com/shopspring/decimal"
)

const (
	contributionPrefix = "Contribution to goal: "
	daysPerMonth       = 30
)

// GoalProgress bundles the derived figures for one goal.
type GoalProgress struct {
	GoalID                      uint                 `json:"goal_id"`
	ProgressPercentage          decimal.Decimal      `json:"progress_percentage"`
	RemainingAmount             decimal.Decimal      `json:"remaining_amount"`
	RemainingDays               int                  `json:"remaining_days"`
	RequiredMonthlyContribution decimal.Decimal      `json:"required_monthly_contribution"`
	ContributionHistory         []models.Transaction `json:"contribution_history"`
}

// ProgressPercentage is current/target*100 rounded to two decimals, 0 when
// the target is not positive.
func ProgressPercentage(g models.Goal) decimal.Decimal {
	return Percentage(g.CurrentAmount, g.TargetAmount)
}

// RemainingGoalAmount is target minus current. It goes negative once a goal
// is overfunded.
func RemainingGoalAmount(g models.Goal) decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// RemainingDays counts whole days from the start of today to the end of the
// target date. Past-due goals and goals due today report 0.
func RemainingDays(g models.Goal, today time.Time) int {
	days := DaysBetween(today, g.TargetDate)
	if days < 0 {
		return 0
	}
	return days
}

// RequiredMonthlyContribution spreads the remaining amount over the months
// left, using 30-day months and never fewer than one month, and rounds up to
// a whole unit. Nothing is required once the target has been reached.
func RequiredMonthlyContribution(g models.Goal, today time.Time) decimal.Decimal {
	remaining := RemainingGoalAmount(g)
	if !remaining.IsPositive() {
		return decimal.Zero
	}

	days := RemainingDays(g, today)
	if days <= daysPerMonth {
		return remaining.Ceil()
	}
	// remaining / (days/30) without the intermediate rounding of days/30
	return remaining.Mul(decimal.NewFromInt(daysPerMonth)).
		Div(decimal.NewFromInt(int64(days))).
		Ceil()
}

// ContributionNote is the description attached to every contribution
// transaction of the named goal.
func ContributionNote(goalName string) string {
	return contributionPrefix + goalName
}

// NewGoalProgress computes every figure for g as of today.
func NewGoalProgress(g models.Goal, today time.Time, history []models.Transaction) GoalProgress {
	if history == nil {
		history = []models.Transaction{}
	}
	return GoalProgress{
		GoalID:                      g.ID,
		ProgressPercentage:          ProgressPercentage(g),
		RemainingAmount:             RemainingGoalAmount(g),
		RemainingDays:               RemainingDays(g, today),
		RequiredMonthlyContribution: RequiredMonthlyContribution(g, today),
		ContributionHistory:         history,
	}
}
