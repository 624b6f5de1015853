package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/finance"
	"financemanager/internal/logger"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
	"financemanager/internal/repository"
	"financemanager/internal/validator"
)

const contributionHistoryLimit = 10

// goalService handles goal-related business logic.
type goalService struct {
	db          *gorm.DB
	store       repository.Store
	log         *zap.SugaredLogger
	concurrency int
	now         func() time.Time
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, store repository.Store, concurrency int) GoalServicer {
	return &goalService{
		db:          db,
		store:       store,
		log:         logger.Named("goal"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// CreateGoal creates an active goal with nothing saved yet.
func (s *goalService) CreateGoal(ctx context.Context, userID uint, input GoalInput) (*models.Goal, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if !validator.IsMoney(input.TargetAmount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported goal type")
	}

	start := input.StartDate
	if start.IsZero() {
		start = s.now()
	}
	start = finance.StartOfDay(start.UTC())
	target := finance.StartOfDay(input.TargetDate.UTC())
	if !start.Before(target) {
		return nil, apperrors.ErrInvalidDateRange
	}

	goal := &models.Goal{
		UserID:        userID,
		Name:          name,
		Description:   input.Description,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: decimal.Zero,
		StartDate:     start,
		TargetDate:    target,
		Status:        models.GoalStatusActive,
		Type:          input.Type,
	}
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals retrieves a paginated list of goals for a user
func (s *goalService) GetUserGoals(ctx context.Context, userID uint, page pagination.PageRequest, filter GoalListFilter) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Goal{}).Where("user_id = ?", userID)
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.Goal
	if err := base.Scopes(pagination.Paginate(page)).
		Order("target_date ASC").Order("id ASC").
		Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page, totalItems)
	return &result, nil
}

// GetGoalByID retrieves a goal by ID for a specific user
func (s *goalService) GetGoalByID(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	goal, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, apperrors.ErrGoalNotFound
	}
	return goal, nil
}

// UpdateGoal applies the patch as explicit column updates. A goal whose
// saved amount reaches its target is completed, and a completed goal that
// is still funded cannot be reopened.
func (s *goalService) UpdateGoal(ctx context.Context, userID, goalID uint, patch GoalPatch) (*models.Goal, error) {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name cannot be empty")
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	target := goal.TargetAmount
	if patch.TargetAmount != nil {
		if !validator.IsMoney(*patch.TargetAmount) {
			return nil, apperrors.ErrInvalidAmount
		}
		target = *patch.TargetAmount
		updates["target_amount"] = target
	}
	if patch.TargetDate != nil {
		targetDate := finance.StartOfDay(patch.TargetDate.UTC())
		if !goal.StartDate.Before(targetDate) {
			return nil, apperrors.ErrInvalidDateRange
		}
		updates["target_date"] = targetDate
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported goal type")
		}
		updates["type"] = *patch.Type
	}

	funded := goal.CurrentAmount.GreaterThanOrEqual(target)
	status := goal.Status
	if patch.Status != nil {
		status = *patch.Status
	}
	switch {
	case status == models.GoalStatusActive && funded:
		if goal.Status == models.GoalStatusCompleted && patch.Status != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a funded goal cannot be reopened")
		}
		status = models.GoalStatusCompleted
	case status == models.GoalStatusCompleted && !funded && goal.Status != models.GoalStatusCompleted:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal has not reached its target")
	}
	if status != goal.Status {
		updates["status"] = status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Goal{}).
			Where("id = ?", goal.ID).
			Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetGoalByID(ctx, userID, goal.ID)
}

// DeleteGoal soft-deletes a goal. Its contribution transactions stay booked.
func (s *goalService) DeleteGoal(ctx context.Context, userID, goalID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", goalID, userID).
		Delete(&models.Goal{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrGoalNotFound
	}
	return nil
}

func (s *goalService) today() time.Time {
	return s.now().UTC()
}

// GetGoalProgress calculates every progress figure of the goal as of today.
func (s *goalService) GetGoalProgress(ctx context.Context, userID, goalID uint) (*finance.GoalProgress, error) {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ContributionTransactions(ctx, userID, *goal, contributionHistoryLimit)
	if err != nil {
		return nil, err
	}

	progress := finance.NewGoalProgress(*goal, s.today(), history)
	return &progress, nil
}

func goalItems(goals []models.Goal) []batchItem[models.Goal] {
	items := make([]batchItem[models.Goal], len(goals))
	for i, g := range goals {
		items[i] = batchItem[models.Goal]{id: g.ID, item: g}
	}
	return items
}

// ProgressPercentages computes the progress of every goal independently.
func (s *goalService) ProgressPercentages(ctx context.Context, goals []models.Goal) map[uint]decimal.Decimal {
	return runBatch(ctx, s.log, s.concurrency, "progress_percentage", goalItems(goals),
		func(_ context.Context, g models.Goal) (decimal.Decimal, error) {
			return finance.ProgressPercentage(g), nil
		},
		func(models.Goal) decimal.Decimal { return decimal.Zero },
	)
}

// RemainingAmounts computes what is left to save for every goal.
func (s *goalService) RemainingAmounts(ctx context.Context, goals []models.Goal) map[uint]decimal.Decimal {
	return runBatch(ctx, s.log, s.concurrency, "remaining_amount", goalItems(goals),
		func(_ context.Context, g models.Goal) (decimal.Decimal, error) {
			return finance.RemainingGoalAmount(g), nil
		},
		func(g models.Goal) decimal.Decimal { return g.TargetAmount },
	)
}

// RemainingDays computes the days left until each goal's target date.
func (s *goalService) RemainingDays(ctx context.Context, goals []models.Goal) map[uint]int {
	today := s.today()
	return runBatch(ctx, s.log, s.concurrency, "remaining_days", goalItems(goals),
		func(_ context.Context, g models.Goal) (int, error) {
			return finance.RemainingDays(g, today), nil
		},
		func(models.Goal) int { return 0 },
	)
}

// RecordContribution adds amount to the goal and books it as an expense in
// one atomic unit. The returned goal carries the new current amount and
// status.
func (s *goalService) RecordContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
	if !validator.IsMoney(amount) {
		return nil, apperrors.ErrInvalidAmount
	}

	goal, contribution, err := s.store.RecordContribution(ctx, userID, goalID, amount, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.log.Infow("contribution recorded",
		"user_id", userID,
		"goal_id", goal.ID,
		"transaction_id", contribution.ID,
		"amount", amount.String(),
		"status", goal.Status,
	)
	return goal, nil
}

// ContributionHistory returns the goal's ten most recent contributions.
func (s *goalService) ContributionHistory(ctx context.Context, userID, goalID uint) ([]models.Transaction, error) {
	goal, err := s.GetGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	return s.store.ContributionTransactions(ctx, userID, *goal, contributionHistoryLimit)
}
