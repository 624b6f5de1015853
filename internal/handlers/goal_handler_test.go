package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/finance"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
	"financemanager/internal/services"
)

// --- mock goal service ---

type mockGoalService struct {
	createGoalFn          func(userID uint, input services.GoalInput) (*models.Goal, error)
	getUserGoalsFn        func(userID uint, page pagination.PageRequest, filter services.GoalListFilter) (*pagination.PageResponse[models.Goal], error)
	getGoalByIDFn         func(userID, goalID uint) (*models.Goal, error)
	updateGoalFn          func(userID, goalID uint, patch services.GoalPatch) (*models.Goal, error)
	deleteGoalFn          func(userID, goalID uint) error
	getGoalProgressFn     func(userID, goalID uint) (*finance.GoalProgress, error)
	recordContributionFn  func(userID, goalID uint, amount decimal.Decimal) (*models.Goal, error)
	contributionHistoryFn func(userID, goalID uint) ([]models.Transaction, error)
}

var _ services.GoalServicer = (*mockGoalService)(nil)

func (m *mockGoalService) CreateGoal(_ context.Context, userID uint, input services.GoalInput) (*models.Goal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(userID, input)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) GetUserGoals(_ context.Context, userID uint, page pagination.PageRequest, filter services.GoalListFilter) (*pagination.PageResponse[models.Goal], error) {
	if m.getUserGoalsFn != nil {
		return m.getUserGoalsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Goal{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
	return &resp, nil
}

func (m *mockGoalService) GetGoalByID(_ context.Context, userID, goalID uint) (*models.Goal, error) {
	if m.getGoalByIDFn != nil {
		return m.getGoalByIDFn(userID, goalID)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) UpdateGoal(_ context.Context, userID, goalID uint, patch services.GoalPatch) (*models.Goal, error) {
	if m.updateGoalFn != nil {
		return m.updateGoalFn(userID, goalID, patch)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) DeleteGoal(_ context.Context, userID, goalID uint) error {
	if m.deleteGoalFn != nil {
		return m.deleteGoalFn(userID, goalID)
	}
	return nil
}

func (m *mockGoalService) GetGoalProgress(_ context.Context, userID, goalID uint) (*finance.GoalProgress, error) {
	if m.getGoalProgressFn != nil {
		return m.getGoalProgressFn(userID, goalID)
	}
	return &finance.GoalProgress{}, nil
}

func (m *mockGoalService) ProgressPercentages(_ context.Context, goals []models.Goal) map[uint]decimal.Decimal {
	out := make(map[uint]decimal.Decimal, len(goals))
	for _, g := range goals {
		out[g.ID] = finance.ProgressPercentage(g)
	}
	return out
}

func (m *mockGoalService) RemainingAmounts(_ context.Context, goals []models.Goal) map[uint]decimal.Decimal {
	out := make(map[uint]decimal.Decimal, len(goals))
	for _, g := range goals {
		out[g.ID] = finance.RemainingGoalAmount(g)
	}
	return out
}

func (m *mockGoalService) RemainingDays(_ context.Context, goals []models.Goal) map[uint]int {
	out := make(map[uint]int, len(goals))
	for _, g := range goals {
		out[g.ID] = 30
	}
	return out
}

func (m *mockGoalService) RecordContribution(_ context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
	if m.recordContributionFn != nil {
		return m.recordContributionFn(userID, goalID, amount)
	}
	return &models.Goal{}, nil
}

func (m *mockGoalService) ContributionHistory(_ context.Context, userID, goalID uint) ([]models.Transaction, error) {
	if m.contributionHistoryFn != nil {
		return m.contributionHistoryFn(userID, goalID)
	}
	return []models.Transaction{}, nil
}

func setupGoalRouter(handler *GoalHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/goals", handler.CreateGoal)
	auth.GET("/goals", handler.GetGoals)
	auth.GET("/goals/:id", handler.GetGoal)
	auth.PUT("/goals/:id", handler.UpdateGoal)
	auth.DELETE("/goals/:id", handler.DeleteGoal)
	auth.GET("/goals/:id/progress", handler.GetGoalProgress)
	auth.POST("/goals/:id/contributions", handler.Contribute)
	auth.GET("/goals/:id/contributions", handler.GetContributions)
	return r
}

func TestGoalHandler_CreateGoal(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		goalSvc := &mockGoalService{
			createGoalFn: func(userID uint, input services.GoalInput) (*models.Goal, error) {
				if !input.StartDate.IsZero() {
					t.Errorf("expected the service to default the start date, got %v", input.StartDate)
				}
				if !input.TargetDate.Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected target date %v", input.TargetDate)
				}
				return &models.Goal{
					Base:         models.Base{ID: 4},
					UserID:       userID,
					Name:         input.Name,
					TargetAmount: input.TargetAmount,
					Status:       models.GoalStatusActive,
					Type:         input.Type,
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals",
			`{"name":"Vacation","target_amount":"2000","target_date":"2025-06-30","type":"saving"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		goal := parseJSON(t, rec)["goal"].(map[string]interface{})
		if goal["status"] != "active" {
			t.Errorf("expected active, got %v", goal["status"])
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals",
			`{"name":"Vacation","target_amount":"2000","target_date":"2025-06-30","type":"lottery"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing target date", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals", `{"name":"Vacation","target_amount":"2000","type":"saving"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 when target precedes start", func(t *testing.T) {
		goalSvc := &mockGoalService{
			createGoalFn: func(uint, services.GoalInput) (*models.Goal, error) {
				return nil, apperrors.ErrInvalidDateRange
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals",
			`{"name":"Vacation","target_amount":"2000","start_date":"2025-07-01","target_date":"2025-06-30","type":"saving"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DATE_RANGE")
	})
}

func TestGoalHandler_GetGoals(t *testing.T) {
	t.Run("returns 200 with progress maps", func(t *testing.T) {
		goalSvc := &mockGoalService{
			getUserGoalsFn: func(_ uint, _ pagination.PageRequest, _ services.GoalListFilter) (*pagination.PageResponse[models.Goal], error) {
				goals := []models.Goal{{
					Base:          models.Base{ID: 2},
					TargetAmount:  decimal.NewFromInt(1000),
					CurrentAmount: decimal.NewFromInt(250),
				}}
				resp := pagination.NewPageResponse(goals, pagination.PageRequest{Page: 1, PageSize: 20}, 1)
				return &resp, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/goals", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if got := result["progress_percentages"].(map[string]interface{})["2"]; got != "25" {
			t.Errorf("expected 25%%, got %v", got)
		}
		if got := result["remaining_amounts"].(map[string]interface{})["2"]; got != "750" {
			t.Errorf("expected 750 remaining, got %v", got)
		}
		if got := result["remaining_days"].(map[string]interface{})["2"]; got != float64(30) {
			t.Errorf("expected 30 days, got %v", got)
		}
	})

	t.Run("passes filter params to service", func(t *testing.T) {
		var got services.GoalListFilter
		goalSvc := &mockGoalService{
			getUserGoalsFn: func(_ uint, _ pagination.PageRequest, filter services.GoalListFilter) (*pagination.PageResponse[models.Goal], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Goal{}, pagination.PageRequest{Page: 1, PageSize: 20}, 0)
				return &resp, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/goals?type=debt&status=completed", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.Type == nil || *got.Type != models.GoalTypeDebt {
			t.Errorf("expected debt filter, got %v", got.Type)
		}
		if got.Status == nil || *got.Status != models.GoalStatusCompleted {
			t.Errorf("expected completed filter, got %v", got.Status)
		}
	})

	t.Run("returns 400 on invalid status", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/goals?status=paused", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGoalHandler_UpdateGoal(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		goalSvc := &mockGoalService{
			updateGoalFn: func(_, goalID uint, patch services.GoalPatch) (*models.Goal, error) {
				if patch.Status == nil || *patch.Status != models.GoalStatusAbandoned {
					t.Errorf("expected abandoned status, got %v", patch.Status)
				}
				return &models.Goal{Base: models.Base{ID: goalID}, Status: *patch.Status}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/goals/1", `{"status":"abandoned"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on invalid status", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/goals/1", `{"status":"paused"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		goalSvc := &mockGoalService{
			updateGoalFn: func(_, _ uint, _ services.GoalPatch) (*models.Goal, error) {
				return nil, apperrors.ErrGoalNotFound
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/goals/99", `{"name":"Renamed"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "GOAL_NOT_FOUND")
	})
}

func TestGoalHandler_DeleteGoal(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/goals/1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestGoalHandler_GetGoalProgress(t *testing.T) {
	t.Run("returns 200 with progress", func(t *testing.T) {
		goalSvc := &mockGoalService{
			getGoalProgressFn: func(_, goalID uint) (*finance.GoalProgress, error) {
				return &finance.GoalProgress{
					GoalID:                      goalID,
					ProgressPercentage:          decimal.NewFromInt(40),
					RemainingAmount:             decimal.NewFromInt(1200),
					RemainingDays:               90,
					RequiredMonthlyContribution: decimal.NewFromInt(400),
					ContributionHistory:         []models.Transaction{},
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/goals/3/progress", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		progress := parseJSON(t, rec)["progress"].(map[string]interface{})
		if progress["required_monthly_contribution"] != "400" {
			t.Errorf("expected 400 per month, got %v", progress["required_monthly_contribution"])
		}
	})
}

func TestGoalHandler_Contribute(t *testing.T) {
	t.Run("returns 200 with the updated goal", func(t *testing.T) {
		audit := &mockAuditService{}
		goalSvc := &mockGoalService{
			recordContributionFn: func(_, goalID uint, amount decimal.Decimal) (*models.Goal, error) {
				if !amount.Equal(decimal.NewFromInt(50)) {
					t.Errorf("expected 50, got %s", amount)
				}
				return &models.Goal{
					Base:          models.Base{ID: goalID},
					TargetAmount:  decimal.NewFromInt(1000),
					CurrentAmount: decimal.NewFromInt(1030),
					Status:        models.GoalStatusCompleted,
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, audit))

		rec := doRequest(r, "POST", "/goals/1/contributions", `{"amount":"50"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		goal := parseJSON(t, rec)["goal"].(map[string]interface{})
		if goal["status"] != "completed" {
			t.Errorf("expected completed, got %v", goal["status"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionContribute {
			t.Errorf("expected a contribute audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 on negative amount", func(t *testing.T) {
		r := setupGoalRouter(NewGoalHandler(&mockGoalService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals/1/contributions", `{"amount":"-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for another user's goal", func(t *testing.T) {
		goalSvc := &mockGoalService{
			recordContributionFn: func(_, _ uint, _ decimal.Decimal) (*models.Goal, error) {
				return nil, apperrors.ErrGoalNotFound
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/goals/8/contributions", `{"amount":"10"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestGoalHandler_GetContributions(t *testing.T) {
	t.Run("returns the history", func(t *testing.T) {
		goalID := uint(1)
		goalSvc := &mockGoalService{
			contributionHistoryFn: func(_, _ uint) ([]models.Transaction, error) {
				return []models.Transaction{
					{Base: models.Base{ID: 11}, GoalID: &goalID, Amount: decimal.NewFromInt(20)},
					{Base: models.Base{ID: 10}, GoalID: &goalID, Amount: decimal.NewFromInt(10)},
				}, nil
			},
		}
		r := setupGoalRouter(NewGoalHandler(goalSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/goals/1/contributions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if history := parseJSON(t, rec)["contributions"].([]interface{}); len(history) != 2 {
			t.Errorf("expected 2 contributions, got %d", len(history))
		}
	})
}
