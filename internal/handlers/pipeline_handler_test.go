package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"financemanager/internal/services"
)

type mockRecurringService struct {
	processDueFn func(asOf time.Time) (*services.RecurringRun, error)
}

var _ services.RecurringServicer = (*mockRecurringService)(nil)

func (m *mockRecurringService) ProcessDue(_ context.Context, asOf time.Time) (*services.RecurringRun, error) {
	if m.processDueFn != nil {
		return m.processDueFn(asOf)
	}
	return &services.RecurringRun{AsOf: asOf}, nil
}

func setupPipelineRouter(handler *PipelineHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/recurring/process", handler.ProcessRecurring)
	return r
}

func TestPipelineHandler_ProcessRecurring(t *testing.T) {
	fixed := time.Date(2024, 4, 10, 1, 0, 0, 0, time.UTC)

	t.Run("sweeps as of now by default", func(t *testing.T) {
		var got time.Time
		svc := &mockRecurringService{
			processDueFn: func(asOf time.Time) (*services.RecurringRun, error) {
				got = asOf
				return &services.RecurringRun{AsOf: asOf, Templates: 2, Created: 3}, nil
			},
		}
		handler := NewPipelineHandler(svc)
		handler.now = func() time.Time { return fixed }
		r := setupPipelineRouter(handler)

		rec := doRequest(r, "POST", "/pipeline/recurring/process", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Equal(fixed) {
			t.Errorf("expected %v, got %v", fixed, got)
		}
		if parseJSON(t, rec)["created"] != float64(3) {
			t.Error("expected created 3")
		}
	})

	t.Run("honours as_of", func(t *testing.T) {
		var got time.Time
		svc := &mockRecurringService{
			processDueFn: func(asOf time.Time) (*services.RecurringRun, error) {
				got = asOf
				return &services.RecurringRun{AsOf: asOf}, nil
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/recurring/process?as_of=2024-03-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !got.Equal(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 2024-03-31, got %v", got)
		}
	})

	t.Run("returns 400 on invalid as_of", func(t *testing.T) {
		r := setupPipelineRouter(NewPipelineHandler(&mockRecurringService{}))

		rec := doRequest(r, "POST", "/pipeline/recurring/process?as_of=soon", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 500 when the sweep cannot start", func(t *testing.T) {
		svc := &mockRecurringService{
			processDueFn: func(time.Time) (*services.RecurringRun, error) {
				return nil, errors.New("database is down")
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := doRequest(r, "POST", "/pipeline/recurring/process", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}
