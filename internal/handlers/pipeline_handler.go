package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"financemanager/internal/services"
)

// PipelineHandler exposes batch jobs to trusted automation callers.
type PipelineHandler struct {
	recurringService services.RecurringServicer
	now              func() time.Time
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(recurringService services.RecurringServicer) *PipelineHandler {
	return &PipelineHandler{recurringService: recurringService, now: time.Now}
}

// ProcessRecurring handles an on-demand recurring transaction sweep
// @Summary     Process recurring transactions
// @Description Create every recurring occurrence due on or before as_of (default now)
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Param       as_of query string false "Sweep date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.RecurringRun "Sweep result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/recurring/process [post]
func (h *PipelineHandler) ProcessRecurring(c *gin.Context) {
	asOf, err := queryTime(c, "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}
	when := h.now()
	if asOf != nil {
		when = *asOf
	}

	run, err := h.recurringService.ProcessDue(c.Request.Context(), when)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}
