package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"financemanager/internal/services"
)

// ReportHandler serves read-only financial reports.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetFinancialSummary handles the headline report for a period
// @Summary     Financial summary
// @Description Totals, category shares, recent transactions, budget usage and active goal progress for a period
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Period end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.FinancialSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetFinancialSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := dateRangeQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.FinancialSummary(c.Request.Context(), userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCashFlow handles the monthly cash-flow report
// @Summary     Cash flow
// @Description Month-by-month income, expenses, net savings and savings rate for a period
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Period end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.CashFlowReport "Cash flow"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/cash-flow [get]
func (h *ReportHandler) GetCashFlow(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := dateRangeQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.CashFlow(c.Request.Context(), userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetBudgetAnalysis handles the budget versus actual report
// @Summary     Budget analysis
// @Description Usage of every budget overlapping the period, with totals and monthly category spending
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "Period end (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.BudgetAnalysis "Budget analysis"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/budget-analysis [get]
func (h *ReportHandler) GetBudgetAnalysis(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := dateRangeQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.reportService.BudgetAnalysis(c.Request.Context(), userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// GetCategoryBreakdown handles the per-category report
// @Summary     Category breakdown
// @Description Totals, counts and latest transactions per category for a period
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Period start (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "Period end (RFC3339 or YYYY-MM-DD)"
// @Param       category_id query int    false "Restrict to one category"
// @Success     200 {array}  finance.CategorySummary "Breakdown"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/category-breakdown [get]
func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := dateRangeQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := queryUint(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := h.reportService.CategoryBreakdown(c.Request.Context(), userID, period, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": breakdown})
}

// GetMonthlyTrends handles the rolling monthly trend report
// @Summary     Monthly trends
// @Description Cash-flow trend of the last N calendar months, the current one included
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months (default 12, max 120)"
// @Success     200 {array}  finance.MonthlyTrend "Trends"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly-trends [get]
func (h *ReportHandler) GetMonthlyTrends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := queryInt(c, "months", 0)
	if err != nil {
		respondWithError(c, err)
		return
	}

	trends, err := h.reportService.MonthlyTrends(c.Request.Context(), userID, months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": trends})
}

// GetGoalProgress handles the top goals report
// @Summary     Goal progress
// @Description Active goals closest to completion
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of goals (default 5)"
// @Success     200 {array}  services.GoalSummary "Goals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/goal-progress [get]
func (h *ReportHandler) GetGoalProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals, err := h.reportService.TopGoals(c.Request.Context(), userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goals": goals})
}
