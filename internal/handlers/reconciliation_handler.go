package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sheet-sync-service/internal/services"
)

// ReconciliationHandler exposes divergence detection between the Master
// sheet and the database.
type ReconciliationHandler struct {
	reconciliation *services.ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(reconciliation *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

// Run executes a full comparison pass and returns the report.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.reconciliation.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Reconciliation failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ApplyFix executes the suggested fix of one reported issue. Issues flagged
// as not auto-applicable are refused here as well.
func (h *ReconciliationHandler) ApplyFix(c *gin.Context) {
	var issue services.Issue
	if err := c.ShouldBindJSON(&issue); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid issue",
			Message: err.Error(),
		})
		return
	}

	if !issue.AutoApplicable {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Fix requires manual review",
			Message: "this issue type is never applied automatically",
		})
		return
	}

	if err := h.reconciliation.ApplyFix(c.Request.Context(), issue); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to apply fix",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderNo": issue.OrderNo, "fix": issue.Fix, "applied": true})
}
