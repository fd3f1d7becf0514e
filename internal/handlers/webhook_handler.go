package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"sheet-sync-service/internal/services"
)

// WebhookHandler receives edit notifications from the spreadsheet hook.
type WebhookHandler struct {
	webhookService *services.WebhookService
	token          string
}

// NewWebhookHandler creates a new webhook handler. The token is the shared
// secret the spreadsheet hook sends in X-Webhook-Token.
func NewWebhookHandler(webhookService *services.WebhookService, token string) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		token:          token,
	}
}

// HandleSheetEdit validates and applies one cell edit event.
func (h *WebhookHandler) HandleSheetEdit(c *gin.Context) {
	if h.token != "" {
		sent := c.GetHeader("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(sent), []byte(h.token)) != 1 {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Invalid webhook token",
				Message: "X-Webhook-Token header does not match",
			})
			return
		}
	}

	var event services.EditEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid edit event",
			Message: err.Error(),
		})
		return
	}

	applied, err := h.webhookService.HandleEdit(c.Request.Context(), event)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Edit rejected",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"applied": applied})
}
