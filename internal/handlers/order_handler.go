package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/services"
)

// ErrorResponse is the JSON error envelope all handlers share.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// OrderHandler handles HTTP requests for the relational order mirror.
type OrderHandler struct {
	orderRepo repository.OrderRepository
	writer    *services.MasterWriter
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderRepo repository.OrderRepository, writer *services.MasterWriter) *OrderHandler {
	return &OrderHandler{
		orderRepo: orderRepo,
		writer:    writer,
	}
}

// ListOrders returns a paginated list of orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit := 1, 20
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	orders, total, err := h.orderRepo.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list orders",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

// GetOrder returns one order by its order number.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderNo := c.Param("orderNo")

	order, err := h.orderRepo.GetByOrderNo(c.Request.Context(), orderNo)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Order not found",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ExportOrder appends an order's block to the Master sheet.
func (h *OrderHandler) ExportOrder(c *gin.Context) {
	orderNo := c.Param("orderNo")

	if err := h.writer.ExportOrder(c.Request.Context(), orderNo); err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{
			Error:   "Failed to export order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderNo": orderNo, "exported": true})
}

// PatchOrderToMaster re-writes an order's status cells on the Master sheet
// from the database values.
func (h *OrderHandler) PatchOrderToMaster(c *gin.Context) {
	orderNo := c.Param("orderNo")

	if err := h.writer.PatchOrder(c.Request.Context(), orderNo); err != nil {
		status := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{
			Error:   "Failed to patch order",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orderNo": orderNo, "patched": true})
}

// HealthCheck reports service health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "sheet-sync-service",
		Version: "1.0.0",
	})
}
