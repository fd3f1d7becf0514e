package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/services"
)

// SyncSheets names the spreadsheet tabs the sync endpoints operate on.
type SyncSheets struct {
	Master   string
	GroupBuy string
	Form     string
}

// SyncHandler exposes the import direction of the sync engine.
type SyncHandler struct {
	syncService *services.SyncService
	syncLogRepo repository.SyncLogRepository
	sheets      SyncSheets
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService *services.SyncService, syncLogRepo repository.SyncLogRepository, sheets SyncSheets) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		syncLogRepo: syncLogRepo,
		sheets:      sheets,
	}
}

// SyncMaster imports the Master sheet into the database.
func (h *SyncHandler) SyncMaster(c *gin.Context) {
	result, err := h.syncService.SyncMaster(c.Request.Context(), h.sheets.Master)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Master sync failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncIntake imports one of the raw intake sheets. The source path segment
// selects the format: group-buy or form.
func (h *SyncHandler) SyncIntake(c *gin.Context) {
	sheetName, source, ok := h.intakeSource(c.Param("source"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Unknown intake source",
			Message: "source must be group-buy or form",
		})
		return
	}

	result, err := h.syncService.SyncIntake(c.Request.Context(), sheetName, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Intake sync failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadXLSX imports an uploaded intake workbook. The multipart form needs
// a file field and a source field naming the format.
func (h *SyncHandler) UploadXLSX(c *gin.Context) {
	_, source, ok := h.intakeSource(c.PostForm("source"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Unknown intake source",
			Message: "source must be group-buy or form",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Missing workbook file",
			Message: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Failed to open workbook",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.syncService.ImportXLSX(c.Request.Context(), file, fileHeader.Filename, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Workbook import failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListSyncLogs returns recent sync runs, newest first.
func (h *SyncHandler) ListSyncLogs(c *gin.Context) {
	logs, err := h.syncLogRepo.List(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to list sync logs",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"syncLogs": logs})
}

func (h *SyncHandler) intakeSource(name string) (string, models.OrderSource, bool) {
	switch name {
	case "group-buy":
		return h.sheets.GroupBuy, models.SourceGroupBuy, true
	case "form":
		return h.sheets.Form, models.SourceForm, true
	}
	return "", "", false
}
