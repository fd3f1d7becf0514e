package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"sheet-sync-service/internal/events"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/parser"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/sheets"
)

// EditEvent is the payload an edit hook installed on the spreadsheet sends
// when an operator changes a cell. Row and Column are 1-based, matching the
// spreadsheet UI.
type EditEvent struct {
	SheetName string `json:"sheetName" binding:"required"`
	Row       int64  `json:"row" binding:"required"`
	Column    int    `json:"column" binding:"required"`
	NewValue  string `json:"newValue"`
	OldValue  string `json:"oldValue"`
}

// masterColumnFields is the inverse of masterFieldLetters: spreadsheet
// column letter to patchable field name.
var masterColumnFields = func() map[string]string {
	m := make(map[string]string, len(masterFieldLetters))
	for field, letter := range masterFieldLetters {
		m[letter] = field
	}
	return m
}()

// fieldDBColumns maps patchable field names to their database columns.
var fieldDBColumns = map[string]string{
	FieldNoticeStatus: "notice_status",
	FieldPaidStatus:   "paid_status",
	FieldPackStatus:   "pack_status",
	FieldShipStatus:   "ship_status",
	FieldRemarks:      "remarks",
	FieldPaymentID:    "payment_id",
}

// fieldValidators checks vocabulary membership for the status fields; the
// free-text fields accept anything.
var fieldValidators = map[string]func(string) bool{
	FieldNoticeStatus: models.ValidNoticeStatus,
	FieldPaidStatus:   models.ValidPaidStatus,
	FieldPackStatus:   models.ValidPackStatus,
	FieldShipStatus:   models.ValidShipStatus,
}

// WebhookService applies Master sheet edits back to the database. Edits in
// cells this service does not track are acknowledged and dropped, and edits
// caused by our own writes are suppressed by the loop guard.
type WebhookService struct {
	sheet       sheets.Client
	orderRepo   repository.OrderRepository
	syncLogRepo repository.SyncLogRepository
	guard       *LoopGuard
	publisher   *events.Publisher
	sheetName   string
	logger      *logrus.Entry
}

func NewWebhookService(
	sheet sheets.Client,
	orderRepo repository.OrderRepository,
	syncLogRepo repository.SyncLogRepository,
	guard *LoopGuard,
	publisher *events.Publisher,
	sheetName string,
	logger *logrus.Logger,
) *WebhookService {
	return &WebhookService{
		sheet:       sheet,
		orderRepo:   orderRepo,
		syncLogRepo: syncLogRepo,
		guard:       guard,
		publisher:   publisher,
		sheetName:   sheetName,
		logger:      logger.WithField("component", "webhook"),
	}
}

// HandleEdit processes one cell edit. The returned bool reports whether the
// edit was applied; ignored edits return (false, nil).
func (s *WebhookService) HandleEdit(ctx context.Context, event EditEvent) (bool, error) {
	if event.SheetName != s.sheetName {
		return false, nil
	}

	letter := sheets.ColumnLetter(event.Column - 1)
	field, tracked := masterColumnFields[letter]
	if !tracked {
		return false, nil
	}

	value := strings.TrimSpace(event.NewValue)
	if validate, ok := fieldValidators[field]; ok && !validate(value) {
		return false, fmt.Errorf("value %q is not valid for %s", value, field)
	}

	orderNo, err := s.orderNoForRow(ctx, event.Row)
	if err != nil {
		return false, err
	}
	if orderNo == "" {
		return false, fmt.Errorf("row %d does not belong to any order block", event.Row)
	}

	if s.guard.ShouldSuppress(orderNo) {
		s.logger.WithFields(logrus.Fields{
			"orderNo": orderNo,
			"field":   field,
		}).Debug("Edit suppressed by loop guard")
		return false, nil
	}

	if err := s.orderRepo.PatchFields(ctx, orderNo, map[string]interface{}{
		fieldDBColumns[field]: value,
	}); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"orderNo": orderNo,
		"field":   field,
		"value":   value,
	}).Info("Master sheet edit applied to database")

	s.recordFieldUpdate(ctx)

	if s.publisher != nil && field == FieldPaidStatus && value == string(models.PaidStatusPaid) {
		order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
		if err == nil {
			s.publisher.PublishOrderPaid(ctx, order)
		}
	}
	return true, nil
}

// recordFieldUpdate writes the audit row for one applied edit. The edit is
// already in the database at this point, so audit failures only warn.
func (s *WebhookService) recordFieldUpdate(ctx context.Context) {
	log := &models.SyncLog{
		SheetName: s.sheetName,
		SyncType:  models.SyncTypeFieldUpdate,
	}
	if err := s.syncLogRepo.Create(ctx, log); err != nil {
		s.logger.WithError(err).Warn("Failed to create field-update audit row")
		return
	}
	if err := s.syncLogRepo.Finish(ctx, log.ID, models.SyncStatusSuccess, 0, 1, 0, nil); err != nil {
		s.logger.WithError(err).Warn("Failed to finish field-update audit row")
	}
}

// orderNoForRow resolves the order an edited row belongs to. The order-no
// column is merged per block, so the owning order is the last non-empty
// cell at or above the edited row. Its position comes from the header, not
// a fixed letter.
func (s *WebhookService) orderNoForRow(ctx context.Context, row int64) (string, error) {
	header, err := s.sheet.ReadRange(ctx, s.sheetName+"!1:1")
	if err != nil {
		return "", fmt.Errorf("failed to read master header: %w", err)
	}
	if len(header) == 0 {
		return "", fmt.Errorf("master sheet %s has no header row", s.sheetName)
	}
	cols := parser.BuildColumnMap(header[0])
	idx, ok := cols[parser.ColOrderNo]
	if !ok {
		return "", fmt.Errorf("master sheet %s has no %s column", s.sheetName, parser.ColOrderNo)
	}

	letter := sheets.ColumnLetter(idx)
	values, err := s.sheet.ReadRange(ctx, fmt.Sprintf("%s!%s2:%s%d", s.sheetName, letter, letter, row))
	if err != nil {
		return "", err
	}

	orderNo := ""
	for _, r := range values {
		if len(r) > 0 && r[0] != "" {
			orderNo = r[0]
		}
	}
	return orderNo, nil
}
