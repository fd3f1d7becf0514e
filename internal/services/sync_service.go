package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"sheet-sync-service/internal/events"
	"sheet-sync-service/internal/grouping"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/parser"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/sheets"
)

// maxSyncErrors caps the error digest carried in the sync result and the
// SyncLog row; failures past the cap are still counted.
const maxSyncErrors = 10

// SyncResult is the payload callers of the sync entry points receive.
type SyncResult struct {
	Success        bool              `json:"success"`
	Status         models.SyncStatus `json:"status"`
	RecordsAdded   int               `json:"recordsAdded"`
	RecordsUpdated int               `json:"recordsUpdated"`
	RecordsFailed  int               `json:"recordsFailed"`
	Errors         []string          `json:"errors"`
}

func (r *SyncResult) addError(msg string) {
	r.RecordsFailed++
	if len(r.Errors) < maxSyncErrors {
		r.Errors = append(r.Errors, msg)
	}
}

func (r *SyncResult) finalize() {
	switch {
	case r.RecordsFailed == 0:
		r.Status = models.SyncStatusSuccess
		r.Success = true
	case r.RecordsAdded+r.RecordsUpdated > 0:
		r.Status = models.SyncStatusPartial
	default:
		r.Status = models.SyncStatusFailed
	}
}

// SyncService is the spreadsheet→database direction of the sync engine. It
// reads a source sheet, reconstructs users/products/orders through the row
// pipeline, and upserts them with per-record error isolation.
type SyncService struct {
	sheet       sheets.Client
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	syncLogRepo repository.SyncLogRepository
	publisher   *events.Publisher
	logger      *logrus.Entry
}

// NewSyncService creates a new sync service. The events publisher may be
// nil; sync then runs without emitting order events.
func NewSyncService(
	sheet sheets.Client,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	syncLogRepo repository.SyncLogRepository,
	publisher *events.Publisher,
	logger *logrus.Logger,
) *SyncService {
	return &SyncService{
		sheet:       sheet,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		syncLogRepo: syncLogRepo,
		publisher:   publisher,
		logger:      logger.WithField("component", "sync-service"),
	}
}

// sourceFormat bundles the per-format parsing rules.
type sourceFormat struct {
	source      models.OrderSource
	requireCols func(parser.ColumnMap) error
	fillCols    []string
	parseRow    func([]string, parser.ColumnMap, int) (parser.Row, error)
}

func formatFor(source models.OrderSource) (sourceFormat, error) {
	switch source {
	case models.SourceMaster:
		return sourceFormat{
			source:      source,
			requireCols: parser.RequireMasterColumns,
			fillCols:    parser.MasterFillColumns,
			parseRow:    parser.ParseMasterRow,
		}, nil
	case models.SourceGroupBuy:
		return sourceFormat{
			source:      source,
			requireCols: parser.RequireGroupBuyColumns,
			fillCols:    parser.GroupBuyFillColumns,
			parseRow:    parser.ParseGroupBuyRow,
		}, nil
	case models.SourceForm:
		return sourceFormat{
			source:      source,
			requireCols: parser.RequireFormColumns,
			fillCols:    parser.FormFillColumns,
			parseRow:    parser.ParseFormRow,
		}, nil
	}
	return sourceFormat{}, fmt.Errorf("unknown sync source %q", source)
}

// SyncMaster imports the Master sheet into the relational mirror.
func (s *SyncService) SyncMaster(ctx context.Context, sheetName string) (*SyncResult, error) {
	return s.syncSheet(ctx, sheetName, models.SyncTypeMasterImport, models.SourceMaster)
}

// SyncIntake imports one of the raw intake sheets.
func (s *SyncService) SyncIntake(ctx context.Context, sheetName string, source models.OrderSource) (*SyncResult, error) {
	return s.syncSheet(ctx, sheetName, models.SyncTypeIntakeImport, source)
}

func (s *SyncService) syncSheet(ctx context.Context, sheetName string, syncType models.SyncType, source models.OrderSource) (*SyncResult, error) {
	format, err := formatFor(source)
	if err != nil {
		return nil, err
	}

	syncLog := &models.SyncLog{SheetName: sheetName, SyncType: syncType}
	if err := s.syncLogRepo.Create(ctx, syncLog); err != nil {
		return nil, err
	}

	rows, err := s.sheet.ReadSheet(ctx, sheetName)
	if err != nil {
		err = fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		s.failSync(ctx, syncLog, err)
		return nil, err
	}

	result, err := s.run(ctx, rows, format)
	if err != nil {
		s.failSync(ctx, syncLog, err)
		return nil, err
	}

	if err := s.syncLogRepo.Finish(ctx, syncLog.ID, result.Status,
		result.RecordsAdded, result.RecordsUpdated, result.RecordsFailed, result.Errors); err != nil {
		s.logger.WithError(err).Error("Failed to finalize sync log")
	}

	s.logger.WithFields(logrus.Fields{
		"sheet":   sheetName,
		"status":  result.Status,
		"added":   result.RecordsAdded,
		"updated": result.RecordsUpdated,
		"failed":  result.RecordsFailed,
	}).Info("Sheet sync finished")
	return result, nil
}

// ImportXLSX runs the same pipeline over an uploaded raw intake workbook;
// the first worksheet is treated as the sheet.
func (s *SyncService) ImportXLSX(ctx context.Context, upload io.Reader, filename string, source models.OrderSource) (*SyncResult, error) {
	format, err := formatFor(source)
	if err != nil {
		return nil, err
	}

	syncLog := &models.SyncLog{SheetName: filename, SyncType: models.SyncTypeXLSXImport}
	if err := s.syncLogRepo.Create(ctx, syncLog); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(upload)
	if err != nil {
		err = fmt.Errorf("failed to open workbook %s: %w", filename, err)
		s.failSync(ctx, syncLog, err)
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		err = fmt.Errorf("failed to read workbook %s: %w", filename, err)
		s.failSync(ctx, syncLog, err)
		return nil, err
	}

	result, err := s.run(ctx, rows, format)
	if err != nil {
		s.failSync(ctx, syncLog, err)
		return nil, err
	}

	if err := s.syncLogRepo.Finish(ctx, syncLog.ID, result.Status,
		result.RecordsAdded, result.RecordsUpdated, result.RecordsFailed, result.Errors); err != nil {
		s.logger.WithError(err).Error("Failed to finalize sync log")
	}
	return result, nil
}

// run executes the pipeline over raw rows: header map, merge-fill, row
// parse, grouping fold, three-phase persist.
func (s *SyncService) run(ctx context.Context, rows [][]string, format sourceFormat) (*SyncResult, error) {
	if len(rows) < 2 {
		// Nothing before any phase could start: batch-level failure.
		return nil, fmt.Errorf("source sheet is empty")
	}

	cols := parser.BuildColumnMap(rows[0])
	if err := format.requireCols(cols); err != nil {
		return nil, err
	}

	data := parser.PadRows(rows[1:], len(rows[0]))
	parser.FillDownColumns(data, cols, format.fillCols...)

	result := &SyncResult{}
	parsed := make([]parser.Row, 0, len(data))
	for i, raw := range data {
		row, err := format.parseRow(raw, cols, i)
		if err != nil {
			result.addError(fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		parsed = append(parsed, row)
	}

	acc := grouping.Fold(parsed, format.source)
	result.RecordsFailed += acc.RowsFailed
	for _, msg := range acc.Errors {
		if len(result.Errors) < maxSyncErrors {
			result.Errors = append(result.Errors, msg)
		}
	}

	s.persist(ctx, acc, result)
	result.finalize()
	return result, nil
}

// persist writes the accumulator in three phases, isolating every record's
// failure from the rest of the batch.
func (s *SyncService) persist(ctx context.Context, acc *grouping.Accumulator, result *SyncResult) {
	for phone, user := range acc.Users {
		created, err := s.userRepo.Upsert(ctx, user)
		if err != nil {
			result.addError(fmt.Sprintf("user %s: %v", phone, err))
			continue
		}
		if created {
			result.RecordsAdded++
		} else {
			result.RecordsUpdated++
		}
	}

	for key, product := range acc.Products {
		created, err := s.productRepo.FindOrCreate(ctx, product)
		if err != nil {
			result.addError(fmt.Sprintf("product %s/%s: %v", key.Name, key.Spec, err))
			continue
		}
		if created {
			result.RecordsAdded++
		}
	}

	for _, orderNo := range acc.OrderSeq {
		order := acc.Orders[orderNo]
		exists, err := s.orderRepo.ExistsByOrderNo(ctx, orderNo)
		if err != nil {
			result.addError(fmt.Sprintf("order %s: %v", orderNo, err))
			continue
		}

		if exists {
			if err := s.patchOrder(ctx, order); err != nil {
				result.addError(fmt.Sprintf("order %s: %v", orderNo, err))
				continue
			}
			result.RecordsUpdated++
			continue
		}

		if err := s.createOrder(ctx, acc, order); err != nil {
			result.addError(fmt.Sprintf("order %s: %v", orderNo, err))
			continue
		}
		result.RecordsAdded++

		if s.publisher != nil {
			s.publisher.PublishOrderSynced(ctx, order)
		}
	}
}

// patchOrder re-patches only the mutable status/annotation fields of an
// existing order; header, financials and items stay as first created.
func (s *SyncService) patchOrder(ctx context.Context, order *models.Order) error {
	return s.orderRepo.PatchFields(ctx, order.OrderNo, map[string]interface{}{
		"notice_status": order.NoticeStatus,
		"paid_status":   order.PaidStatus,
		"pack_status":   order.PackStatus,
		"ship_status":   order.ShipStatus,
		"remarks":       order.Remarks,
		"can_fulfill":   order.CanFulfill,
	})
}

// createOrder resolves each item's product reference and creates the order
// row together with its items.
func (s *SyncService) createOrder(ctx context.Context, acc *grouping.Accumulator, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		key := models.ProductKey{Name: item.Name, Spec: item.Spec}
		product, ok := acc.Products[key]
		if !ok || product.ID == (uuid.UUID{}) {
			resolved, err := s.productRepo.GetByKey(ctx, key)
			if err != nil {
				// The item keeps its denormalized name/spec and is still
				// created; only the foreign key stays unset.
				s.logger.WithFields(logrus.Fields{
					"orderNo": order.OrderNo,
					"product": item.Name,
				}).WithError(err).Warn("Order item product not resolved")
				continue
			}
			product = resolved
		}
		id := product.ID
		item.ProductID = &id
	}

	return s.orderRepo.Create(ctx, order)
}

func (s *SyncService) failSync(ctx context.Context, syncLog *models.SyncLog, cause error) {
	msg := cause.Error()
	if err := s.syncLogRepo.Finish(ctx, syncLog.ID, models.SyncStatusFailed, 0, 0, 0, []string{msg}); err != nil {
		s.logger.WithError(err).Error("Failed to mark sync log as failed")
	}
	s.logger.WithField("sheet", syncLog.SheetName).WithError(cause).Error("Sync failed before completing")
}
