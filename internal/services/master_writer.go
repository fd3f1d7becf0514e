package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/parser"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/sheets"
)

// Mutable order fields addressable on the Master sheet. These map to fixed
// column letters; all other columns are located through the header row.
const (
	FieldNoticeStatus = "noticeStatus"
	FieldPaidStatus   = "paidStatus"
	FieldPackStatus   = "packStatus"
	FieldShipStatus   = "shipStatus"
	FieldRemarks      = "remarks"
	FieldPaymentID    = "paymentId"
)

// masterFieldLetters pins the patchable status columns to their letters in
// the canonical Master layout. Single-cell patches go by letter; full-row
// writes resolve columns from the header instead.
var masterFieldLetters = map[string]string{
	FieldNoticeStatus: "C",
	FieldRemarks:      "F",
	FieldPaidStatus:   "J",
	FieldPackStatus:   "K",
	FieldShipStatus:   "L",
	FieldPaymentID:    "Y",
}

// MasterWriter is the database→spreadsheet direction of the sync engine:
// it creates Master row blocks with the merged-cell layout a human editor
// would produce, and patches status cells of existing blocks.
type MasterWriter struct {
	sheet     sheets.Client
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	guard     *LoopGuard
	sheetName string
	logger    *logrus.Entry
}

// NewMasterWriter creates a new Master sheet writer
func NewMasterWriter(
	sheet sheets.Client,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	guard *LoopGuard,
	sheetName string,
	logger *logrus.Logger,
) *MasterWriter {
	return &MasterWriter{
		sheet:     sheet,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		guard:     guard,
		sheetName: sheetName,
		logger:    logger.WithField("component", "master-writer"),
	}
}

// ExportOrder appends a database order to the Master sheet as one row per
// item plus an optional shipping row. Order-level columns are populated
// only on the first row of the block and then merged vertically across it,
// replicating the human editing convention. The append and the merge are
// two separate spreadsheet calls; a crash in between leaves unmerged but
// readable rows that a later export pass can re-merge.
func (w *MasterWriter) ExportOrder(ctx context.Context, orderNo string) error {
	order, err := w.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return fmt.Errorf("cannot export order: %w", err)
	}

	user, err := w.userRepo.GetByPhone(ctx, order.UserPhone)
	if err != nil {
		// The sheet block still makes sense without the user row; the
		// name/handle columns just stay blank.
		w.logger.WithField("orderNo", orderNo).WithError(err).Warn("Exporting order without user record")
		user = &models.User{Phone: order.UserPhone}
	}

	header, err := w.sheet.ReadRange(ctx, w.sheetName+"!1:1")
	if err != nil {
		return fmt.Errorf("failed to read master header: %w", err)
	}
	if len(header) == 0 {
		return fmt.Errorf("master sheet %s has no header row", w.sheetName)
	}
	cols := parser.BuildColumnMap(header[0])
	if err := parser.RequireMasterColumns(cols); err != nil {
		return fmt.Errorf("master sheet %s: %w", w.sheetName, err)
	}

	block := w.buildBlock(order, user, cols, len(header[0]))
	firstRow, err := w.sheet.Append(ctx, w.sheetName, block)
	if err != nil {
		return fmt.Errorf("failed to append order %s: %w", orderNo, err)
	}

	if len(block) > 1 {
		lastRow := firstRow + int64(len(block)) - 1
		for _, name := range parser.MasterMergedColumns {
			idx, ok := cols[name]
			if !ok {
				continue
			}
			if err := w.sheet.MergeCells(ctx, w.sheetName, firstRow, lastRow, idx, idx+1); err != nil {
				return fmt.Errorf("failed to merge column %s for order %s: %w", name, orderNo, err)
			}
		}
	}

	w.guard.RecordWrite(orderNo)
	w.logger.WithFields(logrus.Fields{
		"orderNo": orderNo,
		"rows":    len(block),
		"row":     firstRow,
	}).Info("Order exported to master sheet")
	return nil
}

// buildBlock renders the order as sheet rows. Only the first row carries
// the order-level (merged) columns.
func (w *MasterWriter) buildBlock(order *models.Order, user *models.User, cols parser.ColumnMap, width int) [][]interface{} {
	rowCount := len(order.Items)
	if order.ShipMethod != "" {
		rowCount++
	}
	if rowCount == 0 {
		rowCount = 1
	}

	block := make([][]interface{}, rowCount)
	for i := range block {
		row := make([]interface{}, width)
		for j := range row {
			row[j] = ""
		}
		block[i] = row
	}

	set := func(row []interface{}, name string, value interface{}) {
		if idx, ok := cols[name]; ok && idx < len(row) {
			row[idx] = value
		}
	}

	first := block[0]
	set(first, parser.ColPhone, order.UserPhone)
	set(first, parser.ColWordChain, order.WordChain)
	set(first, parser.ColNotice, string(order.NoticeStatus))
	set(first, parser.ColName, user.Name)
	set(first, parser.ColChatHandle, user.ChatHandle)
	set(first, parser.ColRemarks, order.Remarks)
	set(first, parser.ColOrderedAt, order.OrderedAt.Format("2006/1/2 15:04:05"))
	set(first, parser.ColShipCost, order.ShippingCost)
	set(first, parser.ColTotal, order.TotalAmount)
	set(first, parser.ColPaid, string(order.PaidStatus))
	set(first, parser.ColPack, string(order.PackStatus))
	set(first, parser.ColShip, string(order.ShipStatus))
	set(first, parser.ColRomanized, user.Romanized)
	set(first, parser.ColAddress, order.Address)
	set(first, parser.ColEmail, user.Email)
	set(first, parser.ColOrderNo, order.OrderNo)
	if !order.CanFulfill {
		set(first, parser.ColCanFulfill, "否")
	}
	set(first, parser.ColPaymentID, order.PaymentID)

	for i, item := range order.Items {
		row := block[i]
		set(row, parser.ColBrand, item.Brand)
		set(row, parser.ColProduct, item.Name)
		set(row, parser.ColSpec, item.Spec)
		set(row, parser.ColQuantity, item.Quantity)
		set(row, parser.ColAmount, item.Amount)
		if item.Packed {
			set(row, parser.ColPacked, "V")
		}
		if item.Delivered {
			set(row, parser.ColDelivered, "V")
		}
	}

	if order.ShipMethod != "" {
		row := block[rowCount-1]
		set(row, parser.ColBrand, models.ShippingBrand)
		set(row, parser.ColProduct, order.ShipMethod)
		set(row, parser.ColSpec, order.ShipDetail)
		set(row, parser.ColAmount, order.ShippingCost)
	}

	return block
}

// PatchOrder writes the current mutable status/annotation fields of a
// database order into the fixed status cells at the first row of its Master
// block, as a single multi-range batch. Item rows are never rewritten.
func (w *MasterWriter) PatchOrder(ctx context.Context, orderNo string) error {
	order, err := w.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return fmt.Errorf("cannot patch sheet: %w", err)
	}

	row, err := w.FindOrderRow(ctx, orderNo)
	if err != nil {
		return err
	}

	updates := []sheets.RangeValues{
		w.cellUpdate(FieldNoticeStatus, row, string(order.NoticeStatus)),
		w.cellUpdate(FieldPaidStatus, row, string(order.PaidStatus)),
		w.cellUpdate(FieldPackStatus, row, string(order.PackStatus)),
		w.cellUpdate(FieldShipStatus, row, string(order.ShipStatus)),
		w.cellUpdate(FieldRemarks, row, order.Remarks),
		w.cellUpdate(FieldPaymentID, row, order.PaymentID),
	}
	if err := w.sheet.BatchUpdate(ctx, updates); err != nil {
		return fmt.Errorf("failed to patch order %s on sheet: %w", orderNo, err)
	}

	w.guard.RecordWrite(orderNo)
	w.logger.WithField("orderNo", orderNo).Info("Order status patched on master sheet")
	return nil
}

// UpdateField writes one named field of an order's block; this is the
// database-wins fix path of reconciliation.
func (w *MasterWriter) UpdateField(ctx context.Context, orderNo, field string, value string) error {
	letter, ok := masterFieldLetters[field]
	if !ok {
		return fmt.Errorf("field %q is not mapped to a master column", field)
	}

	row, err := w.FindOrderRow(ctx, orderNo)
	if err != nil {
		return err
	}

	ref := sheets.LetterCellRef(w.sheetName, letter, row)
	if err := w.sheet.Update(ctx, ref, [][]interface{}{{value}}); err != nil {
		return fmt.Errorf("failed to update %s for order %s: %w", field, orderNo, err)
	}

	w.guard.RecordWrite(orderNo)
	return nil
}

// FindOrderRow locates the first (merged) row of an order's block by
// scanning the order-no column. Orders absent from the sheet are an
// explicit error, never a silent skip.
func (w *MasterWriter) FindOrderRow(ctx context.Context, orderNo string) (int64, error) {
	header, err := w.sheet.ReadRange(ctx, w.sheetName+"!1:1")
	if err != nil {
		return 0, fmt.Errorf("failed to read master header: %w", err)
	}
	if len(header) == 0 {
		return 0, fmt.Errorf("master sheet %s has no header row", w.sheetName)
	}
	cols := parser.BuildColumnMap(header[0])
	idx, ok := cols[parser.ColOrderNo]
	if !ok {
		return 0, fmt.Errorf("master sheet %s has no %s column", w.sheetName, parser.ColOrderNo)
	}

	letter := sheets.ColumnLetter(idx)
	column, err := w.sheet.ReadRange(ctx, fmt.Sprintf("%s!%s2:%s", w.sheetName, letter, letter))
	if err != nil {
		return 0, fmt.Errorf("failed to read order-no column: %w", err)
	}

	for i, row := range column {
		if len(row) > 0 && row[0] == orderNo {
			return int64(i + 2), nil
		}
	}
	return 0, fmt.Errorf("order %s not found on master sheet", orderNo)
}

func (w *MasterWriter) cellUpdate(field string, row int64, value string) sheets.RangeValues {
	return sheets.RangeValues{
		Range:  sheets.LetterCellRef(w.sheetName, masterFieldLetters[field], row),
		Values: [][]interface{}{{value}},
	}
}
