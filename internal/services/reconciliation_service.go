package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"sheet-sync-service/internal/parser"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/sheets"
)

// Issue types found by a reconciliation run.
const (
	IssueMissingFromMaster   = "MISSING_FROM_MASTER"
	IssueMissingFromDatabase = "MISSING_FROM_DATABASE"
	IssuePaidStatusMismatch  = "PAID_STATUS_MISMATCH"
)

// Fix strategies attached to issues.
const (
	FixSyncToMaster   = "SYNC_TO_MASTER"
	FixDatabaseWins   = "DATABASE_WINS"
	FixSyncFromMaster = "SYNC_FROM_MASTER"
)

// Issue is one divergence between the Master sheet and the database.
// AutoApplicable marks whether ApplyFix will act on it; importing rows the
// operator typed directly into Master is always left to a manual sync run.
type Issue struct {
	Type           string `json:"type"`
	OrderNo        string `json:"orderNo"`
	Detail         string `json:"detail"`
	MasterValue    string `json:"masterValue,omitempty"`
	DatabaseValue  string `json:"databaseValue,omitempty"`
	Fix            string `json:"fix"`
	AutoApplicable bool   `json:"autoApplicable"`
}

// ReconciliationReport is the result of one full comparison pass.
type ReconciliationReport struct {
	OrdersInDatabase int     `json:"ordersInDatabase"`
	OrdersOnMaster   int     `json:"ordersOnMaster"`
	Issues           []Issue `json:"issues"`
}

// ReconciliationService compares the Master sheet against the database and
// reports divergences with a suggested fix each.
type ReconciliationService struct {
	sheet     sheets.Client
	orderRepo repository.OrderRepository
	writer    *MasterWriter
	sheetName string
	logger    *logrus.Entry
}

func NewReconciliationService(
	sheet sheets.Client,
	orderRepo repository.OrderRepository,
	writer *MasterWriter,
	sheetName string,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		sheet:     sheet,
		orderRepo: orderRepo,
		writer:    writer,
		sheetName: sheetName,
		logger:    logger.WithField("component", "reconciliation"),
	}
}

// Run reads the Master sheet once and compares it against every order in
// the database.
func (s *ReconciliationService) Run(ctx context.Context) (*ReconciliationReport, error) {
	rows, err := s.sheet.ReadSheet(ctx, s.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", s.sheetName, err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("sheet %s has no header row", s.sheetName)
	}

	cols := parser.BuildColumnMap(rows[0])
	if err := cols.Require(parser.ColOrderNo, parser.ColPaid); err != nil {
		return nil, err
	}

	// Paid status is read from the first row of each order block; the
	// column is merged vertically so that cell carries the value.
	masterPaid := make(map[string]string)
	masterSeq := make([]string, 0)
	for _, row := range rows[1:] {
		orderNo := cols.Cell(row, parser.ColOrderNo)
		if orderNo == "" {
			continue
		}
		if _, seen := masterPaid[orderNo]; seen {
			continue
		}
		masterPaid[orderNo] = cols.Cell(row, parser.ColPaid)
		masterSeq = append(masterSeq, orderNo)
	}

	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		OrdersInDatabase: len(orders),
		OrdersOnMaster:   len(masterPaid),
		Issues:           []Issue{},
	}

	inDatabase := make(map[string]bool, len(orders))
	for i := range orders {
		order := &orders[i]
		inDatabase[order.OrderNo] = true

		paid, onMaster := masterPaid[order.OrderNo]
		if !onMaster {
			report.Issues = append(report.Issues, Issue{
				Type:           IssueMissingFromMaster,
				OrderNo:        order.OrderNo,
				Detail:         fmt.Sprintf("order %s exists in the database but not on the master sheet", order.OrderNo),
				Fix:            FixSyncToMaster,
				AutoApplicable: true,
			})
			continue
		}

		if paid != "" && paid != string(order.PaidStatus) {
			report.Issues = append(report.Issues, Issue{
				Type:           IssuePaidStatusMismatch,
				OrderNo:        order.OrderNo,
				Detail:         fmt.Sprintf("paid status differs for order %s", order.OrderNo),
				MasterValue:    paid,
				DatabaseValue:  string(order.PaidStatus),
				Fix:            FixDatabaseWins,
				AutoApplicable: true,
			})
		}
	}

	for _, orderNo := range masterSeq {
		if inDatabase[orderNo] {
			continue
		}
		report.Issues = append(report.Issues, Issue{
			Type:           IssueMissingFromDatabase,
			OrderNo:        orderNo,
			Detail:         fmt.Sprintf("order %s is on the master sheet but not in the database", orderNo),
			Fix:            FixSyncFromMaster,
			AutoApplicable: false,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"ordersInDatabase": report.OrdersInDatabase,
		"ordersOnMaster":   report.OrdersOnMaster,
		"issues":           len(report.Issues),
	}).Info("Reconciliation run finished")
	return report, nil
}

// ApplyFix executes the suggested fix of one issue. Fixes that import data
// from the sheet are refused; those go through a reviewed sync run instead.
func (s *ReconciliationService) ApplyFix(ctx context.Context, issue Issue) error {
	switch issue.Fix {
	case FixSyncToMaster:
		return s.writer.ExportOrder(ctx, issue.OrderNo)
	case FixDatabaseWins:
		order, err := s.orderRepo.GetByOrderNo(ctx, issue.OrderNo)
		if err != nil {
			return err
		}
		return s.writer.UpdateField(ctx, issue.OrderNo, FieldPaidStatus, string(order.PaidStatus))
	case FixSyncFromMaster:
		return fmt.Errorf("fix %s for order %s requires manual review", issue.Fix, issue.OrderNo)
	}
	return fmt.Errorf("unknown fix %q", issue.Fix)
}
