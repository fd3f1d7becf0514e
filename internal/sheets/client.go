// Package sheets wraps the Google Sheets API behind the small surface the
// sync engine needs: rectangular reads, single and multi-range writes, row
// appends and the structural merge-cells request.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// RangeValues is one range worth of cells for a batch write.
type RangeValues struct {
	Range  string
	Values [][]interface{}
}

// Client is the spreadsheet collaborator interface consumed by the sync
// services. Row numbers are 1-based as in A1 notation; column indexes are
// 0-based.
type Client interface {
	// ReadSheet returns the whole used range of a sheet as trimmed strings.
	ReadSheet(ctx context.Context, sheetName string) ([][]string, error)
	// ReadRange returns an arbitrary A1 range as trimmed strings.
	ReadRange(ctx context.Context, rangeA1 string) ([][]string, error)
	// Update writes one range.
	Update(ctx context.Context, rangeA1 string, values [][]interface{}) error
	// BatchUpdate writes several ranges in one request.
	BatchUpdate(ctx context.Context, updates []RangeValues) error
	// Append appends rows after the sheet's last data row and returns the
	// 1-based row number the block landed on.
	Append(ctx context.Context, sheetName string, values [][]interface{}) (int64, error)
	// MergeCells issues a whole-range merge over the given span.
	MergeCells(ctx context.Context, sheetName string, startRow, endRow int64, startCol, endCol int) error
}

type client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	limiter       *rate.Limiter
	logger        *logrus.Entry

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewClient creates a Sheets API client authenticated with a service
// account credentials file. The limiter keeps the client inside the
// per-minute API quota.
func NewClient(ctx context.Context, spreadsheetID, credentialsFile string, logger *logrus.Logger) (Client, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Every(time.Second), 10),
		logger:        logger.WithField("component", "sheets-client"),
		sheetIDs:      make(map[string]int64),
	}, nil
}

func (c *client) ReadSheet(ctx context.Context, sheetName string) ([][]string, error) {
	return c.ReadRange(ctx, sheetName)
}

func (c *client) ReadRange(ctx context.Context, rangeA1 string) ([][]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeA1).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rangeA1, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows[i] = row
	}
	return rows, nil
}

func (c *client) Update(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rangeA1, &sheetsapi.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update range %s: %w", rangeA1, err)
	}
	return nil
}

func (c *client) BatchUpdate(ctx context.Context, updates []RangeValues) error {
	if len(updates) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	data := make([]*sheetsapi.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheetsapi.ValueRange{Range: u.Range, Values: u.Values}
	}

	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch update %d ranges: %w", len(updates), err)
	}
	return nil
}

func (c *client) Append(ctx context.Context, sheetName string, values [][]interface{}) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheetName, &sheetsapi.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append to sheet %s: %w", sheetName, err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append to sheet %s returned no update metadata", sheetName)
	}

	firstRow, err := firstRowOfRange(resp.Updates.UpdatedRange)
	if err != nil {
		return 0, err
	}
	return firstRow, nil
}

func (c *client) MergeCells(ctx context.Context, sheetName string, startRow, endRow int64, startCol, endCol int) error {
	sheetID, err := c.sheetID(ctx, sheetName)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			MergeCells: &sheetsapi.MergeCellsRequest{
				MergeType: "MERGE_ALL",
				Range: &sheetsapi.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow - 1, // A1 rows are 1-based, grid ranges 0-based
					EndRowIndex:      endRow,
					StartColumnIndex: int64(startCol),
					EndColumnIndex:   int64(endCol),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to merge cells on sheet %s: %w", sheetName, err)
	}
	return nil
}

// sheetID resolves a sheet title to its numeric id, cached per client.
func (c *client) sheetID(ctx context.Context, sheetName string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.sheetIDs[sheetName]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to load spreadsheet metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[sheetName]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", sheetName)
	}
	return id, nil
}
