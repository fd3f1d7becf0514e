package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/repository"
	"sheet-sync-service/internal/sheets"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockProductRepository is a mock implementation of repository.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

var _ repository.ProductRepository = (*MockProductRepository)(nil)

func (m *MockProductRepository) FindOrCreate(ctx context.Context, product *models.Product) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) GetByKey(ctx context.Context, key models.ProductKey) (*models.Product, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// MockOrderRepository is a mock implementation of repository.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

var _ repository.OrderRepository = (*MockOrderRepository)(nil)

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) ExistsByOrderNo(ctx context.Context, orderNo string) (bool, error) {
	args := m.Called(ctx, orderNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) PatchFields(ctx context.Context, orderNo string, fields map[string]interface{}) error {
	args := m.Called(ctx, orderNo, fields)
	return args.Error(0)
}

func (m *MockOrderRepository) List(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

// MockSyncLogRepository is a mock implementation of repository.SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

var _ repository.SyncLogRepository = (*MockSyncLogRepository)(nil)

func (m *MockSyncLogRepository) Create(ctx context.Context, log *models.SyncLog) error {
	args := m.Called(ctx, log)
	if args.Error(0) == nil && log.ID == (uuid.UUID{}) {
		log.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockSyncLogRepository) Finish(ctx context.Context, id uuid.UUID, status models.SyncStatus, added, updated, failed int, errs []string) error {
	args := m.Called(ctx, id, status, added, updated, failed, errs)
	return args.Error(0)
}

func (m *MockSyncLogRepository) List(ctx context.Context, limit int) ([]models.SyncLog, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.SyncLog), args.Error(1)
}

// mergeSpan records one MergeCells call on the fake sheet.
type mergeSpan struct {
	StartRow, EndRow int64
	StartCol, EndCol int
}

// fakeSheetClient is an in-memory sheets.Client. Reads serve the seeded
// grid, appends land after the last row, and writes are recorded for
// assertions.
type fakeSheetClient struct {
	mu sync.Mutex

	grid    [][]string // seeded sheet content, row 1 is the header
	readErr error

	appended [][][]interface{}
	updates  map[string][][]interface{}
	batches  [][]sheets.RangeValues
	merges   []mergeSpan
}

var _ sheets.Client = (*fakeSheetClient)(nil)

func newFakeSheetClient(grid [][]string) *fakeSheetClient {
	return &fakeSheetClient{
		grid:    grid,
		updates: make(map[string][][]interface{}),
	}
}

func (f *fakeSheetClient) ReadSheet(ctx context.Context, sheetName string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.grid, nil
}

func (f *fakeSheetClient) ReadRange(ctx context.Context, rangeA1 string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}

	ref := rangeA1
	if i := strings.IndexByte(ref, '!'); i >= 0 {
		ref = ref[i+1:]
	}
	start, end := ref, ref
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		start, end = ref[:i], ref[i+1:]
	}
	startCol, startRow := parseA1Cell(start)
	endCol, endRow := parseA1Cell(end)
	if startCol < 0 {
		startCol = 0
	}
	if startRow <= 0 {
		startRow = 1
	}
	if endRow <= 0 || endRow > len(f.grid) {
		endRow = len(f.grid)
	}

	out := make([][]string, 0)
	for r := startRow; r <= endRow; r++ {
		row := f.grid[r-1]
		last := endCol
		if last < 0 || last >= len(row) {
			last = len(row) - 1
		}
		cells := make([]string, 0)
		for c := startCol; c <= last; c++ {
			cells = append(cells, row[c])
		}
		out = append(out, cells)
	}
	return out, nil
}

// parseA1Cell splits an A1 reference like "B12" into a 0-based column and
// 1-based row; missing parts come back as -1 / 0.
func parseA1Cell(s string) (int, int) {
	letters := s
	digits := ""
	for i, r := range s {
		if r >= '0' && r <= '9' {
			letters, digits = s[:i], s[i:]
			break
		}
	}
	col := -1
	for _, r := range letters {
		col = (col+1)*26 + int(r-'A')
	}
	row := 0
	if digits != "" {
		row, _ = strconv.Atoi(digits)
	}
	return col, row
}

func (f *fakeSheetClient) Update(ctx context.Context, rangeA1 string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[rangeA1] = values
	return nil
}

func (f *fakeSheetClient) BatchUpdate(ctx context.Context, updates []sheets.RangeValues) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, updates)
	for _, u := range updates {
		f.updates[u.Range] = u.Values
	}
	return nil
}

func (f *fakeSheetClient) Append(ctx context.Context, sheetName string, values [][]interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	firstRow := int64(len(f.grid)) + 1
	f.appended = append(f.appended, values)
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		f.grid = append(f.grid, cells)
	}
	return firstRow, nil
}

func (f *fakeSheetClient) MergeCells(ctx context.Context, sheetName string, startRow, endRow int64, startCol, endCol int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, mergeSpan{StartRow: startRow, EndRow: endRow, StartCol: startCol, EndCol: endCol})
	return nil
}
