package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"sheet-sync-service/internal/models"
)

// canonicalMasterHeader lays the columns out in their fixed sheet positions
// (order no in A, paid status in J, payment id in Y).
func canonicalMasterHeader() []string {
	return []string{
		"訂單編號", "電話", "匯款通知", "姓名", "LINE暱稱", "備註",
		"訂購時間", "運費", "總金額", "付款狀態", "包貨狀態", "出貨狀態",
		"羅馬拼音", "地址", "Email", "文字接龍", "可出貨",
		"品牌", "商品名稱", "規格", "數量", "金額", "已包", "已到貨", "付款編號",
	}
}

func newWriterFixture(grid [][]string) (*MasterWriter, *MockOrderRepository, *MockUserRepository, *fakeSheetClient, *LoopGuard) {
	sheet := newFakeSheetClient(grid)
	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	guard := NewLoopGuard()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	writer := NewMasterWriter(sheet, orderRepo, userRepo, guard, "Master", logger)
	return writer, orderRepo, userRepo, sheet, guard
}

func exportableOrder() *models.Order {
	return &models.Order{
		OrderNo:      "ORD-1",
		UserPhone:    "5550100",
		OrderedAt:    time.Date(2025, 3, 7, 14, 30, 0, 0, time.Local),
		ShippingCost: 120,
		TotalAmount:  540,
		NoticeStatus: models.NoticeStatusNotified,
		PaidStatus:   models.PaidStatusPaid,
		PackStatus:   models.PackStatusUnpacked,
		ShipStatus:   models.ShipStatusUnshipped,
		Address:      "台北市",
		CanFulfill:   true,
		ShipMethod:   "黑貓宅急便",
		ShipDetail:   "冷凍",
		Items: []models.OrderItem{
			{Name: "草莓大福", Spec: "6入", Brand: "福屋", Quantity: 2, Amount: 360, Packed: true},
			{Name: "抹茶糰子", Quantity: 1, Amount: 60},
		},
	}
}

func TestExportOrderAppendsBlockAndMerges(t *testing.T) {
	writer, orderRepo, userRepo, sheet, guard := newWriterFixture([][]string{canonicalMasterHeader()})

	order := exportableOrder()
	orderRepo.On("GetByOrderNo", mock.Anything, "ORD-1").Return(order, nil)
	userRepo.On("GetByPhone", mock.Anything, "5550100").Return(&models.User{
		Phone: "5550100", Name: "王小明", ChatHandle: "ming",
	}, nil)

	err := writer.ExportOrder(context.Background(), "ORD-1")
	assert.NoError(t, err)

	// Two item rows plus one shipping row.
	assert.Len(t, sheet.appended, 1)
	block := sheet.appended[0]
	assert.Len(t, block, 3)

	first := block[0]
	assert.Equal(t, "ORD-1", first[0])
	assert.Equal(t, "5550100", first[1])
	assert.Equal(t, "王小明", first[3])
	assert.Equal(t, "已付款", first[9])
	assert.Equal(t, "草莓大福", first[18])
	assert.Equal(t, 2, first[20])
	assert.Equal(t, "V", first[22], "packed items are ticked")

	// Continuation rows keep the merged columns blank.
	second := block[1]
	assert.Equal(t, "", second[0])
	assert.Equal(t, "", second[1])
	assert.Equal(t, "抹茶糰子", second[18])

	// The shipping line is the last row of the block.
	last := block[2]
	assert.Equal(t, "運費", last[17])
	assert.Equal(t, "黑貓宅急便", last[18])
	assert.Equal(t, "冷凍", last[19])
	assert.Equal(t, 120.0, last[21])

	// One vertical merge per order-level column, spanning the whole block.
	assert.Len(t, sheet.merges, 16)
	for _, m := range sheet.merges {
		assert.Equal(t, int64(2), m.StartRow)
		assert.Equal(t, int64(4), m.EndRow)
		assert.Equal(t, m.StartCol+1, m.EndCol)
	}

	assert.True(t, guard.ShouldSuppress("ORD-1"), "export arms the loop guard")
}

func TestExportOrderSingleRowSkipsMerging(t *testing.T) {
	writer, orderRepo, userRepo, sheet, _ := newWriterFixture([][]string{canonicalMasterHeader()})

	order := exportableOrder()
	order.Items = order.Items[:1]
	order.ShipMethod = ""
	orderRepo.On("GetByOrderNo", mock.Anything, "ORD-1").Return(order, nil)
	userRepo.On("GetByPhone", mock.Anything, "5550100").Return(&models.User{Phone: "5550100"}, nil)

	err := writer.ExportOrder(context.Background(), "ORD-1")
	assert.NoError(t, err)
	assert.Empty(t, sheet.merges)
}

func TestExportOrderMissingOrder(t *testing.T) {
	writer, orderRepo, _, _, _ := newWriterFixture([][]string{canonicalMasterHeader()})
	orderRepo.On("GetByOrderNo", mock.Anything, "ORD-9").Return(nil, errors.New("order ORD-9 not found"))

	err := writer.ExportOrder(context.Background(), "ORD-9")
	assert.Error(t, err)
}

func TestPatchOrderBatchesStatusCells(t *testing.T) {
	grid := [][]string{
		canonicalMasterHeader(),
		{"ORD-1", "5550100"},
		{"", ""},
		{"ORD-2", "5550200"},
	}
	writer, orderRepo, _, sheet, guard := newWriterFixture(grid)

	order := exportableOrder()
	order.Remarks = "先幫我保留"
	order.PaymentID = "PAY-77"
	orderRepo.On("GetByOrderNo", mock.Anything, "ORD-1").Return(order, nil)

	err := writer.PatchOrder(context.Background(), "ORD-1")
	assert.NoError(t, err)

	// All six cells land in a single batch on the block's first row.
	assert.Len(t, sheet.batches, 1)
	assert.Len(t, sheet.batches[0], 6)
	assert.Equal(t, [][]interface{}{{"已付款"}}, sheet.updates["Master!J2"])
	assert.Equal(t, [][]interface{}{{"未包貨"}}, sheet.updates["Master!K2"])
	assert.Equal(t, [][]interface{}{{"先幫我保留"}}, sheet.updates["Master!F2"])
	assert.Equal(t, [][]interface{}{{"PAY-77"}}, sheet.updates["Master!Y2"])

	assert.True(t, guard.ShouldSuppress("ORD-1"))
}

func TestUpdateFieldWritesSingleCell(t *testing.T) {
	grid := [][]string{
		canonicalMasterHeader(),
		{"ORD-1", "5550100"},
		{"", ""},
		{"ORD-2", "5550200"},
	}
	writer, _, _, sheet, _ := newWriterFixture(grid)

	err := writer.UpdateField(context.Background(), "ORD-2", FieldPaidStatus, "已付款")
	assert.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"已付款"}}, sheet.updates["Master!J4"])
}

func TestUpdateFieldRejectsUnknownField(t *testing.T) {
	writer, _, _, _, _ := newWriterFixture([][]string{canonicalMasterHeader()})

	err := writer.UpdateField(context.Background(), "ORD-1", "totalAmount", "999")
	assert.Error(t, err)
}

func TestFindOrderRowNotFound(t *testing.T) {
	grid := [][]string{
		canonicalMasterHeader(),
		{"ORD-1", "5550100"},
	}
	writer, _, _, _, _ := newWriterFixture(grid)

	_, err := writer.FindOrderRow(context.Background(), "ORD-9")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ORD-9")
}
