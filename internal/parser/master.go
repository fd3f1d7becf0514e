package parser

// Master sheet column names. The Master sheet is the human-edited system of
// record; order-level facts live in vertically merged columns and each item
// of an order occupies its own row.
const (
	ColPhone      = "電話"
	ColWordChain  = "文字接龍"
	ColNotice     = "匯款通知"
	ColName       = "姓名"
	ColChatHandle = "LINE暱稱"
	ColRemarks    = "備註"
	ColOrderedAt  = "訂購時間"
	ColShipCost   = "運費"
	ColTotal      = "總金額"
	ColPaid       = "付款狀態"
	ColPack       = "包貨狀態"
	ColShip       = "出貨狀態"
	ColRomanized  = "羅馬拼音"
	ColAddress    = "地址"
	ColEmail      = "Email"
	ColOrderNo    = "訂單編號"
	ColCanFulfill = "可出貨"
	ColPaymentID  = "付款編號"

	ColBrand     = "品牌"
	ColProduct   = "商品名稱"
	ColSpec      = "規格"
	ColQuantity  = "數量"
	ColAmount    = "金額"
	ColPacked    = "已包"
	ColDelivered = "已到貨"
)

// MasterMergedColumns lists the order-level columns that are vertically
// merged across an order's row block. Merge groups are not aligned across
// columns in general, so fill-down runs per column.
var MasterMergedColumns = []string{
	ColPhone, ColWordChain, ColNotice, ColName, ColChatHandle, ColRemarks,
	ColOrderedAt, ColShipCost, ColTotal, ColPaid, ColPack, ColShip,
	ColRomanized, ColAddress, ColEmail, ColOrderNo,
}

// MasterFillColumns is MasterMergedColumns minus the order-no column.
// Continuation rows are detected by their empty order-no cell, so that one
// column must never be carry-forward filled before grouping.
var MasterFillColumns = []string{
	ColPhone, ColWordChain, ColNotice, ColName, ColChatHandle, ColRemarks,
	ColOrderedAt, ColShipCost, ColTotal, ColPaid, ColPack, ColShip,
	ColRomanized, ColAddress, ColEmail,
}

// RequireMasterColumns validates that a header row carries the columns the
// Master parser cannot work without.
func RequireMasterColumns(cols ColumnMap) error {
	return cols.Require(ColOrderNo, ColPhone, ColProduct, ColQuantity)
}

// ParseMasterRow extracts one Master sheet row into the unified record.
// Everything is trimmed and type-coerced with the documented fallbacks;
// the row itself never fails on bad cell content.
func ParseMasterRow(row []string, cols ColumnMap, rowIndex int) (Row, error) {
	r := Row{
		RowIndex: rowIndex,

		OrderNo: cols.Cell(row, ColOrderNo),
		Phone:   SanitizePhone(cols.Cell(row, ColPhone)),

		Name:       cols.Cell(row, ColName),
		ChatHandle: cols.Cell(row, ColChatHandle),
		Romanized:  cols.Cell(row, ColRomanized),
		Address:    cols.Cell(row, ColAddress),
		Email:      NormalizeEmail(cols.Cell(row, ColEmail)),

		WordChain: cols.Cell(row, ColWordChain),
		Notice:    cols.Cell(row, ColNotice),
		Remarks:   cols.Cell(row, ColRemarks),

		OrderedAt:    parseTime(cols.Cell(row, ColOrderedAt)),
		ShippingCost: parseMoney(cols.Cell(row, ColShipCost)),
		TotalAmount:  parseMoney(cols.Cell(row, ColTotal)),

		PaidStatus: cols.Cell(row, ColPaid),
		PackStatus: cols.Cell(row, ColPack),
		ShipStatus: cols.Cell(row, ColShip),

		ProductName: cols.Cell(row, ColProduct),
		Spec:        cols.Cell(row, ColSpec),
		Brand:       cols.Cell(row, ColBrand),
		Quantity:    parseQuantity(cols.Cell(row, ColQuantity)),
		Amount:      parseMoney(cols.Cell(row, ColAmount)),

		Packed:    parseFlag(cols.Cell(row, ColPacked)),
		Delivered: parseFlag(cols.Cell(row, ColDelivered)),
	}

	// Fulfillability defaults to true when the column is absent or blank.
	if v, ok := cols[ColCanFulfill]; ok && v < len(row) {
		r.CanFulfill = cols.Cell(row, ColCanFulfill) != "否"
	} else {
		r.CanFulfill = true
	}

	return r, nil
}
