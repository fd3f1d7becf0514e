package parser

// Raw intake formats. Both feed new orders into the system before they
// appear in Master; their raw ids are namespaced with a sheet-specific
// prefix so an order number stays globally unique across sync sources.
const (
	GroupBuyOrderPrefix = "G-"
	FormOrderPrefix     = "F-"

	// Group-buy sheet specific columns; the rest reuse the Master names.
	ColRawID     = "編號"
	ColFormStamp = "時間戳記"
	ColFormRawID = "回覆編號"
)

// GroupBuyFillColumns are the vertically merged order-level columns of the
// group-buy intake sheet. The raw id column is excluded for the same reason
// the Master order-no column is: a blank id marks a continuation row.
var GroupBuyFillColumns = []string{
	ColPhone, ColName, ColChatHandle, ColOrderedAt,
	ColShipCost, ColTotal, ColRemarks, ColAddress, ColEmail,
}

// FormFillColumns are the merged order-level columns of the order-form
// responses sheet.
var FormFillColumns = []string{
	ColPhone, ColName, ColRomanized, ColFormStamp,
	ColShipCost, ColTotal, ColRemarks, ColAddress, ColEmail,
}

// RequireGroupBuyColumns validates the group-buy header row.
func RequireGroupBuyColumns(cols ColumnMap) error {
	return cols.Require(ColRawID, ColPhone, ColProduct, ColQuantity)
}

// RequireFormColumns validates the order-form header row.
func RequireFormColumns(cols ColumnMap) error {
	return cols.Require(ColFormRawID, ColPhone, ColProduct, ColQuantity)
}

// ParseGroupBuyRow extracts one row of the group-buy intake sheet. The
// sheet has no status columns; imported orders start with the zero-value
// vocabulary entries.
func ParseGroupBuyRow(row []string, cols ColumnMap, rowIndex int) (Row, error) {
	r := Row{
		RowIndex: rowIndex,

		Phone: SanitizePhone(cols.Cell(row, ColPhone)),

		Name:       cols.Cell(row, ColName),
		ChatHandle: cols.Cell(row, ColChatHandle),
		Address:    cols.Cell(row, ColAddress),
		Email:      NormalizeEmail(cols.Cell(row, ColEmail)),

		Remarks: cols.Cell(row, ColRemarks),

		OrderedAt:    parseTime(cols.Cell(row, ColOrderedAt)),
		ShippingCost: parseMoney(cols.Cell(row, ColShipCost)),
		TotalAmount:  parseMoney(cols.Cell(row, ColTotal)),

		ProductName: cols.Cell(row, ColProduct),
		Spec:        cols.Cell(row, ColSpec),
		Brand:       cols.Cell(row, ColBrand),
		Quantity:    parseQuantity(cols.Cell(row, ColQuantity)),
		Amount:      parseMoney(cols.Cell(row, ColAmount)),

		CanFulfill: true,
	}

	if raw := cols.Cell(row, ColRawID); raw != "" {
		r.OrderNo = GroupBuyOrderPrefix + raw
	}

	return r, nil
}

// ParseFormRow extracts one row of the order-form responses sheet. The form
// timestamp doubles as the order time.
func ParseFormRow(row []string, cols ColumnMap, rowIndex int) (Row, error) {
	r := Row{
		RowIndex: rowIndex,

		Phone: SanitizePhone(cols.Cell(row, ColPhone)),

		Name:      cols.Cell(row, ColName),
		Romanized: cols.Cell(row, ColRomanized),
		Address:   cols.Cell(row, ColAddress),
		Email:     NormalizeEmail(cols.Cell(row, ColEmail)),

		Remarks: cols.Cell(row, ColRemarks),

		OrderedAt:    parseTime(cols.Cell(row, ColFormStamp)),
		ShippingCost: parseMoney(cols.Cell(row, ColShipCost)),
		TotalAmount:  parseMoney(cols.Cell(row, ColTotal)),

		ProductName: cols.Cell(row, ColProduct),
		Spec:        cols.Cell(row, ColSpec),
		Brand:       cols.Cell(row, ColBrand),
		Quantity:    parseQuantity(cols.Cell(row, ColQuantity)),
		Amount:      parseMoney(cols.Cell(row, ColAmount)),

		CanFulfill: true,
	}

	if raw := cols.Cell(row, ColFormRawID); raw != "" {
		r.OrderNo = FormOrderPrefix + raw
	}

	return r, nil
}
