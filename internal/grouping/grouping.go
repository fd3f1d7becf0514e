// Package grouping folds a flat sequence of filled rows into the three
// entity maps the sync writer persists: users keyed by phone, products keyed
// by (name, spec), and orders keyed by order number with nested line items.
package grouping

import (
	"fmt"

	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/parser"
)

// Accumulator is the explicit result of one fold pass. There is no hidden
// cross-call state: folding the same row sequence twice yields identical
// maps.
type Accumulator struct {
	Users    map[string]*models.User
	Products map[models.ProductKey]*models.Product
	Orders   map[string]*models.Order
	OrderSeq []string // order numbers in first-seen sheet order

	RowsFailed int
	Errors     []string
}

// newAccumulator returns an empty accumulator.
func newAccumulator() *Accumulator {
	return &Accumulator{
		Users:    make(map[string]*models.User),
		Products: make(map[models.ProductKey]*models.Product),
		Orders:   make(map[string]*models.Order),
	}
}

// Fold runs the grouping state machine over a filled row sequence. Source
// tags every produced order. The only session state is the currently active
// order number:
//
//   - order no + phone present: start (or re-enter) that order
//   - order no present, phone empty: skip the row, reset the active order,
//     count a failure
//   - order no empty, active order set: continuation row, attach line data
//   - order no empty, no active order: discard silently
//
// Continuation detection relies solely on the order-no column being empty.
// A malformed sheet with an accidentally blank order no on a genuinely new
// order merges into the previous order; that is long-standing sheet
// convention and is deliberately not second-guessed here.
func Fold(rows []parser.Row, source models.OrderSource) *Accumulator {
	acc := newAccumulator()
	currentOrderNo := ""

	for _, row := range rows {
		switch {
		case row.OrderNo != "" && row.Phone != "":
			currentOrderNo = row.OrderNo
			acc.mergeUser(row)
			acc.startOrder(row, source)
			acc.attachLine(currentOrderNo, row)

		case row.OrderNo != "":
			// An order row without any phone digits cannot be keyed to a
			// user; resetting the active order keeps its continuation rows
			// from leaking into the previous order.
			currentOrderNo = ""
			acc.RowsFailed++
			acc.Errors = append(acc.Errors,
				fmt.Sprintf("row %d: order %s has no phone number", row.RowIndex+2, row.OrderNo))

		case currentOrderNo != "":
			acc.attachLine(currentOrderNo, row)

		default:
			// No order context at all; stray row.
		}
	}

	return acc
}

// mergeUser registers or merges the row's user by phone key.
func (a *Accumulator) mergeUser(row parser.Row) {
	u := &models.User{
		Phone:      row.Phone,
		Name:       row.Name,
		ChatHandle: row.ChatHandle,
		Romanized:  row.Romanized,
		Address:    row.Address,
		Email:      row.Email,
	}
	if existing, ok := a.Users[row.Phone]; ok {
		existing.MergeFrom(u)
		return
	}
	a.Users[row.Phone] = u
}

// startOrder registers the order header, first-seen wins for fields already
// set. Address always refreshes from the newest non-empty value, mirroring
// the user merge rule.
func (a *Accumulator) startOrder(row parser.Row, source models.OrderSource) {
	if existing, ok := a.Orders[row.OrderNo]; ok {
		if row.Address != "" {
			existing.Address = row.Address
		}
		return
	}

	order := &models.Order{
		OrderNo:      row.OrderNo,
		Source:       source,
		UserPhone:    row.Phone,
		OrderedAt:    row.OrderedAt,
		WordChain:    row.WordChain,
		Remarks:      row.Remarks,
		ShippingCost: row.ShippingCost,
		TotalAmount:  row.TotalAmount,
		Address:      row.Address,
		CanFulfill:   row.CanFulfill,

		NoticeStatus: noticeOrDefault(row.Notice),
		PaidStatus:   paidOrDefault(row.PaidStatus),
		PackStatus:   packOrDefault(row.PackStatus),
		ShipStatus:   shipOrDefault(row.ShipStatus),
	}
	a.Orders[row.OrderNo] = order
	a.OrderSeq = append(a.OrderSeq, row.OrderNo)
}

// attachLine attaches the row's line data to the active order: shipping
// lines update the order's shipping method/detail, product lines append an
// item and register the product.
func (a *Accumulator) attachLine(orderNo string, row parser.Row) {
	order, ok := a.Orders[orderNo]
	if !ok {
		return
	}

	if row.Brand == models.ShippingBrand {
		order.ShipMethod = row.ProductName
		order.ShipDetail = row.Spec
		return
	}

	if !row.HasItem() {
		return
	}

	order.Items = append(order.Items, models.OrderItem{
		Name:      row.ProductName,
		Spec:      row.Spec,
		Brand:     row.Brand,
		Quantity:  row.Quantity,
		Amount:    row.Amount,
		Packed:    row.Packed,
		Delivered: row.Delivered,
	})

	key := models.ProductKey{Name: row.ProductName, Spec: row.Spec}
	if _, known := a.Products[key]; !known {
		unit := 0.0
		if row.Quantity > 0 {
			unit = row.Amount / float64(row.Quantity)
		}
		a.Products[key] = &models.Product{
			Name:      row.ProductName,
			Spec:      row.Spec,
			Brand:     row.Brand,
			UnitPrice: unit,
		}
	}
}

func noticeOrDefault(v string) models.NoticeStatus {
	if models.ValidNoticeStatus(v) {
		return models.NoticeStatus(v)
	}
	return models.NoticeStatusPending
}

func paidOrDefault(v string) models.PaidStatus {
	if models.ValidPaidStatus(v) {
		return models.PaidStatus(v)
	}
	return models.PaidStatusUnpaid
}

func packOrDefault(v string) models.PackStatus {
	if models.ValidPackStatus(v) {
		return models.PackStatus(v)
	}
	return models.PackStatusUnpacked
}

func shipOrDefault(v string) models.ShipStatus {
	if models.ValidShipStatus(v) {
		return models.ShipStatus(v)
	}
	return models.ShipStatusUnshipped
}
