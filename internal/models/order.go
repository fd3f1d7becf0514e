package models

import (
	"time"

	"github.com/google/uuid"
)

// NoticeStatus is the payment-notice column vocabulary.
type NoticeStatus string

const (
	NoticeStatusPending  NoticeStatus = "未通知" // remittance not yet announced
	NoticeStatusNotified NoticeStatus = "已通知" // buyer has announced remittance
)

// PaidStatus is the payment column vocabulary.
type PaidStatus string

const (
	PaidStatusUnpaid PaidStatus = "未付款"
	PaidStatusPaid   PaidStatus = "已付款"
)

// PackStatus is the packing column vocabulary.
type PackStatus string

const (
	PackStatusUnpacked PackStatus = "未包貨"
	PackStatusPacked   PackStatus = "已包貨"
)

// ShipStatus is the shipping column vocabulary.
type ShipStatus string

const (
	ShipStatusUnshipped ShipStatus = "未出貨"
	ShipStatusShipped   ShipStatus = "已出貨"
)

// OrderSource identifies which sheet an order was first imported from.
type OrderSource string

const (
	SourceMaster   OrderSource = "MASTER"
	SourceGroupBuy OrderSource = "GROUP_BUY"
	SourceForm     OrderSource = "ORDER_FORM"
)

// Order represents one order as a relational mirror of a Master sheet row
// block. OrderNo is globally unique across sync sources (raw intake ids are
// prefixed per source sheet). Header and financial fields plus items are
// immutable after first creation; only the status/annotation fields are
// patched by later sync passes.
type Order struct {
	ID      uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderNo string      `json:"orderNo" gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_order_no"`
	Source  OrderSource `json:"source" gorm:"type:varchar(20);not null;default:'MASTER'"`

	UserPhone string    `json:"userPhone" gorm:"type:varchar(10);not null;index:idx_orders_user_phone"`
	OrderedAt time.Time `json:"orderedAt"`

	WordChain string `json:"wordChain" gorm:"type:text"` // 文字接龍 free text
	Remarks   string `json:"remarks" gorm:"type:text"`

	NoticeStatus NoticeStatus `json:"noticeStatus" gorm:"type:varchar(10);not null;default:'未通知'"`
	PaidStatus   PaidStatus   `json:"paidStatus" gorm:"type:varchar(10);not null;default:'未付款';index:idx_orders_paid_status"`
	PackStatus   PackStatus   `json:"packStatus" gorm:"type:varchar(10);not null;default:'未包貨'"`
	ShipStatus   ShipStatus   `json:"shipStatus" gorm:"type:varchar(10);not null;default:'未出貨'"`

	ShippingCost float64 `json:"shippingCost" gorm:"type:decimal(10,2);default:0"`
	TotalAmount  float64 `json:"totalAmount" gorm:"type:decimal(10,2);default:0"`

	// Address snapshot at order time; the user row carries the living value.
	Address    string `json:"address" gorm:"type:text"`
	CanFulfill bool   `json:"canFulfill" gorm:"default:true"`

	ShipMethod string `json:"shipMethod" gorm:"type:varchar(255)"`
	ShipDetail string `json:"shipDetail" gorm:"type:varchar(255)"`

	PaymentID string `json:"paymentId" gorm:"type:varchar(255)"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents one purchased line of an order. Product identity is
// denormalized (name/spec/brand as they appeared in the sheet) plus a
// foreign key resolved during sync.
type OrderItem struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID   uuid.UUID  `json:"orderId" gorm:"type:uuid;not null;index:idx_order_items_order"`
	ProductID *uuid.UUID `json:"productId,omitempty" gorm:"type:uuid"`

	Name  string `json:"name" gorm:"type:varchar(255);not null"`
	Spec  string `json:"spec" gorm:"type:varchar(255)"`
	Brand string `json:"brand" gorm:"type:varchar(255)"`

	Quantity int     `json:"quantity" gorm:"not null;default:0"`
	Amount   float64 `json:"amount" gorm:"type:decimal(10,2);default:0"` // line total

	Packed    bool `json:"packed" gorm:"default:false"`
	Delivered bool `json:"delivered" gorm:"default:false"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// ValidNoticeStatus reports whether v is in the payment-notice vocabulary.
func ValidNoticeStatus(v string) bool {
	return v == string(NoticeStatusPending) || v == string(NoticeStatusNotified)
}

// ValidPaidStatus reports whether v is in the paid-status vocabulary.
func ValidPaidStatus(v string) bool {
	return v == string(PaidStatusUnpaid) || v == string(PaidStatusPaid)
}

// ValidPackStatus reports whether v is in the packing vocabulary.
func ValidPackStatus(v string) bool {
	return v == string(PackStatusUnpacked) || v == string(PackStatusPacked)
}

// ValidShipStatus reports whether v is in the shipping vocabulary.
func ValidShipStatus(v string) bool {
	return v == string(ShipStatusUnshipped) || v == string(ShipStatusShipped)
}
