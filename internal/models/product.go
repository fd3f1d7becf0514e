package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingBrand is the category label that marks a sheet line as a shipping
// charge rather than a purchasable product. Lines carrying it never enter
// the product catalog; they set the order's shipping method/detail instead.
const ShippingBrand = "運費"

// Product represents a catalog entry keyed by (name, specification).
// The same product name with a different specification is a different
// product; identities are never merged across specs. Unit price is derived
// from the first line seen for the pair (line amount / quantity when
// quantity > 0, else 0).
type Product struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_products_name_spec"`
	Spec      string    `json:"spec" gorm:"type:varchar(255);uniqueIndex:idx_products_name_spec"`
	Brand     string    `json:"brand" gorm:"type:varchar(255)"`
	UnitPrice float64   `json:"unitPrice" gorm:"type:decimal(10,2);default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// ProductKey is the composite natural key for a product.
type ProductKey struct {
	Name string
	Spec string
}

// Key returns the product's natural key.
func (p *Product) Key() ProductKey {
	return ProductKey{Name: p.Name, Spec: p.Spec}
}
