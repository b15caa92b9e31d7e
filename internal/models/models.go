package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, the way the storefront expects them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Image       string          `db:"image" json:"image"`
	InStock     bool            `db:"in_stock" json:"inStock"`
	Category    string          `db:"category" json:"category"`
	Rating      *float64        `db:"rating" json:"rating,omitempty"`
	Reviews     *int            `db:"reviews" json:"reviews,omitempty"`
	Brand       string          `db:"brand" json:"brand"`
	SKU         string          `db:"sku" json:"sku"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
	Variants    []Variant       `db:"-" json:"variants"`

	// Stock is the scalar stock count older payloads carry instead of variants.
	Stock *int `db:"-" json:"stock,omitempty"`
}

// Variant is a purchasable option of a product (size, colour, ...)
type Variant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"productId"`
	Name      string `db:"name" json:"name"`
	Available bool   `db:"available" json:"available"`
	Stock     int    `db:"stock" json:"stock"`
}

// CategoryCount is one row of the category aggregation
type CategoryCount struct {
	Name  string `db:"name" json:"name"`
	Count int    `db:"count" json:"count"`
}

// DeletedProduct is returned after a product has been removed
type DeletedProduct struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DeletedAt time.Time `json:"deletedAt"`
}

// ProductInput is the body of create and update requests. Nil fields were
// not supplied by the caller.
type ProductInput struct {
	Name        *string          `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	SKU         *string          `json:"sku"`
	Brand       *string          `json:"brand"`
	Rating      *float64         `json:"rating"`
	Reviews     *int             `json:"reviews"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	InStock     *bool            `json:"inStock"`
	Variants    []VariantInput   `json:"variants"`
}

// VariantInput is a variant as supplied inline with a product
type VariantInput struct {
	Name      string `json:"name" binding:"notblank"`
	Available *bool  `json:"available,omitempty"`
	Stock     *int   `json:"stock,omitempty" binding:"omitempty,gte=0"`
}

// ToVariant applies the defaults of an omitted flag or stock count.
func (v VariantInput) ToVariant(productID int64) Variant {
	variant := Variant{
		ProductID: productID,
		Name:      v.Name,
		Available: true,
	}
	if v.Available != nil {
		variant.Available = *v.Available
	}
	if v.Stock != nil {
		variant.Stock = *v.Stock
	}
	return variant
}
