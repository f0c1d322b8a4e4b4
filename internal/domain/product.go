package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNegativeStock = errors.New("stock must not be negative")

// Product represents a product in the catalog
type Product struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Category  string          `json:"category" db:"category"`
	Price     decimal.Decimal `json:"price" db:"price"`
	BeeCoin   decimal.Decimal `json:"bee_coin" db:"bee_coin"` // accrual per unit bought
	Stock     int             `json:"stock" db:"stock"`
	ImageURL  string          `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductFilter narrows a catalog listing. Nil bounds are not applied.
type ProductFilter struct {
	Category string
	Search   string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
}

// Catalog is a snapshot of products keyed by ID.
type Catalog map[uuid.UUID]*Product

// NewCatalog indexes products by ID.
func NewCatalog(products []*Product) Catalog {
	catalog := make(Catalog, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return catalog
}

// Category is a distinct product category with the number of products in it.
type Category struct {
	Name         string `json:"name" db:"category"`
	ProductCount int    `json:"product_count"`
}
