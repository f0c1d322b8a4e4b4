package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a completed purchase. TotalAmount is what the user paid after redemption.
type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	Items       []OrderItem     `json:"items"`
}

// OrderItem freezes the unit price and product name at purchase time.
// ProductID is nil once the product has been deleted from the catalog.
type OrderItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	OrderID     uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID   *uuid.UUID      `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// LineTotal is price × quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderSummary is an order joined with its owner, used by admin listings and exports.
type OrderSummary struct {
	Order
	UserLogin    string `json:"user_login"`
	UserFullName string `json:"user_full_name"`
}

// OrderPlacement is everything a checkout writes in one transaction.
type OrderPlacement struct {
	Order        *Order
	Transactions []BeeCoinTransaction
	BalanceAfter decimal.Decimal
}
