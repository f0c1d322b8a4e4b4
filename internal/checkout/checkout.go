// Package checkout turns a cart into an order. Everything here is pure: callers
// pass in the cart, the user's locked balance and a catalog snapshot, and get back
// the rows to persist. Persistence lives in the repository layer.
package checkout

import (
	"errors"
	"fmt"
	"time"

	"beestore/internal/domain"
	"beestore/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrEmptyCart = errors.New("cart is empty")

// Line is a cart entry resolved against the catalog.
type Line struct {
	Product  *domain.Product `json:"product"`
	Quantity int             `json:"qty"`
}

// Total is price × quantity.
func (l Line) Total() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Accrual is the per-unit BeeCoin rate × quantity.
func (l Line) Accrual() decimal.Decimal {
	return l.Product.BeeCoin.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DroppedLineItem is a cart entry whose product no longer exists. It is
// skipped rather than failing the cart.
type DroppedLineItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"qty"`
}

// Quote is the priced view of a cart.
type Quote struct {
	Lines    []Line            `json:"products"`
	Dropped  []DroppedLineItem `json:"dropped,omitempty"`
	Subtotal decimal.Decimal   `json:"total"`
	Accrual  decimal.Decimal   `json:"earn_beecoins"`
}

// Resolve prices every cart entry against catalog.
func Resolve(cart domain.Cart, catalog domain.Catalog) Quote {
	q := Quote{
		Lines:    []Line{},
		Subtotal: decimal.Zero,
		Accrual:  decimal.Zero,
	}
	for _, id := range cart.ProductIDs() {
		qty := cart[id]
		product, ok := catalog[id]
		if !ok {
			q.Dropped = append(q.Dropped, DroppedLineItem{ProductID: id, Quantity: qty})
			continue
		}
		line := Line{Product: product, Quantity: qty}
		q.Lines = append(q.Lines, line)
		q.Subtotal = q.Subtotal.Add(line.Total())
		q.Accrual = q.Accrual.Add(line.Accrual())
	}
	return q
}

// ClampRedemption bounds a requested redemption to [0, min(balance, subtotal)].
func ClampRedemption(requested, balance, subtotal decimal.Decimal) decimal.Decimal {
	limit := decimal.Min(balance, subtotal)
	if limit.IsNegative() {
		limit = decimal.Zero
	}
	return decimal.Max(decimal.Zero, decimal.Min(requested, limit))
}

// Plan is the outcome of a checkout before it is persisted.
type Plan struct {
	Quote
	Requested     decimal.Decimal
	Used          decimal.Decimal
	Total         decimal.Decimal
	BalanceBefore decimal.Decimal
	Placement     domain.OrderPlacement
}

// Prepare computes the order, its items, the ledger entries and the new balance
// for a checkout. requested is the already-parsed redemption request; callers
// collapse malformed input to zero before calling.
func Prepare(userID uuid.UUID, cart domain.Cart, balance decimal.Decimal, catalog domain.Catalog, requested decimal.Decimal, now time.Time) (*Plan, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	quote := Resolve(cart, catalog)
	if len(quote.Lines) == 0 {
		return nil, fmt.Errorf("no purchasable products: %w", ErrEmptyCart)
	}

	used := ClampRedemption(requested, balance, quote.Subtotal)
	total := quote.Subtotal.Sub(used)

	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: total,
		CreatedAt:   now,
		Items:       make([]domain.OrderItem, 0, len(quote.Lines)),
	}
	for _, line := range quote.Lines {
		productID := line.Product.ID
		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			Price:       line.Product.Price,
		})
	}

	acct := ledger.NewAccount(userID, balance)
	if used.IsPositive() {
		if _, err := acct.Redeem(used, fmt.Sprintf("Spent on order #%s", order.ID), now); err != nil {
			return nil, fmt.Errorf("redeem: %w", err)
		}
	}
	if quote.Accrual.IsPositive() {
		if _, err := acct.Earn(quote.Accrual, fmt.Sprintf("Earned from order #%s", order.ID), now); err != nil {
			return nil, fmt.Errorf("earn: %w", err)
		}
	}

	return &Plan{
		Quote:         quote,
		Requested:     requested,
		Used:          used,
		Total:         total,
		BalanceBefore: balance,
		Placement: domain.OrderPlacement{
			Order:        order,
			Transactions: acct.Entries,
			BalanceAfter: acct.Balance,
		},
	}, nil
}
