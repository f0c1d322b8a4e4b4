package checkout

import (
	"errors"
	"fmt"

	"beestore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = domain.ErrInvalidQuantity
	ErrProductMissing  = errors.New("order line references a deleted product")
)

// Reprice applies an admin edit to order. quantities holds the requested quantity
// per item ID; items without an entry keep their quantity. Every line is re-priced
// at the product's current price, unlike checkout which freezes the price.
//
// Validation happens before anything changes: on error order is left untouched.
func Reprice(order *domain.Order, quantities map[uuid.UUID]int, catalog domain.Catalog) (*domain.Order, error) {
	for _, item := range order.Items {
		if qty, ok := quantities[item.ID]; ok && qty < 1 {
			return nil, fmt.Errorf("item %s: %w", item.ID, ErrInvalidQuantity)
		}
		if item.ProductID == nil {
			return nil, fmt.Errorf("item %s: %w", item.ID, ErrProductMissing)
		}
		if _, ok := catalog[*item.ProductID]; !ok {
			return nil, fmt.Errorf("item %s: %w", item.ID, ErrProductMissing)
		}
	}

	edited := *order
	edited.Items = make([]domain.OrderItem, len(order.Items))
	total := decimal.Zero
	for i, item := range order.Items {
		if qty, ok := quantities[item.ID]; ok {
			item.Quantity = qty
		}
		product := catalog[*item.ProductID]
		item.Price = product.Price
		item.ProductName = product.Name
		edited.Items[i] = item
		total = total.Add(item.LineTotal())
	}
	edited.TotalAmount = total

	return &edited, nil
}
