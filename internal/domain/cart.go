package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// MaxLineQuantity caps the units of one product in a cart.
const MaxLineQuantity = 999

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrQuantityLimit   = errors.New("quantity exceeds the per-product limit")
)

// Cart maps product IDs to quantities. Absent entries mean "not in cart";
// stored quantities are always >= 1.
type Cart map[uuid.UUID]int

// Add increments the quantity of a product, creating the entry if absent.
func (c Cart) Add(productID uuid.UUID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if c[productID]+qty > MaxLineQuantity {
		return fmt.Errorf("%w: %d", ErrQuantityLimit, MaxLineQuantity)
	}
	c[productID] += qty
	return nil
}

// Remove deletes the entry entirely.
func (c Cart) Remove(productID uuid.UUID) {
	delete(c, productID)
}

// Count is the total number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, qty := range c {
		n += qty
	}
	return n
}

// ProductIDs returns the cart's product IDs in a stable order.
func (c Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
