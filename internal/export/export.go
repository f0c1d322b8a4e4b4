// Package export writes admin CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"beestore/internal/domain"
)

var (
	ProductHeader = []string{"ID", "Name", "Category", "Price", "BeeCoin", "Stock"}
	UserHeader    = []string{"ID", "Full Name", "Email"}
	OrderHeader   = []string{"Order ID", "User", "Full Name", "Total Amount", "Created At", "Items"}
)

// Products writes one row per product.
func Products(w io.Writer, products []*domain.Product) error {
	return write(w, ProductHeader, len(products), func(i int) []string {
		p := products[i]
		return []string{
			p.ID.String(),
			p.Name,
			p.Category,
			p.Price.StringFixed(domain.AmountPlaces),
			p.BeeCoin.StringFixed(domain.AmountPlaces),
			strconv.Itoa(p.Stock),
		}
	})
}

// Users writes one row per user.
func Users(w io.Writer, users []*domain.User) error {
	return write(w, UserHeader, len(users), func(i int) []string {
		u := users[i]
		return []string{u.ID.String(), u.FullName, u.Email}
	})
}

// Orders writes one row per order with its items collapsed into one column.
func Orders(w io.Writer, orders []*domain.OrderSummary) error {
	return write(w, OrderHeader, len(orders), func(i int) []string {
		o := orders[i]
		return []string{
			o.ID.String(),
			o.UserLogin,
			o.UserFullName,
			o.TotalAmount.StringFixed(domain.AmountPlaces),
			o.CreatedAt.UTC().Format(time.RFC3339),
			ItemsColumn(o.Items),
		}
	})
}

// ItemsColumn renders items as "name × qty; name × qty".
func ItemsColumn(items []domain.OrderItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s × %d", item.ProductName, item.Quantity)
	}
	return strings.Join(parts, "; ")
}

func write(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
