package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beestore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrBalanceConstraint   = errors.New("balance would become negative")
	ErrOrderItemNotFound   = errors.New("order item not found")
	ErrPlacementIncomplete = errors.New("placement has no order")
)

// PlacementBuilder turns the locked balance and a catalog snapshot into the rows
// a checkout writes. It runs inside the checkout transaction.
type PlacementBuilder func(balance decimal.Decimal, catalog domain.Catalog) (*domain.OrderPlacement, error)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, build PlacementBuilder) (*domain.OrderPlacement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.OrderSummary, error)
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder runs a checkout as one transaction: lock the user's balance, load
// the products, let build compute the placement, then write the order, its items,
// the ledger entries and the new balance. Any error rolls everything back.
func (r *orderRepository) PlaceOrder(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, build PlacementBuilder) (*domain.OrderPlacement, error) {
	var placement *domain.OrderPlacement

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		balance, err := lockBalance(ctx, tx, userID)
		if err != nil {
			return err
		}

		catalog, err := findProductsByIDs(ctx, tx, productIDs)
		if err != nil {
			return err
		}

		placement, err = build(balance, catalog)
		if err != nil {
			return err
		}
		if placement == nil || placement.Order == nil {
			return ErrPlacementIncomplete
		}

		if err := insertOrder(ctx, tx, placement.Order); err != nil {
			return err
		}
		if err := insertTransactions(ctx, tx, placement.Transactions); err != nil {
			return err
		}
		return setBalance(ctx, tx, userID, placement.BalanceAfter)
	})
	if err != nil {
		return nil, err
	}

	return placement, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO orders (id, user_id, total_amount, created_at) VALUES ($1, $2, $3, $4)`,
		order.ID,
		order.UserID,
		order.TotalAmount,
		order.CreatedAt,
	)
	if err != nil {
		if isNumericOutOfRange(err) {
			return fmt.Errorf("%w: order total %s", ErrAmountOutOfRange, order.TotalAmount)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if err := insertOrderItem(ctx, tx, item); err != nil {
			return err
		}
	}
	return nil
}

func insertOrderItem(ctx context.Context, tx *sql.Tx, item domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.OrderID,
		nullableUUID(item.ProductID),
		item.ProductName,
		item.Quantity,
		item.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, total_amount, created_at FROM orders WHERE id = $1`,
		id,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

// ListByUser returns a user's orders with items, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, total_amount, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	ids := []uuid.UUID{}
	for rows.Next() {
		order := &domain.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}

	return orders, nil
}

// ListAll returns every order joined with its owner, newest first
func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.OrderSummary, error) {
	query := `
		SELECT o.id, o.user_id, o.total_amount, o.created_at, u.login, u.full_name
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	summaries := []*domain.OrderSummary{}
	ids := []uuid.UUID{}
	for rows.Next() {
		s := &domain.OrderSummary{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.TotalAmount, &s.CreatedAt, &s.UserLogin, &s.UserFullName); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		summaries = append(summaries, s)
		ids = append(ids, s.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		s.Items = items[s.ID]
	}

	return summaries, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	items := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	args := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id.String()
	}

	query := `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY product_name, id
	`

	rows, err := r.db.QueryContext(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      domain.OrderItem
			productID uuid.NullUUID
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.UUID
			item.ProductID = &id
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// Update persists an edited order: its owner, its total and every item's
// quantity, price and name, in one transaction.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE orders SET total_amount = $2, user_id = $3 WHERE id = $1`,
			order.ID, order.TotalAmount, order.UserID,
		)
		if err != nil {
			if isNumericOutOfRange(err) {
				return fmt.Errorf("%w: order total %s", ErrAmountOutOfRange, order.TotalAmount)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, order.UserID)
			}
			return fmt.Errorf("failed to update order: %w", err)
		}
		if err := rowsAffectedOr(result, ErrOrderNotFound); err != nil {
			return err
		}

		for _, item := range order.Items {
			result, err := tx.ExecContext(
				ctx,
				`UPDATE order_items SET quantity = $3, price = $4, product_name = $5 WHERE id = $1 AND order_id = $2`,
				item.ID,
				order.ID,
				item.Quantity,
				item.Price,
				item.ProductName,
			)
			if err != nil {
				return fmt.Errorf("failed to update order item: %w", err)
			}
			if err := rowsAffectedOr(result, ErrOrderItemNotFound); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an order and its items in one transaction
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return rowsAffectedOr(result, ErrOrderNotFound)
	})
}
