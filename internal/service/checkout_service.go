package service

import (
	"context"
	"fmt"
	"time"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutService defines the interface for placing and reading orders
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*checkout.Plan, error)
	Orders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
}

type checkoutService struct {
	cartRepo  repository.CartRepository
	orderRepo repository.OrderRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout turns the user's cart into an order. The order, its items, the
// ledger entries and the balance change commit together or not at all. Only
// after the commit are the checked-out quantities taken out of the cart, so
// items added meanwhile stay for the next checkout.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*checkout.Plan, error) {
	cart, err := s.cartRepo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, checkout.ErrEmptyCart
	}

	var plan *checkout.Plan
	_, err = s.orderRepo.PlaceOrder(ctx, userID, cart.ProductIDs(),
		func(balance decimal.Decimal, catalog domain.Catalog) (*domain.OrderPlacement, error) {
			p, err := checkout.Prepare(userID, cart, balance, catalog, requested, s.now())
			if err != nil {
				return nil, err
			}
			plan = p
			return &p.Placement, nil
		})
	if err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	if err := s.cartRepo.Consume(ctx, userID, cart); err != nil {
		// The order is committed; a stale cart is only an inconvenience.
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.String("order_id", plan.Placement.Order.ID.String()),
			zap.Error(err),
		)
	}

	for _, dropped := range plan.Dropped {
		s.logger.Info("Skipped deleted product at checkout",
			zap.String("user_id", userID.String()),
			zap.String("product_id", dropped.ProductID.String()),
			zap.Int("qty", dropped.Quantity),
		)
	}

	return plan, nil
}

// Orders lists the user's own orders, newest first
func (s *checkoutService) Orders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
