package service

import (
	"context"
	"fmt"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartView is a priced cart with a redemption preview
type CartView struct {
	checkout.Quote
	Balance   decimal.Decimal `json:"beecoins"`
	Requested decimal.Decimal `json:"requested_beecoins"`
	Used      decimal.Decimal `json:"used_beecoins"`
	Total     decimal.Decimal `json:"final_total"`
	Count     int             `json:"count"`
}

// CartService defines the interface for cart operations
type CartService interface {
	Add(ctx context.Context, userID, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*CartView, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo, userRepo: userRepo}
}

// Add puts qty units of an existing product in the cart
func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	if qty > domain.MaxLineQuantity {
		return fmt.Errorf("%w: %d", domain.ErrQuantityLimit, domain.MaxLineQuantity)
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}

	return s.cartRepo.Add(ctx, userID, productID, qty)
}

// Remove drops a product from the cart
func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.cartRepo.Remove(ctx, userID, productID)
}

// View prices the cart against the current catalog and previews what a
// checkout with the requested redemption would charge. Nothing is written.
func (s *cartService) View(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*CartView, error) {
	cart, err := s.cartRepo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.productRepo.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to price cart: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	quote := checkout.Resolve(cart, catalog)
	used := checkout.ClampRedemption(requested, user.BeeCoins, quote.Subtotal)

	return &CartView{
		Quote:     quote,
		Balance:   user.BeeCoins,
		Requested: requested,
		Used:      used,
		Total:     quote.Subtotal.Sub(used),
		Count:     cart.Count(),
	}, nil
}
