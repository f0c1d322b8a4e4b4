package transport

import (
	"errors"
	"io"
	"net/http"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/middleware"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddToCartRequest puts a product in the cart. Qty defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"omitempty,min=1,max=999"`
}

// CheckoutRequest carries the requested redemption. It may be a string or a
// number; anything unparseable means no redemption.
type CheckoutRequest struct {
	BeeCoinToUse AmountField `json:"beecoin_to_use"`
}

// CheckoutResponse summarizes a placed order
type CheckoutResponse struct {
	Order          *domain.Order              `json:"order"`
	Subtotal       decimal.Decimal            `json:"subtotal"`
	UsedBeeCoins   decimal.Decimal            `json:"used_beecoins"`
	Total          decimal.Decimal            `json:"total_amount"`
	EarnedBeeCoins decimal.Decimal            `json:"earned_beecoins"`
	Balance        decimal.Decimal            `json:"beecoins"`
	Dropped        []checkout.DroppedLineItem `json:"dropped,omitempty"`
}

// CartHandler handles the cart and checkout
type CartHandler struct {
	cartService     service.CartService
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, checkoutService service.CheckoutService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers the cart and checkout routes
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.View)
		r.Post("/items", h.Add)
		r.Delete("/items/{productID}", h.Remove)
	})

	r.With(authMiddleware).Post("/api/checkout", h.Checkout)
}

// View handles GET /api/cart?beecoin_to_use=, previewing the redemption
// without writing anything.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	requested := AmountField(r.URL.Query().Get("beecoin_to_use")).Redemption()
	view, err := h.cartService.View(r.Context(), userID, requested)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	if err := h.cartService.Add(r.Context(), userID, uuid.MustParse(req.ProductID), req.Qty); err != nil {
		respondServiceError(w, h.logger, err, "failed to add to cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "added to cart"})
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.cartService.Remove(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "failed to remove from cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Checkout handles POST /api/checkout. An empty body checks out without
// redeeming BeeCoins.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("Checkout body rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan, err := h.checkoutService.Checkout(r.Context(), userID, req.BeeCoinToUse.Redemption())
	if err != nil {
		respondServiceError(w, h.logger, err, "checkout failed")
		return
	}

	h.logger.Info("Order placed",
		zap.String("user_id", userID.String()),
		zap.String("order_id", plan.Placement.Order.ID.String()),
		zap.String("total", plan.Total.String()),
		zap.String("used_beecoins", plan.Used.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{
		Order:          plan.Placement.Order,
		Subtotal:       plan.Subtotal,
		UsedBeeCoins:   plan.Used,
		Total:          plan.Total,
		EarnedBeeCoins: plan.Accrual,
		Balance:        plan.Placement.BalanceAfter,
		Dropped:        plan.Dropped,
	})
}
