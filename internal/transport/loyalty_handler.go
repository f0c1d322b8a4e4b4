package transport

import (
	"net/http"

	"beestore/internal/middleware"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoyaltyHandler exposes the caller's BeeCoin ledger
type LoyaltyHandler struct {
	loyaltyService service.LoyaltyService
	logger         *zap.Logger
}

// NewLoyaltyHandler creates a new LoyaltyHandler
func NewLoyaltyHandler(loyaltyService service.LoyaltyService, logger *zap.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{loyaltyService: loyaltyService, logger: logger}
}

// RegisterRoutes registers the loyalty routes
func (h *LoyaltyHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/api/beecoins", h.Statement)
}

// Statement returns the balance and the transaction history, newest first
func (h *LoyaltyHandler) Statement(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	statement, err := h.loyaltyService.Statement(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load BeeCoin history")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, statement)
}
