package transport

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/ledger"
	"beestore/internal/middleware"
	"beestore/internal/repository"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errorStatuses maps service and repository sentinels to responses. The
// first match wins.
var errorStatuses = []struct {
	target error
	status int
}{
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrProductNotFound, http.StatusNotFound},
	{repository.ErrOrderNotFound, http.StatusNotFound},
	{repository.ErrOrderItemNotFound, http.StatusNotFound},
	{checkout.ErrProductMissing, http.StatusNotFound},
	{repository.ErrUserAlreadyExists, http.StatusConflict},
	{ledger.ErrInsufficientBalance, http.StatusConflict},
	{repository.ErrBalanceConstraint, http.StatusConflict},
	{checkout.ErrEmptyCart, http.StatusBadRequest},
	{domain.ErrInvalidQuantity, http.StatusBadRequest},
	{domain.ErrQuantityLimit, http.StatusBadRequest},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{repository.ErrAmountOutOfRange, http.StatusBadRequest},
	{domain.ErrNegativeStock, http.StatusBadRequest},
	{service.ErrZeroAdjustment, http.StatusBadRequest},
	{service.ErrWrongPassword, http.StatusBadRequest},
	{service.ErrAdminUndeletable, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrTokenExpired, http.StatusUnauthorized},
}

// respondServiceError writes the response for an error returned by a service.
// Unknown errors are logged and reported as 500 with the fallback message.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	// The policy error carries the list of unmet rules.
	if errors.Is(err, service.ErrWeakPassword) {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			logger.Debug("Request rejected", zap.Error(err))
			middleware.RespondWithError(w, e.status, e.target.Error())
			return
		}
	}

	logger.Error(fallback, zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
}

// decodeRequest decodes and validates the JSON body into v, answering the
// request itself when that fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// currentUser returns the authenticated user's ID.
func currentUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the named URL parameter as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, returning 0 when absent or malformed.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// AmountField accepts an amount sent either as a JSON string or a JSON number.
// Whatever arrives is kept verbatim for domain.ParseAmount.
type AmountField string

func (a *AmountField) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*a = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*a = AmountField(raw)
	return nil
}

// Redemption parses a requested BeeCoin redemption. Anything that is not a
// valid amount counts as no redemption.
func (a AmountField) Redemption() decimal.Decimal {
	amount, err := domain.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// writeCSV renders fn into a buffer and sends it as an attachment so that a
// failure halfway through still produces a clean error response.
func writeCSV(w http.ResponseWriter, logger *zap.Logger, filename string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		respondServiceError(w, logger, err, "failed to export "+filename)
		return
	}
	middleware.RespondWithCSV(w, filename, buf.Bytes())
}
