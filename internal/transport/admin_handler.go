package transport

import (
	"io"
	"net/http"

	"beestore/internal/domain"
	"beestore/internal/middleware"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest creates or replaces a product. Amounts are decimal strings.
type ProductRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Category string `json:"category" validate:"max=100"`
	Price    string `json:"price" validate:"required,money"`
	BeeCoin  string `json:"bee_coin" validate:"required,rate"`
	Stock    int    `json:"stock" validate:"gte=0"`
	ImageURL string `json:"image_url" validate:"max=500"`
}

// CreateUserRequest opens an account from the back office
type CreateUserRequest struct {
	Login    string `json:"login" validate:"required,min=5,max=45,alphanum"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=255"`
	Role     string `json:"role" validate:"required,oneof=admin customer"`
}

// UpdateUserRequest edits an account. An empty password keeps the current one.
type UpdateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"omitempty,password"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=admin customer"`
}

// AdjustBalanceRequest credits (positive) or debits (negative) BeeCoins
type AdjustBalanceRequest struct {
	Amount string `json:"amount" validate:"required,amount"`
	Note   string `json:"note" validate:"max=255"`
}

// EditOrderRequest sets new item quantities, moves the order to another user,
// or both.
type EditOrderRequest struct {
	Items  []EditOrderItem `json:"items" validate:"required_without=UserID,dive"`
	UserID string          `json:"user_id" validate:"omitempty,uuid"`
}

// EditOrderItem is one line of an order edit. Qty is checked by the order rules.
type EditOrderItem struct {
	ID  string `json:"id" validate:"required,uuid"`
	Qty int    `json:"qty"`
}

// AdminHandler serves the back office
type AdminHandler struct {
	adminService service.AdminService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// RegisterRoutes registers the admin routes behind authentication and the admin role
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin(h.logger))

		r.Get("/stats", h.Dashboard)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productID}", h.UpdateProduct)
		r.Delete("/products/{productID}", h.DeleteProduct)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Put("/users/{userID}", h.UpdateUser)
		r.Delete("/users/{userID}", h.DeleteUser)
		r.Post("/users/{userID}/beecoins", h.AdjustBalance)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderID}", h.GetOrder)
		r.Put("/orders/{orderID}", h.EditOrder)
		r.Delete("/orders/{orderID}", h.DeleteOrder)

		r.Get("/export/products.csv", h.ExportProducts)
		r.Get("/export/users.csv", h.ExportUsers)
		r.Get("/export/orders.csv", h.ExportOrders)
	})
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load dashboard")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// productInput converts a validated request; the money and rate tags
// guarantee both amounts parse and are in range.
func productInput(req ProductRequest) service.ProductInput {
	price, _ := domain.ParseAmount(req.Price)
	beeCoin, _ := domain.ParseAmount(req.BeeCoin)
	return service.ProductInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    price,
		BeeCoin:  beeCoin,
		Stock:    req.Stock,
		ImageURL: req.ImageURL,
	}
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	product, err := h.adminService.CreateProduct(r.Context(), productInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req ProductRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	product, err := h.adminService.UpdateProduct(r.Context(), productID, productInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.adminService.DeleteProduct(r.Context(), productID); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", productID.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list users")
		return
	}

	profiles := make([]UserProfile, len(users))
	for i, u := range users {
		profiles[i] = newUserProfile(u)
	}
	middleware.RespondWithJSON(w, http.StatusOK, profiles)
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), service.UserInput{
		Login:    req.Login,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create user")
		return
	}

	h.logger.Info("User created by admin", zap.String("user_id", user.ID.String()), zap.String("role", user.Role.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, newUserProfile(user))
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), userID, service.UserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update user")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(user))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), userID); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete user")
		return
	}

	h.logger.Info("User deleted", zap.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}
	delta, _ := domain.ParseAmount(req.Amount)

	acct, err := h.adminService.AdjustBalance(r.Context(), userID, delta, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to adjust balance")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, struct {
		Balance      decimal.Decimal             `json:"balance"`
		Transactions []domain.BeeCoinTransaction `json:"transactions"`
	}{acct.Balance, acct.Entries})
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.adminService.ListOrders(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*domain.OrderSummary{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.adminService.GetOrder(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get order")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) EditOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}
	var req EditOrderRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	edit := service.OrderEdit{Quantities: make(map[uuid.UUID]int, len(req.Items))}
	for _, item := range req.Items {
		edit.Quantities[uuid.MustParse(item.ID)] = item.Qty
	}
	if req.UserID != "" {
		edit.UserID = uuid.MustParse(req.UserID)
	}

	order, err := h.adminService.EditOrder(r.Context(), orderID, edit)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to edit order")
		return
	}

	h.logger.Info("Order edited",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total", order.TotalAmount.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderID")
	if !ok {
		return
	}

	if err := h.adminService.DeleteOrder(r.Context(), orderID); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete order")
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", orderID.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, h.logger, "products.csv", func(out io.Writer) error {
		return h.adminService.ExportProducts(r.Context(), out)
	})
}

func (h *AdminHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, h.logger, "users.csv", func(out io.Writer) error {
		return h.adminService.ExportUsers(r.Context(), out)
	})
}

func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, h.logger, "orders.csv", func(out io.Writer) error {
		return h.adminService.ExportOrders(r.Context(), out)
	})
}
