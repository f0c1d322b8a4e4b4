package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/ledger"
	"beestore/internal/middleware"
	"beestore/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Stub services: each method delegates to an optional func field and
// otherwise succeeds with a zero value.

type stubUserService struct {
	register func(in service.RegisterInput) (*domain.User, error)
	login    func(login, password string) (string, string, *domain.User, error)
	change   func(userID uuid.UUID, oldPassword, newPassword string) error
}

func (s *stubUserService) Register(ctx context.Context, in service.RegisterInput) (*domain.User, error) {
	if s.register != nil {
		return s.register(in)
	}
	return &domain.User{ID: uuid.New(), Login: in.Login, Email: in.Email, FullName: in.FullName, Role: domain.RoleCustomer}, nil
}

func (s *stubUserService) Login(ctx context.Context, login, password string) (string, string, *domain.User, error) {
	if s.login != nil {
		return s.login(login, password)
	}
	return "access", "refresh", &domain.User{ID: uuid.New(), Login: login}, nil
}

func (s *stubUserService) Logout(ctx context.Context, refreshToken string) error { return nil }

func (s *stubUserService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return "access", nil
}

func (s *stubUserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: userID, Login: "honeybee"}, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (*domain.User, error) {
	return &domain.User{ID: userID, Email: in.Email, FullName: in.FullName}, nil
}

func (s *stubUserService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if s.change != nil {
		return s.change(userID, oldPassword, newPassword)
	}
	return nil
}

type stubCartService struct {
	add  func(productID uuid.UUID, qty int) error
	view func(requested decimal.Decimal) (*service.CartView, error)
}

func (s *stubCartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	if s.add != nil {
		return s.add(productID, qty)
	}
	return nil
}

func (s *stubCartService) Remove(ctx context.Context, userID, productID uuid.UUID) error { return nil }

func (s *stubCartService) View(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*service.CartView, error) {
	if s.view != nil {
		return s.view(requested)
	}
	return &service.CartView{}, nil
}

type stubCheckoutService struct {
	checkout func(requested decimal.Decimal) (*checkout.Plan, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, requested decimal.Decimal) (*checkout.Plan, error) {
	if s.checkout != nil {
		return s.checkout(requested)
	}
	return &checkout.Plan{Placement: domain.OrderPlacement{Order: &domain.Order{ID: uuid.New(), UserID: userID}}}, nil
}

func (s *stubCheckoutService) Orders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return nil, nil
}

type stubAdminService struct {
	service.AdminService
	editOrder  func(id uuid.UUID, edit service.OrderEdit) (*domain.Order, error)
	deleteUser func(id uuid.UUID) error
	adjust     func(id uuid.UUID, delta decimal.Decimal) (*ledger.Account, error)
	create     func(in service.ProductInput) (*domain.Product, error)
}

func (s *stubAdminService) CreateProduct(ctx context.Context, in service.ProductInput) (*domain.Product, error) {
	return s.create(in)
}

func (s *stubAdminService) Dashboard(ctx context.Context) (*domain.Stats, error) {
	return &domain.Stats{Products: 2, Users: 3, Admins: 1}, nil
}

func (s *stubAdminService) EditOrder(ctx context.Context, id uuid.UUID, edit service.OrderEdit) (*domain.Order, error) {
	return s.editOrder(id, edit)
}

func (s *stubAdminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.deleteUser(id)
}

func (s *stubAdminService) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal, note string) (*ledger.Account, error) {
	return s.adjust(id, delta)
}

func (s *stubAdminService) ExportProducts(ctx context.Context, w io.Writer) error {
	_, err := io.WriteString(w, "ID,Name,Category,Price,BeeCoin,Stock\n")
	return err
}

// asUser stands in for AuthMiddleware with a fixed identity.
func asUser(userID uuid.UUID, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
		})
	}
}

func passThrough(next http.Handler) http.Handler { return next }

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return strings.NewReader(s)
	}
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func serve(router http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponse {
	t.Helper()
	var response middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

var nopLogger = zap.NewNop()
