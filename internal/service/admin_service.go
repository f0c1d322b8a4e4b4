package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"beestore/internal/checkout"
	"beestore/internal/domain"
	"beestore/internal/export"
	"beestore/internal/ledger"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrAdminUndeletable = errors.New("admin accounts cannot be deleted")
	ErrZeroAdjustment   = errors.New("adjustment must not be zero")
)

// ProductInput holds the editable fields of a product
type ProductInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	BeeCoin  decimal.Decimal
	Stock    int
	ImageURL string
}

// UserInput holds what an admin may set on an account. An empty Password
// leaves the current one in place on update.
type UserInput struct {
	Login    string
	Email    string
	Password string
	FullName string
	Phone    string
	Address  string
	Role     domain.Role
}

// OrderEdit is an admin change to a placed order. Quantities maps item IDs to
// new quantities; a zero UserID keeps the current owner.
type OrderEdit struct {
	Quantities map[uuid.UUID]int
	UserID     uuid.UUID
}

// AdminService defines the interface for the back office
type AdminService interface {
	Dashboard(ctx context.Context) (*domain.Stats, error)

	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListUsers(ctx context.Context) ([]*domain.User, error)
	CreateUser(ctx context.Context, in UserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal, note string) (*ledger.Account, error)

	ListOrders(ctx context.Context) ([]*domain.OrderSummary, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	EditOrder(ctx context.Context, id uuid.UUID, edit OrderEdit) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error

	ExportProducts(ctx context.Context, w io.Writer) error
	ExportUsers(ctx context.Context, w io.Writer) error
	ExportOrders(ctx context.Context, w io.Writer) error
}

type adminService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	ledgerRepo  repository.LedgerRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	ledgerRepo repository.LedgerRepository,
	logger *zap.Logger,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Dashboard returns product, user and admin counts
func (s *adminService) Dashboard(ctx context.Context) (*domain.Stats, error) {
	products, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return &domain.Stats{
		Products: products,
		Users:    byRole[domain.RoleAdmin] + byRole[domain.RoleCustomer],
		Admins:   byRole[domain.RoleAdmin],
	}, nil
}

func (s *adminService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := checkProductInput(in); err != nil {
		return nil, err
	}
	now := s.now()
	product := &domain.Product{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyProductInput(product, in)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *adminService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput) (*domain.Product, error) {
	if err := checkProductInput(in); err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	applyProductInput(product, in)

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product. Past order lines keep their frozen name and price.
func (s *adminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func checkProductInput(in ProductInput) error {
	if err := domain.CheckRange(in.Price, domain.MaxMoney); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if err := domain.CheckRange(in.BeeCoin, domain.MaxAccrualRate); err != nil {
		return fmt.Errorf("bee_coin: %w", err)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: %d", domain.ErrNegativeStock, in.Stock)
	}
	return nil
}

func applyProductInput(p *domain.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Price = in.Price
	p.BeeCoin = in.BeeCoin
	p.Stock = in.Stock
	p.ImageURL = strings.TrimSpace(in.ImageURL)
}

func (s *adminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser opens an account with any role. New accounts start with no BeeCoins.
func (s *adminService) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	if err := checkPasswordPolicy(in.Password); err != nil {
		return nil, err
	}
	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Login:        strings.TrimSpace(in.Login),
		PasswordHash: hashedPassword,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyUserInput(user, in)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUser edits contact details, role and optionally the password in one
// write. The balance is never touched here; see AdjustBalance.
func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, in UserInput) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if in.Password != "" {
		if err := checkPasswordPolicy(in.Password); err != nil {
			return nil, err
		}
		hashedPassword, err := hashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	applyUserInput(user, in)
	if in.Role != "" {
		user.Role = in.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func applyUserInput(u *domain.User, in UserInput) {
	u.Email = strings.TrimSpace(in.Email)
	u.FullName = strings.TrimSpace(in.FullName)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
}

// DeleteUser removes a customer with their orders and ledger entries
func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsAdmin() {
		return ErrAdminUndeletable
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// AdjustBalance credits a positive delta or debits a negative one, recording
// a ledger entry either way.
func (s *adminService) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal, note string) (*ledger.Account, error) {
	if delta.IsZero() {
		return nil, ErrZeroAdjustment
	}
	if err := domain.CheckRange(delta.Abs(), domain.MaxMoney); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(note)
	if description == "" {
		description = "Adjusted by administrator"
	}

	acct, err := s.ledgerRepo.Apply(ctx, id, func(acct *ledger.Account) error {
		if _, err := acct.Adjust(delta, description, s.now()); err != nil {
			return err
		}
		if acct.Balance.GreaterThan(domain.MaxMoney) {
			return fmt.Errorf("%w: balance would reach %s", domain.ErrInvalidAmount, acct.Balance)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}

	s.logger.Info("BeeCoin balance adjusted",
		zap.String("user_id", id.String()),
		zap.String("delta", delta.String()),
		zap.String("balance", acct.Balance.String()),
	)
	return acct, nil
}

func (s *adminService) ListOrders(ctx context.Context) ([]*domain.OrderSummary, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *adminService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// EditOrder sets new quantities on an order's items and re-prices every line
// at the current catalog price. An invalid quantity rejects the whole edit.
func (s *adminService) EditOrder(ctx context.Context, id uuid.UUID, edit OrderEdit) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(order.Items))
	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		known[item.ID] = true
		if item.ProductID != nil {
			productIDs = append(productIDs, *item.ProductID)
		}
	}
	for itemID := range edit.Quantities {
		if !known[itemID] {
			return nil, fmt.Errorf("item %s: %w", itemID, repository.ErrOrderItemNotFound)
		}
	}
	if edit.UserID != uuid.Nil && edit.UserID != order.UserID {
		if _, err := s.userRepo.FindByID(ctx, edit.UserID); err != nil {
			return nil, fmt.Errorf("failed to get new owner: %w", err)
		}
	}

	catalog, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	edited, err := checkout.Reprice(order, edit.Quantities, catalog)
	if err != nil {
		return nil, err
	}
	if edit.UserID != uuid.Nil {
		edited.UserID = edit.UserID
	}

	if err := s.orderRepo.Update(ctx, edited); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if edited.UserID != order.UserID {
		s.logger.Info("Order reassigned",
			zap.String("order_id", id.String()),
			zap.String("from_user_id", order.UserID.String()),
			zap.String("to_user_id", edited.UserID.String()),
		)
	}
	return edited, nil
}

func (s *adminService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (s *adminService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	return export.Products(w, products)
}

func (s *adminService) ExportUsers(ctx context.Context, w io.Writer) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	return export.Users(w, users)
}

func (s *adminService) ExportOrders(ctx context.Context, w io.Writer) error {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	return export.Orders(w, orders)
}
