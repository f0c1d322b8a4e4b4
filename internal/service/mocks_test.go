package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"beestore/internal/domain"
	"beestore/internal/ledger"
	"beestore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) conflicts(user *domain.User) bool {
	for _, other := range m.users {
		if other.ID != user.ID && (other.Login == user.Login || other.Email == user.Email) {
			return true
		}
	}
	return false
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.conflicts(user) {
		return repository.ErrUserAlreadyExists
	}
	user.BeeCoins = decimal.Zero
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	for _, user := range m.users {
		if match(user) {
			found := *user
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Login == login })
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Login < users[j].Login })
	return users, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	stored, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if m.conflicts(user) {
		return repository.ErrUserAlreadyExists
	}
	stored.Email = user.Email
	stored.FullName = user.FullName
	stored.Phone = user.Phone
	stored.Address = user.Address
	stored.Avatar = user.Avatar
	stored.Role = user.Role
	if user.PasswordHash != "" {
		stored.PasswordHash = user.PasswordHash
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	stored, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	counts := make(map[domain.Role]int)
	for _, user := range m.users {
		counts[user.Role]++
	}
	return counts, nil
}

func (m *mockUserRepository) setBalance(id uuid.UUID, balance decimal.Decimal) {
	m.users[id].BeeCoins = balance
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, repository.ErrRefreshTokenExpired
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for key, token := range m.tokens {
		if token.ExpiresAt.Before(before) {
			delete(m.tokens, key)
			n++
		}
	}
	return n, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(name, price, rate string) *domain.Product {
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Category:  "Honey",
		Price:     decimal.RequireFromString(price),
		BeeCoin:   decimal.RequireFromString(rate),
		Stock:     10,
		CreatedAt: time.Now(),
	}
	m.products[product.ID] = product
	return product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (domain.Catalog, error) {
	catalog := make(domain.Catalog)
	for _, id := range ids {
		if product, ok := m.products[id]; ok {
			catalog[id] = product
		}
	}
	return catalog, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter, page, pageSize int) ([]*domain.Product, int, error) {
	var matched []*domain.Product
	for _, product := range m.sorted() {
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, product)
	}

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []*domain.Product{}, len(matched), nil
	}
	end := min(start+pageSize, len(matched))
	return matched[start:end], len(matched), nil
}

func (m *mockProductRepository) sorted() []*domain.Product {
	products := make([]*domain.Product, 0, len(m.products))
	for _, product := range m.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products
}

func (m *mockProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return m.sorted(), nil
}

func (m *mockProductRepository) Random(ctx context.Context, limit int) ([]*domain.Product, error) {
	products := m.sorted()
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	return len(m.products), nil
}

type mockCategoryRepository struct {
	categories []domain.Category
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	return m.categories, nil
}

type mockCartRepository struct {
	carts      map[uuid.UUID]domain.Cart
	consumeErr error
	// afterLoad runs once Load has copied the cart.
	afterLoad func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[uuid.UUID]domain.Cart)}
}

func (m *mockCartRepository) Load(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	cart := make(domain.Cart)
	for id, qty := range m.carts[userID] {
		cart[id] = qty
	}
	if m.afterLoad != nil {
		m.afterLoad()
	}
	return cart, nil
}

func (m *mockCartRepository) Add(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	cart, ok := m.carts[userID]
	if !ok {
		cart = make(domain.Cart)
		m.carts[userID] = cart
	}
	return cart.Add(productID, qty)
}

func (m *mockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	m.carts[userID].Remove(productID)
	return nil
}

func (m *mockCartRepository) Consume(ctx context.Context, userID uuid.UUID, bought domain.Cart) error {
	if m.consumeErr != nil {
		return m.consumeErr
	}
	cart := m.carts[userID]
	for id, qty := range bought {
		if cart[id] -= qty; cart[id] <= 0 {
			delete(cart, id)
		}
	}
	if len(cart) == 0 {
		delete(m.carts, userID)
	}
	return nil
}

// mockLedgerRepository keeps entries per user and writes balances back to users.
type mockLedgerRepository struct {
	users   *mockUserRepository
	entries map[uuid.UUID][]domain.BeeCoinTransaction
}

func newMockLedgerRepository(users *mockUserRepository) *mockLedgerRepository {
	return &mockLedgerRepository{users: users, entries: make(map[uuid.UUID][]domain.BeeCoinTransaction)}
}

func (m *mockLedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BeeCoinTransaction, error) {
	entries := append([]domain.BeeCoinTransaction(nil), m.entries[userID]...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (m *mockLedgerRepository) Sum(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return ledger.Sum(m.entries[userID]), nil
}

func (m *mockLedgerRepository) commit(userID uuid.UUID, entries []domain.BeeCoinTransaction, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return repository.ErrBalanceConstraint
	}
	m.entries[userID] = append(m.entries[userID], entries...)
	m.users.setBalance(userID, balance)
	return nil
}

func (m *mockLedgerRepository) Apply(ctx context.Context, userID uuid.UUID, fn func(acct *ledger.Account) error) (*ledger.Account, error) {
	user, ok := m.users.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	acct := ledger.NewAccount(userID, user.BeeCoins)
	if err := fn(acct); err != nil {
		return nil, err
	}
	if err := m.commit(userID, acct.Entries, acct.Balance); err != nil {
		return nil, err
	}
	return acct, nil
}

// mockOrderRepository stages a placement and applies it only when nothing
// fails, mirroring the transactional repository. failWith injects an error
// after the builder has run.
type mockOrderRepository struct {
	products *mockProductRepository
	ledger   *mockLedgerRepository
	orders   map[uuid.UUID]*domain.Order
	failWith error
}

func newMockOrderRepository(products *mockProductRepository, ledger *mockLedgerRepository) *mockOrderRepository {
	return &mockOrderRepository{products: products, ledger: ledger, orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) PlaceOrder(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID, build repository.PlacementBuilder) (*domain.OrderPlacement, error) {
	user, ok := m.ledger.users.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	catalog, _ := m.products.FindByIDs(ctx, productIDs)

	placement, err := build(user.BeeCoins, catalog)
	if err != nil {
		return nil, err
	}
	if m.failWith != nil {
		return nil, m.failWith
	}

	if err := m.ledger.commit(userID, placement.Transactions, placement.BalanceAfter); err != nil {
		return nil, err
	}
	m.orders[placement.Order.ID] = placement.Order
	return placement, nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	copied := *order
	copied.Items = append([]domain.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]*domain.OrderSummary, error) {
	var summaries []*domain.OrderSummary
	for _, order := range m.orders {
		summary := &domain.OrderSummary{Order: *order}
		if user, ok := m.ledger.users.users[order.UserID]; ok {
			summary.UserLogin = user.Login
			summary.UserFullName = user.FullName
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (m *mockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

var errInjected = errors.New("injected failure")

// store wires every mock together the way the server wires the real repositories.
type store struct {
	users    *mockUserRepository
	tokens   *mockRefreshTokenRepository
	products *mockProductRepository
	carts    *mockCartRepository
	ledger   *mockLedgerRepository
	orders   *mockOrderRepository
}

func newStore() *store {
	users := newMockUserRepository()
	products := newMockProductRepository()
	ledgerRepo := newMockLedgerRepository(users)
	return &store{
		users:    users,
		tokens:   newMockRefreshTokenRepository(),
		products: products,
		carts:    newMockCartRepository(),
		ledger:   ledgerRepo,
		orders:   newMockOrderRepository(products, ledgerRepo),
	}
}

// addUser stores a user and seeds their balance through an earn entry so the
// ledger reconciles from the start.
func (s *store) addUser(login string, role domain.Role, balance string) *domain.User {
	user := &domain.User{
		ID:       uuid.New(),
		Login:    login,
		Email:    login + "@beestore.test",
		FullName: "Test " + login,
		Role:     role,
	}
	_ = s.users.Create(context.Background(), user)

	if amount := decimal.RequireFromString(balance); amount.IsPositive() {
		_, _ = s.ledger.Apply(context.Background(), user.ID, func(acct *ledger.Account) error {
			_, err := acct.Earn(amount, "Opening balance", time.Now().Add(-time.Hour))
			return err
		})
	}
	return s.users.users[user.ID]
}
